package usecase

import (
	"context"
	"testing"

	"flightwatch-bot/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAirlineRepo struct {
	airlines []*entity.Airline
}

func (r *fakeAirlineRepo) GetByCode(_ context.Context, code string) (*entity.Airline, error) {
	for _, a := range r.airlines {
		if a.Code == code {
			return a, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r *fakeAirlineRepo) List(_ context.Context) ([]*entity.Airline, error) {
	return r.airlines, nil
}

func TestAirlineResolver(t *testing.T) {
	r := NewAirlineResolver()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{input: "British Airways", want: "BA", ok: true},
		{input: "  LUFTHANSA ", want: "LH", ok: true},
		{input: "ek", want: "EK", ok: true},
		{input: "qatar", want: "QR", ok: true},
		{input: "Delta Air Lines", want: "DL", ok: true},
		{input: "ZZ", want: "ZZ", ok: true},
		{input: "Nowhere Airways Of Atlantis", ok: false},
		{input: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := r.Resolve(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	assert.Equal(t, "British Airways", r.Name(context.Background(), "BA"))
	assert.Equal(t, "XX", r.Name(context.Background(), "XX"))
}

func TestAirlineResolverLoadFrom(t *testing.T) {
	r := NewAirlineResolver()
	repo := &fakeAirlineRepo{airlines: []*entity.Airline{
		{Code: "QZ", Name: "Indonesia AirAsia"},
		{Code: "BA", Name: "British Airways"},
	}}

	added, err := r.LoadFrom(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	code, ok := r.Resolve("indonesia airasia")
	assert.True(t, ok)
	assert.Equal(t, "QZ", code)
}

func TestAirlineNameFallsBackToReference(t *testing.T) {
	ctx := context.Background()
	r := NewAirlineResolver()
	repo := &fakeAirlineRepo{}
	_, err := r.LoadFrom(ctx, repo)
	require.NoError(t, err)

	assert.Equal(t, "X1", r.Name(ctx, "X1"))

	repo.airlines = []*entity.Airline{{Code: "X1", Name: "Example Air"}}
	assert.Equal(t, "Example Air", r.Name(ctx, "x1"))

	repo.airlines = nil
	assert.Equal(t, "Example Air", r.Name(ctx, "X1"))
}

func TestAirportResolver(t *testing.T) {
	h := newHarness(t)
	h.flightData.airports["bali"] = []entity.Airport{{Code: "DPS", Name: "Ngurah Rai"}}
	r := NewAirportResolver(nil, h.flightData, nopLogger())
	ctx := context.Background()

	london, err := r.Resolve(ctx, "  London ")
	require.NoError(t, err)
	assert.Len(t, london, 4)

	code, err := r.Resolve(ctx, "cdg")
	require.NoError(t, err)
	assert.Equal(t, []entity.Airport{{Code: "CDG"}}, code)

	bali, err := r.Resolve(ctx, "Bali")
	require.NoError(t, err)
	require.Len(t, bali, 1)
	assert.Equal(t, "DPS", bali[0].Code)

	_, err = r.Resolve(ctx, "   ")
	assert.ErrorIs(t, err, entity.ErrInvalidInput)

	none, err := r.Resolve(ctx, "atlantis")
	require.NoError(t, err)
	assert.Empty(t, none)
}
