package repository

import (
	"context"
	"strings"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"

	"gorm.io/gorm"
)

// GormAirportRepository implements the AirportRepository interface
type GormAirportRepository struct {
	db *gorm.DB
}

// NewGormAirportRepository creates a new GORM airport repository
func NewGormAirportRepository(db *gorm.DB) repository.AirportRepository {
	return &GormAirportRepository{
		db: db,
	}
}

// Airports GORM model for database mapping
type Airports struct {
	ID          uint           `gorm:"primaryKey"`
	AirportCode string         `gorm:"column:airportcode;unique"`
	AirportName string         `gorm:"column:airport_name"`
	CityCode    string         `gorm:"column:citycode;index"`
	CityName    string         `gorm:"column:cityname;index"`
	TzName      string         `gorm:"column:tzname"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the default table name
func (Airports) TableName() string {
	return "m_airports"
}

func (a Airports) toEntity() *entity.Airport {
	return &entity.Airport{
		Code:     a.AirportCode,
		Name:     a.AirportName,
		CityCode: a.CityCode,
		CityName: a.CityName,
		TzName:   a.TzName,
	}
}

// GetByAirportCode finds an airport by IATA code
func (r *GormAirportRepository) GetByAirportCode(ctx context.Context, code string) (*entity.Airport, error) {
	var airport Airports
	result := r.db.WithContext(ctx).Where("airportcode = ?", strings.ToUpper(code)).First(&airport)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return airport.toEntity(), nil
}

// SearchByCity finds airports whose city name starts with city, or whose
// city code equals it
func (r *GormAirportRepository) SearchByCity(ctx context.Context, city string, limit int) ([]*entity.Airport, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, nil
	}

	var rows []Airports
	query := r.db.WithContext(ctx).
		Where("LOWER(cityname) LIKE ? OR citycode = ?", strings.ToLower(city)+"%", strings.ToUpper(city)).
		Order("cityname, airportcode")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	airports := make([]*entity.Airport, 0, len(rows))
	for _, row := range rows {
		airports = append(airports, row.toEntity())
	}
	return airports, nil
}

// MigrateReferenceData creates the airline and airport tables when missing
func MigrateReferenceData(db *gorm.DB) error {
	return db.AutoMigrate(&Airlines{}, &Airports{})
}
