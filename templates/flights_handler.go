package templates

import (
	"context"
	"fmt"
	"strings"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/pkg/logger"
)

// TrackLister lists a user's active flight tracks
type TrackLister interface {
	ListTracks(ctx context.Context, userID int64) ([]*entity.FlightTrack, error)
}

// FlightsHandler handles the /flights command
type FlightsHandler struct {
	tracks TrackLister
	sender Sender
	logger logger.Logger
}

// NewFlightsHandler creates a new flights handler
func NewFlightsHandler(tracks TrackLister, sender Sender, logger logger.Logger) *FlightsHandler {
	return &FlightsHandler{
		tracks: tracks,
		sender: sender,
		logger: logger,
	}
}

// CanHandle determines if this handler serves the command
func (h *FlightsHandler) CanHandle(command string) bool {
	return matches(command, "flights", "tracks")
}

// Handle lists tracked flights. Legs of one itinerary are listed together
// and cancelled with a single button.
func (h *FlightsHandler) Handle(ctx context.Context, msg entity.IncomingMessage) error {
	tracks, err := h.tracks.ListTracks(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	if len(tracks) == 0 {
		h.sender.Send(ctx, msg.UserID, "You are not tracking any flights. Run /track to start.", nil)
		return nil
	}

	groups := groupByRoute(tracks)

	var b strings.Builder
	keyboard := make(entity.Keyboard, 0, len(groups))
	b.WriteString("🛫 Your tracked flights\n")
	for i, group := range groups {
		fmt.Fprintf(&b, "\n%d. ", i+1)
		for j, track := range group {
			if j > 0 {
				b.WriteString("\n   ")
			}
			b.WriteString(describeTrack(track))
		}

		if key := group[0].ParentRouteKey; key != "" {
			keyboard = append(keyboard, []entity.Choice{{
				Label:  fmt.Sprintf("🗑 %d. Stop itinerary", i+1),
				Action: entity.NewCallbackAction(entity.CallbackRouteCancel, key),
			}})
		} else {
			keyboard = append(keyboard, []entity.Choice{{
				Label:  fmt.Sprintf("🗑 %d. Stop %s", i+1, group[0].Designator().String()),
				Action: entity.NewCallbackAction(entity.CallbackTrackCancel, group[0].ID),
			}})
		}
	}

	h.sender.Send(ctx, msg.UserID, b.String(), keyboard)
	return nil
}

// groupByRoute keeps the incoming order, folding legs that share a parent
// route key into the position of their first leg
func groupByRoute(tracks []*entity.FlightTrack) [][]*entity.FlightTrack {
	var groups [][]*entity.FlightTrack
	index := make(map[string]int)
	for _, track := range tracks {
		if track.ParentRouteKey == "" {
			groups = append(groups, []*entity.FlightTrack{track})
			continue
		}
		if i, ok := index[track.ParentRouteKey]; ok {
			groups[i] = append(groups[i], track)
			continue
		}
		index[track.ParentRouteKey] = len(groups)
		groups = append(groups, []*entity.FlightTrack{track})
	}
	return groups
}

func describeTrack(track *entity.FlightTrack) string {
	line := fmt.Sprintf("%s on %s", track.Designator().String(), track.Date)
	if track.Origin != "" && track.Destination != "" {
		line += fmt.Sprintf(" (%s → %s)", track.Origin, track.Destination)
	}
	if track.LastStatus != nil {
		line += ", " + string(track.LastStatus.State)
	}
	return line
}
