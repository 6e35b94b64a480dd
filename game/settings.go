package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/wfunc/blockoni/board"
	"github.com/wfunc/blockoni/config"
	"github.com/wfunc/blockoni/items"
	"github.com/wfunc/blockoni/models"
)

var ErrInvalidSettings = errors.New("game: invalid settings")

// Seat is one player slot in turn order.
type Seat struct {
	ID    string
	Role  models.Role
	Start string
}

// Settings 对局规则
type Settings struct {
	Board               board.Params
	TurnLimit           int // 0 disables the time-out
	RotationEveryRounds int // 0 disables periodic rotation
	RotationDuration    time.Duration
	RotationFrame       time.Duration
	ItemCount           int
	SpeedUpBonus        int
	Seats               []Seat
}

// DefaultSettings is one Oni chasing one Runner on a 5x5 cube.
func DefaultSettings() Settings {
	return Settings{
		Board:               board.DefaultParams(),
		TurnLimit:           10,
		RotationEveryRounds: 4,
		RotationDuration:    time.Second,
		RotationFrame:       50 * time.Millisecond,
		ItemCount:           6,
		SpeedUpBonus:        items.DefaultSpeedUpBonus,
		Seats: []Seat{
			{ID: "oni", Role: models.RoleOni, Start: "Top_0_0"},
			{ID: "runner", Role: models.RoleRunner, Start: "Top_2_2"},
		},
	}
}

// SettingsFromConfig converts the game section of the config file.
func SettingsFromConfig(cfg config.GameConfig) (Settings, error) {
	s := Settings{
		Board:               cfg.Board,
		TurnLimit:           cfg.TurnLimit,
		RotationEveryRounds: cfg.RotationEveryRounds,
		RotationDuration:    cfg.RotationDuration,
		RotationFrame:       cfg.RotationFrame,
		ItemCount:           cfg.ItemCount,
		SpeedUpBonus:        cfg.SpeedUpBonus,
	}
	for _, seat := range cfg.Seats {
		s.Seats = append(s.Seats, Seat{ID: seat.ID, Role: models.Role(seat.Role), Start: seat.Start})
	}
	return s, s.Validate()
}

// Validate checks the seating: unique ids, at least one Oni and exactly one
// Runner.
func (s Settings) Validate() error {
	if len(s.Seats) < 2 {
		return fmt.Errorf("%w: need at least two seats", ErrInvalidSettings)
	}
	ids := make(map[string]bool, len(s.Seats))
	runners, onis := 0, 0
	for _, seat := range s.Seats {
		if seat.ID == "" || ids[seat.ID] {
			return fmt.Errorf("%w: seat id %q empty or repeated", ErrInvalidSettings, seat.ID)
		}
		ids[seat.ID] = true
		switch seat.Role {
		case models.RoleOni:
			onis++
		case models.RoleRunner:
			runners++
		default:
			return fmt.Errorf("%w: seat %s has role %q", ErrInvalidSettings, seat.ID, seat.Role)
		}
	}
	if runners != 1 || onis == 0 {
		return fmt.Errorf("%w: want exactly one Runner and at least one Oni, got %d/%d", ErrInvalidSettings, runners, onis)
	}
	if s.TurnLimit < 0 || s.RotationEveryRounds < 0 || s.ItemCount < 0 {
		return fmt.Errorf("%w: negative limits", ErrInvalidSettings)
	}
	if s.RotationDuration < 0 || s.RotationFrame < 0 {
		return fmt.Errorf("%w: negative rotation timing", ErrInvalidSettings)
	}
	return nil
}
