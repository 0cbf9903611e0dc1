// Package season models the competitive season window. Seasons are
// calendar-month aligned by default; live deployments override the
// window and curve tuning through remote configuration.
package season

import (
	"fmt"
	"time"

	"github.com/playforge/idle-season-service/pkg/economy"
	"github.com/playforge/idle-season-service/pkg/format"
	"github.com/playforge/idle-season-service/pkg/rank"
)

// Season is one competitive window with its tuning. Immutable once
// published.
type Season struct {
	ID    string    `yaml:"id" json:"id"`
	Name  string    `yaml:"name" json:"name"`
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`

	Curve   rank.Coefficients `yaml:"curve" json:"curve"`
	Economy economy.Config    `yaml:"economy" json:"economy"`
}

// HasStarted reports whether the window is open at the given instant.
func (s Season) HasStarted(now time.Time) bool {
	return !now.Before(s.Start)
}

// HasEnded reports whether the window has closed. The end instant
// itself counts as ended.
func (s Season) HasEnded(now time.Time) bool {
	return !now.Before(s.End)
}

// Active reports whether the season is running at the given instant.
func (s Season) Active(now time.Time) bool {
	return s.HasStarted(now) && !s.HasEnded(now)
}

// Remaining is the time until the season closes, floored at zero.
func (s Season) Remaining(now time.Time) time.Duration {
	d := s.End.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// RemainingLabel is the display form of the remaining time, "ended"
// once the window has closed.
func (s Season) RemainingLabel(now time.Time) string {
	if s.HasEnded(now) {
		return "ended"
	}
	return format.Duration(s.Remaining(now))
}

// ForMonth builds the calendar-month season containing the given
// instant, with the reference tuning. The id is stable for the month
// so every node derives the same season without coordination.
func ForMonth(now time.Time) Season {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return Season{
		ID:      fmt.Sprintf("s%04d-%02d", start.Year(), int(start.Month())),
		Name:    start.Format("January 2006"),
		Start:   start,
		End:     end,
		Curve:   rank.DefaultCoefficients(),
		Economy: economy.DefaultConfig(),
	}
}

// Next returns the season that follows this one, carrying the same
// tuning.
func (s Season) Next() Season {
	next := ForMonth(s.End)
	next.Curve = s.Curve
	next.Economy = s.Economy
	return next
}
