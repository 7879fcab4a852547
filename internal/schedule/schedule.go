// Package schedule computes periodic trigger instants for the supported cadences.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Mode selects one of the built-in periodic trigger policies.
type Mode string

const (
	ModeEveryMinute     Mode = "minute"
	ModeEveryTenMinutes Mode = "ten-minutes"
	ModeHourlyOnHour    Mode = "hourly"
)

// Modes lists every supported mode in menu order.
var Modes = []Mode{ModeEveryMinute, ModeEveryTenMinutes, ModeHourlyOnHour}

// cronSpecs maps each mode to the standard cron expression with the same cadence.
var cronSpecs = map[Mode]string{
	ModeEveryMinute:     "* * * * *",
	ModeEveryTenMinutes: "*/10 * * * *",
	ModeHourlyOnHour:    "0 * * * *",
}

var schedules = mustParseSchedules(cronSpecs)

// ParseMode normalizes user input into a Mode.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "minute", "every-minute", "1m":
		return ModeEveryMinute, nil
	case "ten-minutes", "every-ten-minutes", "10m":
		return ModeEveryTenMinutes, nil
	case "hourly", "hour", "1h":
		return ModeHourlyOnHour, nil
	default:
		return "", fmt.Errorf("unknown schedule mode %q (want minute, ten-minutes, or hourly)", raw)
	}
}

// Label returns the human-facing menu label for a mode.
func (m Mode) Label() string {
	switch m {
	case ModeEveryMinute:
		return "Every minute"
	case ModeEveryTenMinutes:
		return "Every 10 minutes"
	case ModeHourlyOnHour:
		return "Hourly on the hour"
	default:
		return string(m)
	}
}

// ComputeNextFire returns the first instant strictly after now that matches
// the mode's cadence, in now's location and truncated to whole seconds.
//
//   - minute:      the next minute boundary.
//   - ten-minutes: the next minute divisible by ten.
//   - hourly:      the top of the next hour.
func ComputeNextFire(mode Mode, now time.Time) (time.Time, error) {
	sched, ok := schedules[mode]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown schedule mode %q", mode)
	}
	return sched.Next(now), nil
}

func mustParseSchedules(specs map[Mode]string) map[Mode]cron.Schedule {
	out := make(map[Mode]cron.Schedule, len(specs))
	for mode, spec := range specs {
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			panic(fmt.Sprintf("parse cron spec %q for mode %s: %v", spec, mode, err))
		}
		out[mode] = sched
	}
	return out
}
