// Package schedule turns a report template's schedule into a cron
// expression and computes when it would next run. Nothing is executed;
// the next run is informational.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/derickschaefer/workwatch/internal/model"
)

// ErrDisabled is returned for a nil or disabled schedule.
var ErrDisabled = errors.New("schedule: disabled")

// Spec returns the standard five-field cron expression for s.
// Weekly schedules run on Monday; monthly ones on the first of the month.
func Spec(s *model.Schedule) (string, error) {
	if s == nil || !s.Enabled {
		return "", ErrDisabled
	}
	hour, minute, err := parseClock(s.Time)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(s.Frequency) {
	case "daily":
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	case "weekly":
		return fmt.Sprintf("%d %d * * 1", minute, hour), nil
	case "monthly":
		return fmt.Sprintf("%d %d 1 * *", minute, hour), nil
	default:
		return "", fmt.Errorf("schedule: unknown frequency %q (want daily, weekly or monthly)", s.Frequency)
	}
}

// NextRun returns the first time strictly after after at which s fires.
func NextRun(s *model.Schedule, after time.Time) (time.Time, error) {
	spec, err := Spec(s)
	if err != nil {
		return time.Time{}, err
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: parsing %q: %w", spec, err)
	}
	return sched.Next(after), nil
}

func parseClock(hhmm string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0, 0, fmt.Errorf("schedule: time %q must be HH:MM", hhmm)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("schedule: hour in %q must be 0-23", hhmm)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("schedule: minute in %q must be 0-59", hhmm)
	}
	return hour, minute, nil
}
