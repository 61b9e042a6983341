package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// The bookable grid is fixed: half-hour steps from 09:00 through 18:00.
// 18:00 itself is a valid start marker; 18:30 is not.
const (
	gridOpenHour  = 9
	gridCloseHour = 18
)

var (
	ErrBadTimeFormat = errors.New("time must be HH:MM")
	ErrOffGrid       = errors.New("time must be between 09:00 and 18:00 in 30-minute steps")
)

// ParseSlotTime validates s against the grid and returns it in canonical
// zero-padded "HH:MM" form, so "9:00" and "09:00" compare equal everywhere
// downstream.
func ParseSlotTime(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return "", ErrBadTimeFormat
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", ErrBadTimeFormat
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", ErrBadTimeFormat
	}
	if m != 0 && m != 30 {
		return "", ErrOffGrid
	}
	if h < gridOpenHour || h > gridCloseHour {
		return "", ErrOffGrid
	}
	if h == gridCloseHour && m != 0 {
		return "", ErrOffGrid
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// ParseDate parses a "YYYY-MM-DD" calendar date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.New("date must be YYYY-MM-DD")
	}
	return d.UTC(), nil
}

func FormatDate(d time.Time) string {
	return d.Format("2006-01-02")
}

// SlotInPast reports whether (date, slotTime) is no longer bookable at the
// reference instant. A slot today at exactly the current minute counts as
// past; only strictly later times remain bookable.
func SlotInPast(date time.Time, slotTime string, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return true
	}
	if !day.Equal(today) {
		return false
	}
	h, m, ok := splitSlotTime(slotTime)
	if !ok {
		return false
	}
	slot := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, time.UTC)
	nowMinute := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, time.UTC)
	return !slot.After(nowMinute)
}

func splitSlotTime(s string) (hour, minute int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return h, m, true
}

// SubtractBooked returns the template times not present in booked, ascending.
// Canonical "HH:MM" strings sort correctly as plain strings.
func SubtractBooked(template, booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}
	out := make([]string, 0, len(template))
	for _, t := range template {
		if _, ok := taken[t]; ok {
			continue
		}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ContainsTime reports membership of slotTime in times.
func ContainsTime(times []string, slotTime string) bool {
	for _, t := range times {
		if t == slotTime {
			return true
		}
	}
	return false
}
