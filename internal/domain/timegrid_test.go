package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseSlotTime(t *testing.T) {
	valid := map[string]string{
		"09:00":  "09:00",
		"9:00":   "09:00",
		"9:30":   "09:30",
		"12:30":  "12:30",
		"17:30":  "17:30",
		"18:00":  "18:00",
		" 10:00": "10:00",
	}
	for in, want := range valid {
		got, err := ParseSlotTime(in)
		if err != nil {
			t.Fatalf("ParseSlotTime(%q): unexpected error %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSlotTime(%q) = %q, want %q", in, got, want)
		}
	}

	offGrid := []string{"08:30", "18:30", "19:00", "09:15", "10:45", "00:00", "23:30"}
	for _, in := range offGrid {
		if _, err := ParseSlotTime(in); !errors.Is(err, ErrOffGrid) {
			t.Fatalf("ParseSlotTime(%q): got %v, want ErrOffGrid", in, err)
		}
	}

	malformed := []string{"", "10", "10:00:00", "ten:00", "10:xx", "10.30"}
	for _, in := range malformed {
		if _, err := ParseSlotTime(in); !errors.Is(err, ErrBadTimeFormat) {
			t.Fatalf("ParseSlotTime(%q): got %v, want ErrBadTimeFormat", in, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-09-14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatDate(d) != "2026-09-14" {
		t.Fatalf("round trip = %q, want 2026-09-14", FormatDate(d))
	}

	for _, in := range []string{"", "14-09-2026", "2026/09/14", "2026-13-01", "next tuesday"} {
		if _, err := ParseDate(in); err == nil {
			t.Fatalf("ParseDate(%q): expected error", in)
		}
	}
}

func TestSlotInPast(t *testing.T) {
	now := time.Date(2026, time.September, 14, 10, 0, 0, 0, time.UTC)
	today := time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		date time.Time
		slot string
		want bool
	}{
		{"yesterday", today.AddDate(0, 0, -1), "18:00", true},
		{"tomorrow", today.AddDate(0, 0, 1), "09:00", false},
		{"today earlier", today, "09:30", true},
		{"today current minute", today, "10:00", true},
		{"today later", today, "10:30", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SlotInPast(tc.date, tc.slot, now); got != tc.want {
				t.Fatalf("SlotInPast(%s, %s) = %v, want %v", FormatDate(tc.date), tc.slot, got, tc.want)
			}
		})
	}
}

func TestSubtractBooked(t *testing.T) {
	template := []string{"10:00", "09:00", "14:30"}

	got := SubtractBooked(template, []string{"10:00"})
	if want := []string{"09:00", "14:30"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got = SubtractBooked(template, nil)
	if want := []string{"09:00", "10:00", "14:30"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got = SubtractBooked(template, []string{"09:00", "10:00", "14:30"})
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}

func TestWeekdayOf(t *testing.T) {
	// 2026-09-14 is a Monday.
	if got := WeekdayOf(time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC)); got != Monday {
		t.Fatalf("got %s, want Monday", got)
	}
	if got := WeekdayOf(time.Date(2026, time.September, 13, 0, 0, 0, 0, time.UTC)); got != Sunday {
		t.Fatalf("got %s, want Sunday", got)
	}
}

func TestParseWeekday(t *testing.T) {
	for _, in := range []string{"Monday", "monday", "MONDAY", " monday "} {
		day, ok := ParseWeekday(in)
		if !ok || day != Monday {
			t.Fatalf("ParseWeekday(%q) = %q, %v", in, day, ok)
		}
	}
	if _, ok := ParseWeekday("funday"); ok {
		t.Fatal("ParseWeekday accepted an unknown day")
	}
}
