package format

import (
	"testing"
	"time"
)

func TestNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{12.5, "12.5"},
		{-42, "-42"},
		{1000, "1K"},
		{1500, "1.5K"},
		{1234567, "1.23M"},
		{2.5e9, "2.5B"},
		{7e12, "7T"},
		{3.21e15, "3.21Q"},
		{-1500000, "-1.5M"},
	}
	for _, tc := range cases {
		if got := Number(tc.in); got != tc.want {
			t.Errorf("Number(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMultiplierAndPercent(t *testing.T) {
	if got := Multiplier(2.0); got != "x2" {
		t.Errorf("Multiplier(2.0) = %q, want x2", got)
	}
	if got := Multiplier(2.5); got != "x2.5" {
		t.Errorf("Multiplier(2.5) = %q, want x2.5", got)
	}
	if got := Percent(0.256); got != "26%" {
		t.Errorf("Percent(0.256) = %q, want 26%%", got)
	}
	if got := Percent(1.7); got != "100%" {
		t.Errorf("Percent above one = %q, want 100%%", got)
	}
}

func TestDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{3*time.Minute + 12*time.Second, "3m 12s"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
		{26 * time.Hour, "1d 2h"},
		{-time.Minute, "0s"},
	}
	for _, tc := range cases {
		if got := Duration(tc.in); got != tc.want {
			t.Errorf("Duration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th",
		11: "11th", 12: "12th", 13: "13th",
		21: "21st", 102: "102nd", 111: "111th",
	}
	for in, want := range cases {
		if got := Ordinal(in); got != want {
			t.Errorf("Ordinal(%d) = %q, want %q", in, got, want)
		}
	}
}
