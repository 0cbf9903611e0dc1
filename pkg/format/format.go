// Package format renders game numbers for display strings carried in
// event payloads and logs. The client renders locale-aware numbers on
// its own; these are the compact English forms shared across surfaces.
package format

import (
	"fmt"
	"math"
	"time"
)

type suffix struct {
	value float64
	label string
}

var suffixes = []suffix{
	{1e15, "Q"},
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Number renders a value with K/M/B/T/Q suffixes. Values under a
// thousand keep one decimal unless they are whole.
func Number(v float64) string {
	neg := ""
	if v < 0 {
		neg = "-"
		v = -v
	}
	for _, s := range suffixes {
		if v >= s.value {
			return neg + trimZero(fmt.Sprintf("%.2f", v/s.value)) + s.label
		}
	}
	if v == math.Trunc(v) {
		return neg + fmt.Sprintf("%.0f", v)
	}
	return neg + fmt.Sprintf("%.1f", v)
}

// Multiplier renders a multiplier like "x2.5", dropping the decimal
// for whole multiples.
func Multiplier(v float64) string {
	return "x" + trimZero(fmt.Sprintf("%.2f", v))
}

// Percent renders a [0,1] fraction as a whole percentage.
func Percent(fraction float64) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return fmt.Sprintf("%.0f%%", fraction*100)
}

// Duration renders a duration compactly, keeping the two largest
// units: "2d 4h", "3h 12m", "45s".
func Duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd %dh", days, int(d.Hours())%24)
}

// Ordinal renders 1 as "1st", 2 as "2nd" and so on, with the 11..13
// exception.
func Ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func trimZero(s string) string {
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
