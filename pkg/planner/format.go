package planner

import (
	"fmt"
	"strings"
	"time"
)

func currencySymbol(currency string) string {
	switch strings.ToUpper(currency) {
	case "USD":
		return "$"
	case "EUR":
		return "EUR "
	case "GBP":
		return "GBP "
	case "JPY":
		return "JPY "
	case "":
		return "CUR "
	default:
		return strings.ToUpper(currency) + " "
	}
}

func formatNightlyPrice(nightly *Money, currency string) string {
	if nightly == nil {
		return "Check for rates"
	}
	return fmt.Sprintf("%s%s/night", currencySymbol(currency), groupThousands(nightly.Amount))
}

// groupThousands renders a rounded amount with comma separators, e.g. 1234.6
// becomes "1,235".
func groupThousands(amount float64) string {
	s := fmt.Sprintf("%.0f", amount)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

func parseISODatetime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	normalized := strings.Replace(value, "Z", "+00:00", 1)
	for _, layout := range []string{
		"2006-01-02T15:04:05-07:00",
		"2006-01-02T15:04:05.999999-07:00",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatJourneyDuration returns "7h 45m" (or "7h") for the elapsed time
// between two ISO timestamps, empty when unparseable or non-positive.
func formatJourneyDuration(departAt, arriveAt string) string {
	depart, ok := parseISODatetime(departAt)
	if !ok {
		return ""
	}
	arrive, ok := parseISODatetime(arriveAt)
	if !ok {
		return ""
	}
	totalMinutes := int(arrive.Sub(depart).Minutes())
	if totalMinutes <= 0 {
		return ""
	}
	return formatMinutes(totalMinutes)
}

func formatMinutes(totalMinutes int) string {
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// flightAirTime sums per-segment durations, skipping unparseable segments.
func flightAirTime(segments []Segment) string {
	total := 0
	for _, seg := range segments {
		depart, ok := parseISODatetime(seg.DepartAt)
		if !ok {
			continue
		}
		arrive, ok := parseISODatetime(seg.ArriveAt)
		if !ok {
			continue
		}
		minutes := int(arrive.Sub(depart).Minutes())
		if minutes > 0 {
			total += minutes
		}
	}
	if total <= 0 {
		return ""
	}
	return formatMinutes(total)
}

func refundableStatus(refundable *bool) string {
	switch {
	case refundable == nil:
		return "Refundability unknown"
	case *refundable:
		return "Refundable"
	default:
		return "Non-refundable"
	}
}
