package render

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/tripcanvas/tripcanvas/pkg/trip"
)

func intPtr(n int) *int { return &n }

func TestRenderNoMount(t *testing.T) {
	r := NewHTML(func() io.Writer { return nil })
	err := r.Render(&trip.TripData{Destination: "Kyoto"})
	if !errors.Is(err, ErrNoMount) {
		t.Fatalf("expected ErrNoMount, got %v", err)
	}
}

func TestRenderEmptyState(t *testing.T) {
	var buf bytes.Buffer
	r := NewHTML(func() io.Writer { return &buf })

	if err := r.Render(nil); err != nil {
		t.Fatalf("Render(nil) failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Waiting for trip data") {
		t.Errorf("empty state missing: %s", buf.String())
	}
}

func TestRenderFullTrip(t *testing.T) {
	var buf bytes.Buffer
	r := NewHTML(func() io.Writer { return &buf })

	data := &trip.TripData{
		Destination: "Tokyo",
		Flights: []trip.Flight{{
			Route:            "SFO -> NRT",
			Carrier:          "ANA",
			Price:            "USD 820.00",
			Stops:            intPtr(1),
			JourneyDuration:  "12h 30m",
			AirTime:          "10h 55m",
			RefundableStatus: "Refundable",
		}},
		Hotels: []trip.Hotel{{
			Name:   "Park Hyatt",
			Image:  "https://example.com/hotel.jpg",
			Price:  "USD 540/night",
			Rating: "4.8",
		}},
		Itinerary: []trip.DayPlan{
			{Day: 1, Activities: []string{"Tsukiji market", "Senso-ji"}},
		},
		Warnings: []string{"Live rates unavailable, showing samples."},
	}

	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"Tokyo",
		"SFO -&gt; NRT",
		"ANA",
		"1 stop",
		"12h 30m",
		"10h 55m in air",
		"Refundable",
		"Park Hyatt",
		"USD 540/night",
		"4.8",
		"Day 1",
		"Tsukiji market",
		"Live rates unavailable",
		"Book this trip",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderDegradesGracefully(t *testing.T) {
	var buf bytes.Buffer
	r := NewHTML(func() io.Writer { return &buf })

	data := &trip.TripData{
		Destination: "Lisbon",
		Hotels:      []trip.Hotel{{Name: "Alfama Stay"}},
		Flights:     []trip.Flight{{Route: "LHR -> LIS"}},
	}

	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	html := buf.String()
	// The template escapes the & in the query string.
	if !strings.Contains(html, "https://images.unsplash.com/photo-1488646953014-85cb44e25828?w=640&amp;q=60") {
		t.Error("missing hotel image should use the placeholder")
	}
	if !strings.Contains(html, "Check for rates") {
		t.Error("missing hotel price should read Check for rates")
	}
	if strings.Contains(html, `class="rating"`) {
		t.Error("missing rating must be omitted, not rendered empty")
	}
	if strings.Contains(html, `class="stops"`) {
		t.Error("missing stops must be omitted")
	}
}

func TestStopsLabel(t *testing.T) {
	cases := []struct {
		stops *int
		want  string
	}{
		{nil, ""},
		{intPtr(0), "Nonstop"},
		{intPtr(1), "1 stop"},
		{intPtr(2), "2 stops"},
	}
	for _, c := range cases {
		if got := stopsLabel(c.stops); got != c.want {
			t.Errorf("stopsLabel(%v) = %q, want %q", c.stops, got, c.want)
		}
	}
}
