package trip

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// Normalize extracts canonical trip data from a raw host payload. Hosts have
// wrapped the data under several envelope conventions over time; they are
// checked in a fixed order and the first match wins:
//
//  1. payload.structuredContent
//  2. payload.structured_content
//  3. payload.output.structuredContent
//  4. payload itself
//
// A nil raw value returns nil. Anything else returns a TripData with every
// sequence field present, coercing wrong-typed fields to their defaults
// rather than failing.
func Normalize(raw interface{}) *TripData {
	if raw == nil {
		return nil
	}

	if t, ok := raw.(*TripData); ok {
		if t == nil {
			return nil
		}
		return normalizeTyped(t)
	}
	if t, ok := raw.(TripData); ok {
		return normalizeTyped(&t)
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}

	candidate := unwrap(obj)
	return coerce(candidate)
}

// DecodeURLPayload decodes the ?data= development fallback: a URL-encoded,
// JSON-encoded object carried in the page query string. Any decoding failure
// yields nil; this source is best effort.
func DecodeURLPayload(query string) *TripData {
	if query == "" {
		return nil
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return nil
	}
	encoded := values.Get("data")
	if encoded == "" {
		return nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
		return nil
	}
	return Normalize(raw)
}

func unwrap(obj map[string]interface{}) map[string]interface{} {
	if sc, ok := obj["structuredContent"].(map[string]interface{}); ok {
		return sc
	}
	if sc, ok := obj["structured_content"].(map[string]interface{}); ok {
		return sc
	}
	if out, ok := obj["output"].(map[string]interface{}); ok {
		if sc, ok := out["structuredContent"].(map[string]interface{}); ok {
			return sc
		}
	}
	return obj
}

func normalizeTyped(t *TripData) *TripData {
	out := *t
	if out.Destination == "" {
		out.Destination = DefaultDestination
	}
	if out.Flights == nil {
		out.Flights = []Flight{}
	}
	if out.Hotels == nil {
		out.Hotels = []Hotel{}
	}
	if out.Itinerary == nil {
		out.Itinerary = []DayPlan{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return &out
}

func coerce(obj map[string]interface{}) *TripData {
	t := &TripData{
		Destination: DefaultDestination,
		Flights:     []Flight{},
		Hotels:      []Hotel{},
		Itinerary:   []DayPlan{},
		Warnings:    []string{},
	}

	if dest := asString(obj["destination"]); dest != "" {
		t.Destination = dest
	}
	t.RequestID = asString(obj["request_id"])

	if items, ok := obj["flights"].([]interface{}); ok {
		for _, item := range items {
			f, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			flight := Flight{
				Route:            asString(f["route"]),
				Carrier:          asString(f["carrier"]),
				Price:            asString(f["price"]),
				RefundableStatus: asString(f["refundable_status"]),
				JourneyDuration:  asString(f["journey_duration"]),
				AirTime:          asString(f["air_time"]),
			}
			if stops, ok := asInt(f["stops"]); ok {
				flight.Stops = &stops
			}
			t.Flights = append(t.Flights, flight)
		}
	}

	if items, ok := obj["hotels"].([]interface{}); ok {
		for _, item := range items {
			h, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			t.Hotels = append(t.Hotels, Hotel{
				Name:   asString(h["name"]),
				Image:  asString(h["image"]),
				Price:  asString(h["price"]),
				Rating: asString(h["rating"]),
			})
		}
	}

	if items, ok := obj["itinerary"].([]interface{}); ok {
		for _, item := range items {
			d, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			plan := DayPlan{Activities: []string{}}
			if day, ok := asInt(d["day"]); ok {
				plan.Day = day
			}
			if acts, ok := d["activities"].([]interface{}); ok {
				for _, a := range acts {
					if s := asString(a); s != "" {
						plan.Activities = append(plan.Activities, s)
					}
				}
			}
			t.Itinerary = append(t.Itinerary, plan)
		}
	}

	if items, ok := obj["warnings"].([]interface{}); ok {
		for _, item := range items {
			if s := asString(item); s != "" {
				t.Warnings = append(t.Warnings, s)
			}
		}
	}

	return t
}

// asString tolerates hosts that send numbers where strings are expected,
// such as a numeric rating or price.
func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == math.Trunc(val) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func asInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), true
	case int:
		return val, true
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return n, true
		}
	}
	return 0, false
}
