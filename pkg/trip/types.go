package trip

// DefaultDestination is shown when the host payload carries no destination.
const DefaultDestination = "Trip"

// TripData is the canonical shape every data source is normalized into and
// the only thing the renderer understands. Missing fields take defaults; the
// shape is never rejected outright.
type TripData struct {
	Destination string    `json:"destination"`
	Flights     []Flight  `json:"flights"`
	Hotels      []Hotel   `json:"hotels"`
	Itinerary   []DayPlan `json:"itinerary"`
	Warnings    []string  `json:"warnings"`
	RequestID   string    `json:"request_id,omitempty"`
}

type Flight struct {
	Route            string `json:"route,omitempty"`
	Carrier          string `json:"carrier,omitempty"`
	Price            string `json:"price,omitempty"`
	RefundableStatus string `json:"refundable_status,omitempty"`
	Stops            *int   `json:"stops,omitempty"`
	JourneyDuration  string `json:"journey_duration,omitempty"`
	AirTime          string `json:"air_time,omitempty"`
}

type Hotel struct {
	Name   string `json:"name,omitempty"`
	Image  string `json:"image,omitempty"`
	Price  string `json:"price,omitempty"`
	Rating string `json:"rating,omitempty"`
}

type DayPlan struct {
	Day        int      `json:"day"`
	Activities []string `json:"activities"`
}

// Equal reports structural equality, field by field. RequestID is excluded:
// two responses carrying the same content under different request ids render
// identically and must not trigger a repaint.
func (t *TripData) Equal(other *TripData) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Destination != other.Destination {
		return false
	}
	if len(t.Flights) != len(other.Flights) ||
		len(t.Hotels) != len(other.Hotels) ||
		len(t.Itinerary) != len(other.Itinerary) ||
		len(t.Warnings) != len(other.Warnings) {
		return false
	}
	for i := range t.Flights {
		if !t.Flights[i].equal(&other.Flights[i]) {
			return false
		}
	}
	for i := range t.Hotels {
		if t.Hotels[i] != other.Hotels[i] {
			return false
		}
	}
	for i := range t.Itinerary {
		if !t.Itinerary[i].equal(&other.Itinerary[i]) {
			return false
		}
	}
	for i := range t.Warnings {
		if t.Warnings[i] != other.Warnings[i] {
			return false
		}
	}
	return true
}

func (f *Flight) equal(other *Flight) bool {
	if f.Route != other.Route ||
		f.Carrier != other.Carrier ||
		f.Price != other.Price ||
		f.RefundableStatus != other.RefundableStatus ||
		f.JourneyDuration != other.JourneyDuration ||
		f.AirTime != other.AirTime {
		return false
	}
	if (f.Stops == nil) != (other.Stops == nil) {
		return false
	}
	if f.Stops != nil && *f.Stops != *other.Stops {
		return false
	}
	return true
}

func (d *DayPlan) equal(other *DayPlan) bool {
	if d.Day != other.Day || len(d.Activities) != len(other.Activities) {
		return false
	}
	for i := range d.Activities {
		if d.Activities[i] != other.Activities[i] {
			return false
		}
	}
	return true
}
