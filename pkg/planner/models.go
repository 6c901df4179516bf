package planner

// Money is an amount in a named currency. Amounts are kept as floats to
// match the upstream offer feeds.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type Traveler struct {
	Adults       int   `json:"adults"`
	ChildrenAges []int `json:"children_ages,omitempty"`
}

type Location struct {
	IATA    string   `json:"iata,omitempty"`
	City    string   `json:"city,omitempty"`
	Country string   `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

type TripPreferences struct {
	CabinClass         string   `json:"cabin_class,omitempty"`
	HotelStarsMin      int      `json:"hotel_stars_min,omitempty"`
	MaxStops           *int     `json:"max_stops,omitempty"`
	RefundableOnly     *bool    `json:"refundable_only,omitempty"`
	ActivityCategories []string `json:"activity_categories,omitempty"`
}

type TripRequest struct {
	Origin      Location         `json:"origin"`
	Destination Location         `json:"destination"`
	Dates       DateRange        `json:"dates"`
	Travelers   Traveler         `json:"travelers"`
	Budget      *Money           `json:"budget,omitempty"`
	Preferences *TripPreferences `json:"preferences,omitempty"`
}

type Segment struct {
	From         string `json:"from"`
	To           string `json:"to"`
	DepartAt     string `json:"depart_at"`
	ArriveAt     string `json:"arrive_at"`
	Carrier      string `json:"carrier"`
	FlightNumber string `json:"flight_number,omitempty"`
}

type FlightOffer struct {
	ID               string    `json:"id"`
	Provider         string    `json:"provider"`
	TotalPrice       Money     `json:"total_price"`
	Segments         []Segment `json:"segments"`
	BaggageSummary   string    `json:"baggage_summary,omitempty"`
	FareRulesSummary string    `json:"fare_rules_summary,omitempty"`
	Refundable       *bool     `json:"refundable,omitempty"`
	BookingMode      string    `json:"booking_mode"`
	BookingURL       string    `json:"booking_url,omitempty"`
	Score            float64   `json:"score"`
}

type HotelLocation struct {
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
	Area string   `json:"area,omitempty"`
}

type HotelOffer struct {
	ID                        string         `json:"id"`
	Provider                  string         `json:"provider"`
	HotelName                 string         `json:"hotel_name"`
	StarRating                *float64       `json:"star_rating,omitempty"`
	TotalPrice                Money          `json:"total_price"`
	NightlyPrice              *Money         `json:"nightly_price,omitempty"`
	CancellationPolicySummary string         `json:"cancellation_policy_summary,omitempty"`
	Refundable                *bool          `json:"refundable,omitempty"`
	Location                  *HotelLocation `json:"location,omitempty"`
	Amenities                 []string       `json:"amenities,omitempty"`
	BookingURL                string         `json:"booking_url,omitempty"`
	Score                     float64        `json:"score"`
}

type ActivityOffer struct {
	ID                        string   `json:"id"`
	Provider                  string   `json:"provider"`
	Title                     string   `json:"title"`
	DurationMinutes           *int     `json:"duration_minutes,omitempty"`
	TotalPrice                Money    `json:"total_price"`
	Rating                    *float64 `json:"rating,omitempty"`
	RatingCount               *int     `json:"rating_count,omitempty"`
	CancellationPolicySummary string   `json:"cancellation_policy_summary,omitempty"`
	MeetingPoint              string   `json:"meeting_point,omitempty"`
	BookingURL                string   `json:"booking_url,omitempty"`
	Score                     float64  `json:"score"`
}

type SearchResponse struct {
	RequestID   string          `json:"request_id"`
	FreshnessTS string          `json:"freshness_ts"`
	Flights     []FlightOffer   `json:"flights"`
	Hotels      []HotelOffer    `json:"hotels"`
	Activities  []ActivityOffer `json:"activities"`
	Warnings    []string        `json:"warnings"`
}

type RefineFilters struct {
	MaxPrice           *Money   `json:"max_price,omitempty"`
	AirlineWhitelist   []string `json:"airline_whitelist,omitempty"`
	HotelStarsMin      int      `json:"hotel_stars_min,omitempty"`
	RefundableOnly     *bool    `json:"refundable_only,omitempty"`
	ActivityCategories []string `json:"activity_categories,omitempty"`
}

type RefineRequest struct {
	RequestID string        `json:"request_id"`
	Filters   RefineFilters `json:"filters"`
}

type TravelerContact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type StartBookingRequest struct {
	OfferType       string           `json:"offer_type"`
	OfferID         string           `json:"offer_id"`
	TravelerContact *TravelerContact `json:"traveler_contact,omitempty"`
}

type StartBookingResponse struct {
	Status          string   `json:"status"`
	BookingMode     string   `json:"booking_mode"`
	BookingURL      string   `json:"booking_url,omitempty"`
	ProviderOrderID string   `json:"provider_order_id,omitempty"`
	MissingFields   []string `json:"missing_fields"`
}

type ItineraryItem struct {
	Type      string `json:"type"`
	OfferID   string `json:"offer_id"`
	Day       int    `json:"day"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type SaveItineraryRequest struct {
	TripRequest TripRequest     `json:"trip_request"`
	Items       []ItineraryItem `json:"items"`
}

type SaveItineraryResponse struct {
	ItineraryID string `json:"itinerary_id"`
}

type PolicySummary struct {
	OfferID       string `json:"offer_id"`
	Refundable    bool   `json:"refundable"`
	PolicySummary string `json:"policy_summary"`
}

// ResolvedLocation is what a location lookup yields: a display name, IATA
// code and coordinates, any of which may be missing.
type ResolvedLocation struct {
	Name      string
	IATA      string
	Latitude  *float64
	Longitude *float64
}
