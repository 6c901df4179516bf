package planner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tripcanvas/tripcanvas/pkg/logger"
	"github.com/tripcanvas/tripcanvas/pkg/trip"
)

const hotelCardImage = "https://images.unsplash.com/photo-1566073771259-6a8506099945?auto=format&fit=crop&w=400"

const (
	warnNoFlights    = "No live flight offers were returned from Amadeus for this query."
	warnNoHotels     = "No live hotel offers were returned from Amadeus for this query."
	warnNoActivities = "No live activities were returned from Amadeus for this query."
)

// Provider is the upstream travel-supply API. Offers come back without ids
// or scores; the service assigns both. A nil provider means offline mode:
// every search yields empty supply plus warnings.
type Provider interface {
	ResolveLocation(ctx context.Context, keyword string) (*ResolvedLocation, error)
	SearchFlights(ctx context.Context, origin, destination, departureDate string) ([]FlightOffer, error)
	SearchHotels(ctx context.Context, cityCode, checkIn, checkOut string, adults int) ([]HotelOffer, error)
	SearchActivities(ctx context.Context, lat, lng float64) ([]ActivityOffer, error)
}

// Service runs travel searches and assembles widget-ready trip data. Search
// results and saved itineraries are held in memory, keyed by request id.
type Service struct {
	provider Provider

	mu          sync.RWMutex
	searches    map[string]*SearchResponse
	itineraries map[string]*SaveItineraryRequest

	now func() time.Time
}

func NewService(provider Provider) *Service {
	return &Service{
		provider:    provider,
		searches:    make(map[string]*SearchResponse),
		itineraries: make(map[string]*SaveItineraryRequest),
		now:         time.Now,
	}
}

// DefaultDepartureDate is 30 days out, the value used when a tool call
// omits the date.
func (s *Service) DefaultDepartureDate() string {
	return s.now().UTC().AddDate(0, 0, 30).Format("2006-01-02")
}

// BuildTripRequest assembles a single-adult request for the given stay.
func (s *Service) BuildTripRequest(originIATA, destinationCity, destinationIATA, departureDate string, days int) TripRequest {
	if days < 1 {
		days = 1
	}
	start, err := time.Parse("2006-01-02", departureDate)
	if err != nil {
		start = s.now().UTC().AddDate(0, 0, 30)
	}
	end := start.AddDate(0, 0, days-1)
	return TripRequest{
		Origin:      Location{IATA: originIATA, City: originIATA},
		Destination: Location{IATA: destinationIATA, City: destinationCity},
		Dates: DateRange{
			StartDate: start.Format("2006-01-02"),
			EndDate:   end.Format("2006-01-02"),
		},
		Travelers: Traveler{Adults: 1},
	}
}

// SearchTravel resolves the destination, queries the provider for flights,
// hotels and activities, and stores the response under a fresh request id.
// Missing supply degrades to warnings, never to an error.
func (s *Service) SearchTravel(ctx context.Context, req TripRequest) (*SearchResponse, error) {
	requestID := uuid.NewString()
	destinationIATA := strings.ToUpper(req.Destination.IATA)
	originIATA := strings.ToUpper(req.Origin.IATA)
	if originIATA == "" {
		originIATA = "LON"
	}
	destinationName := req.Destination.City
	if destinationName == "" {
		destinationName = destinationIATA
	}
	if destinationName == "" {
		destinationName = "Destination"
	}
	warnings := []string{}

	if destinationIATA == "" {
		loc := s.resolveLocation(ctx, destinationName)
		if loc != nil && loc.IATA != "" {
			destinationIATA = strings.ToUpper(loc.IATA)
		} else if fallback := fallbackIATAForCity(destinationName); fallback != "" {
			destinationIATA = fallback
			warnings = append(warnings, fmt.Sprintf(
				"Resolved destination '%s' using fallback IATA '%s'.", destinationName, destinationIATA))
		} else {
			warnings = append(warnings, fmt.Sprintf(
				"Could not resolve destination IATA for '%s'. Set destination.iata explicitly for better provider matches.",
				destinationName))
		}
	}

	response := &SearchResponse{
		RequestID:   requestID,
		FreshnessTS: s.now().UTC().Format(time.RFC3339),
		Flights:     []FlightOffer{},
		Hotels:      []HotelOffer{},
		Activities:  []ActivityOffer{},
		Warnings:    warnings,
	}

	if destinationIATA == "" {
		s.storeSearch(response)
		s.logSearch(response, destinationName, "")
		return response, nil
	}

	for idx, offer := range s.searchFlights(ctx, originIATA, destinationIATA, req.Dates.StartDate) {
		offer.ID = fmt.Sprintf("flight_%s_%d", requestID, idx)
		offer.Provider = "amadeus"
		offer.BookingMode = "redirect"
		offer.Score = scoreByRank(95.0, 5.0, idx)
		response.Flights = append(response.Flights, offer)
	}
	if len(response.Flights) == 0 {
		response.Warnings = append(response.Warnings, warnNoFlights)
	}

	for idx, offer := range s.searchHotels(ctx, destinationIATA, req.Dates.StartDate, req.Dates.EndDate, req.Travelers.Adults) {
		offer.ID = fmt.Sprintf("hotel_%s_%d", requestID, idx)
		offer.Provider = "expedia_rapid"
		if offer.Location == nil {
			offer.Location = &HotelLocation{}
		}
		offer.Location.Area = destinationName
		if offer.StarRating != nil {
			offer.Score = *offer.StarRating * 20.0
		} else {
			offer.Score = scoreByRank(88.0, 4.0, idx)
		}
		response.Hotels = append(response.Hotels, offer)
	}
	if len(response.Hotels) == 0 {
		response.Warnings = append(response.Warnings, warnNoHotels)
	}

	lat, lng := req.Destination.Lat, req.Destination.Lng
	if lat == nil || lng == nil {
		if loc := s.resolveLocation(ctx, destinationName); loc != nil {
			lat, lng = loc.Latitude, loc.Longitude
		}
	}
	if lat != nil && lng != nil {
		for idx, offer := range s.searchActivities(ctx, *lat, *lng) {
			offer.ID = fmt.Sprintf("activity_%s_%d", requestID, idx)
			offer.Provider = "viator"
			offer.MeetingPoint = destinationName
			if offer.Rating != nil {
				offer.Score = *offer.Rating * 20.0
			} else {
				offer.Score = scoreByRank(86.0, 3.0, idx)
			}
			response.Activities = append(response.Activities, offer)
		}
	}
	if len(response.Activities) == 0 {
		response.Warnings = append(response.Warnings, warnNoActivities)
	}

	s.storeSearch(response)
	s.logSearch(response, destinationName, destinationIATA)
	return response, nil
}

// RefineResults filters a stored search in place. An unknown request id
// yields an empty response with a warning rather than an error.
func (s *Service) RefineResults(ctx context.Context, req RefineRequest) (*SearchResponse, error) {
	s.mu.RLock()
	existing := s.searches[req.RequestID]
	s.mu.RUnlock()

	if existing == nil {
		return &SearchResponse{
			RequestID:   req.RequestID,
			FreshnessTS: s.now().UTC().Format(time.RFC3339),
			Flights:     []FlightOffer{},
			Hotels:      []HotelOffer{},
			Activities:  []ActivityOffer{},
			Warnings:    []string{"Unknown request_id. Run /v1/search_travel first."},
		}, nil
	}

	flights := existing.Flights
	hotels := existing.Hotels
	activities := existing.Activities

	if req.Filters.MaxPrice != nil {
		max := req.Filters.MaxPrice.Amount
		flights = filterFlights(flights, func(f FlightOffer) bool { return f.TotalPrice.Amount <= max })
		hotels = filterHotels(hotels, func(h HotelOffer) bool { return h.TotalPrice.Amount <= max })
		activities = filterActivities(activities, func(a ActivityOffer) bool { return a.TotalPrice.Amount <= max })
	}
	if len(req.Filters.AirlineWhitelist) > 0 {
		allowed := make(map[string]bool, len(req.Filters.AirlineWhitelist))
		for _, carrier := range req.Filters.AirlineWhitelist {
			allowed[strings.ToUpper(carrier)] = true
		}
		flights = filterFlights(flights, func(f FlightOffer) bool {
			return len(f.Segments) > 0 && allowed[strings.ToUpper(f.Segments[0].Carrier)]
		})
	}
	if req.Filters.RefundableOnly != nil && *req.Filters.RefundableOnly {
		flights = filterFlights(flights, func(f FlightOffer) bool { return f.Refundable != nil && *f.Refundable })
		hotels = filterHotels(hotels, func(h HotelOffer) bool { return h.Refundable != nil && *h.Refundable })
	}
	if req.Filters.HotelStarsMin > 0 {
		min := float64(req.Filters.HotelStarsMin)
		hotels = filterHotels(hotels, func(h HotelOffer) bool { return h.StarRating != nil && *h.StarRating >= min })
	}

	refined := &SearchResponse{
		RequestID:   existing.RequestID,
		FreshnessTS: s.now().UTC().Format(time.RFC3339),
		Flights:     flights,
		Hotels:      hotels,
		Activities:  activities,
		Warnings:    existing.Warnings,
	}
	s.storeSearch(refined)
	return refined, nil
}

// StartBooking hands off to the provider's redirect flow.
func (s *Service) StartBooking(ctx context.Context, req StartBookingRequest) (*StartBookingResponse, error) {
	return &StartBookingResponse{
		Status:        "ready",
		BookingMode:   "redirect",
		BookingURL:    fmt.Sprintf("https://www.tripcanvas.site/booking/%s/%s", req.OfferType, req.OfferID),
		MissingFields: []string{},
	}, nil
}

func (s *Service) SaveItinerary(ctx context.Context, req SaveItineraryRequest) (*SaveItineraryResponse, error) {
	itineraryID := uuid.NewString()
	s.mu.Lock()
	s.itineraries[itineraryID] = &req
	s.mu.Unlock()
	return &SaveItineraryResponse{ItineraryID: itineraryID}, nil
}

func (s *Service) SavedItinerary(itineraryID string) *SaveItineraryRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itineraries[itineraryID]
}

func (s *Service) PolicySummary(ctx context.Context, offerID string) (*PolicySummary, error) {
	return &PolicySummary{
		OfferID:       offerID,
		Refundable:    true,
		PolicySummary: "Free cancellation within 24 hours, then provider policy applies.",
	}, nil
}

func (s *Service) storeSearch(response *SearchResponse) {
	s.mu.Lock()
	s.searches[response.RequestID] = response
	s.mu.Unlock()
}

func (s *Service) logSearch(response *SearchResponse, destination, iata string) {
	logger.InfoCF("planner", "Travel search completed", map[string]interface{}{
		"request_id":  response.RequestID,
		"destination": destination,
		"iata":        iata,
		"flights":     len(response.Flights),
		"hotels":      len(response.Hotels),
		"activities":  len(response.Activities),
		"warnings":    len(response.Warnings),
	})
}

func (s *Service) resolveLocation(ctx context.Context, keyword string) *ResolvedLocation {
	if s.provider == nil || keyword == "" {
		return nil
	}
	loc, err := s.provider.ResolveLocation(ctx, keyword)
	if err != nil {
		logger.WarnCF("planner", "Location lookup failed", map[string]interface{}{
			"keyword": keyword,
			"error":   err.Error(),
		})
		return nil
	}
	return loc
}

func (s *Service) searchFlights(ctx context.Context, origin, destination, date string) []FlightOffer {
	if s.provider == nil {
		return nil
	}
	offers, err := s.provider.SearchFlights(ctx, origin, destination, date)
	if err != nil {
		logger.WarnCF("planner", "Flight search failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return offers
}

func (s *Service) searchHotels(ctx context.Context, cityCode, checkIn, checkOut string, adults int) []HotelOffer {
	if s.provider == nil {
		return nil
	}
	offers, err := s.provider.SearchHotels(ctx, cityCode, checkIn, checkOut, adults)
	if err != nil {
		logger.WarnCF("planner", "Hotel search failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return offers
}

func (s *Service) searchActivities(ctx context.Context, lat, lng float64) []ActivityOffer {
	if s.provider == nil {
		return nil
	}
	offers, err := s.provider.SearchActivities(ctx, lat, lng)
	if err != nil {
		logger.WarnCF("planner", "Activity search failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return offers
}

func scoreByRank(base, step float64, idx int) float64 {
	score := base - float64(idx)*step
	if score < 1.0 {
		return 1.0
	}
	return score
}

func filterFlights(in []FlightOffer, keep func(FlightOffer) bool) []FlightOffer {
	out := make([]FlightOffer, 0, len(in))
	for _, offer := range in {
		if keep(offer) {
			out = append(out, offer)
		}
	}
	return out
}

func filterHotels(in []HotelOffer, keep func(HotelOffer) bool) []HotelOffer {
	out := make([]HotelOffer, 0, len(in))
	for _, offer := range in {
		if keep(offer) {
			out = append(out, offer)
		}
	}
	return out
}

func filterActivities(in []ActivityOffer, keep func(ActivityOffer) bool) []ActivityOffer {
	out := make([]ActivityOffer, 0, len(in))
	for _, offer := range in {
		if keep(offer) {
			out = append(out, offer)
		}
	}
	return out
}

// PlanTripArgs are the plan_trip tool inputs with their documented defaults.
type PlanTripArgs struct {
	Destination     string
	Origin          string
	Days            int
	DepartureDate   string
	DestinationIATA string
}

// PlanResult is a widget-ready trip plan plus the text summary shown in the
// conversation.
type PlanResult struct {
	Trip          *trip.TripData
	Summary       string
	Destination   string
	DepartureDate string
}

// PlanTrip runs a full search and assembles the card set the widget renders:
// up to three flight cards, the hotel list, and a day-by-day itinerary with
// two activities per day plus dinner.
func (s *Service) PlanTrip(ctx context.Context, args PlanTripArgs) (*PlanResult, error) {
	destinationName := args.Destination
	if destinationName == "" {
		destinationName = "Paris"
	}
	origin := strings.ToUpper(args.Origin)
	if origin == "" {
		origin = "LON"
	}
	days := args.Days
	if days <= 0 {
		days = 3
	}
	departureDate := args.DepartureDate
	if departureDate == "" {
		departureDate = s.DefaultDepartureDate()
	}
	destinationIATA := strings.ToUpper(args.DestinationIATA)

	if destinationIATA == "" {
		if loc := s.resolveLocation(ctx, destinationName); loc != nil {
			destinationIATA = strings.ToUpper(loc.IATA)
			if loc.Name != "" {
				destinationName = loc.Name
			}
		} else {
			destinationIATA = fallbackIATAForCity(destinationName)
		}
	}

	request := s.BuildTripRequest(origin, destinationName, destinationIATA, departureDate, days)
	response, err := s.SearchTravel(ctx, request)
	if err != nil {
		return nil, err
	}

	warnings := append([]string{}, response.Warnings...)

	var flightCards []trip.Flight
	for i, flight := range response.Flights {
		if i >= 3 {
			break
		}
		if len(flight.Segments) == 0 {
			continue
		}
		first := flight.Segments[0]
		last := flight.Segments[len(flight.Segments)-1]
		stops := len(flight.Segments) - 1
		flightCards = append(flightCards, trip.Flight{
			Route:            fmt.Sprintf("%s -> %s", first.From, last.To),
			Carrier:          first.Carrier,
			Price:            fmt.Sprintf("%s %s", flight.TotalPrice.Currency, groupThousands(flight.TotalPrice.Amount)),
			Stops:            &stops,
			JourneyDuration:  formatJourneyDuration(first.DepartAt, last.ArriveAt),
			AirTime:          flightAirTime(flight.Segments),
			RefundableStatus: refundableStatus(flight.Refundable),
		})
	}

	var hotelCards []trip.Hotel
	for _, hotel := range response.Hotels {
		rating := "N/A"
		if hotel.StarRating != nil {
			rating = fmt.Sprintf("%.1f", *hotel.StarRating)
		}
		hotelCards = append(hotelCards, trip.Hotel{
			Name:   hotel.HotelName,
			Image:  hotelCardImage,
			Price:  formatNightlyPrice(hotel.NightlyPrice, hotel.TotalPrice.Currency),
			Rating: rating,
		})
	}

	var activityPool []string
	seen := make(map[string]bool)
	for _, activity := range response.Activities {
		if !seen[activity.Title] {
			seen[activity.Title] = true
			activityPool = append(activityPool, activity.Title)
		}
	}
	if len(activityPool) == 0 {
		activityPool = fallbackActivitiesForCity(destinationName)
		filtered := warnings[:0]
		for _, w := range warnings {
			if w != warnNoActivities {
				filtered = append(filtered, w)
			}
		}
		warnings = append(filtered, fmt.Sprintf(
			"Live activities were unavailable, so curated fallback activities are shown for %s.", destinationName))
	}

	var itinerary []trip.DayPlan
	cursor := 0
	for day := 1; day <= days; day++ {
		var activities []string
		for slot := 0; slot < 2; slot++ {
			if cursor < len(activityPool) {
				activities = append(activities, activityPool[cursor])
				cursor++
			} else {
				activities = append(activities, fmt.Sprintf(
					"Self-guided exploration in %s (Day %d, stop %d)", destinationName, day, slot+1))
			}
		}
		activities = append(activities, "Dinner at a local restaurant")
		itinerary = append(itinerary, trip.DayPlan{Day: day, Activities: activities})
	}

	tripData := &trip.TripData{
		Destination: destinationName,
		Flights:     flightCards,
		Hotels:      hotelCards,
		Itinerary:   itinerary,
		Warnings:    warnings,
		RequestID:   response.RequestID,
	}
	if tripData.Flights == nil {
		tripData.Flights = []trip.Flight{}
	}
	if tripData.Hotels == nil {
		tripData.Hotels = []trip.Hotel{}
	}

	flightMsg := " (No direct flights found for this date)"
	if len(response.Flights) > 0 && len(response.Flights[0].Segments) > 0 {
		best := response.Flights[0]
		flightMsg = fmt.Sprintf(" Best flight found: %s->%s %.2f %s",
			best.Segments[0].From, best.Segments[0].To,
			best.TotalPrice.Amount, best.TotalPrice.Currency)
	}
	summary := fmt.Sprintf("I've planned a %d-day trip to %s starting %s!%s",
		days, destinationName, departureDate, flightMsg)

	return &PlanResult{
		Trip:          tripData,
		Summary:       summary,
		Destination:   destinationName,
		DepartureDate: departureDate,
	}, nil
}
