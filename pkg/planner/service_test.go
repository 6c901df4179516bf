package planner

import (
	"context"
	"strings"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

type fakeProvider struct {
	loc        *ResolvedLocation
	flights    []FlightOffer
	hotels     []HotelOffer
	activities []ActivityOffer
	err        error
}

func (p *fakeProvider) ResolveLocation(ctx context.Context, keyword string) (*ResolvedLocation, error) {
	return p.loc, p.err
}

func (p *fakeProvider) SearchFlights(ctx context.Context, origin, destination, departureDate string) ([]FlightOffer, error) {
	return p.flights, p.err
}

func (p *fakeProvider) SearchHotels(ctx context.Context, cityCode, checkIn, checkOut string, adults int) ([]HotelOffer, error) {
	return p.hotels, p.err
}

func (p *fakeProvider) SearchActivities(ctx context.Context, lat, lng float64) ([]ActivityOffer, error) {
	return p.activities, p.err
}

func sampleFlight() FlightOffer {
	return FlightOffer{
		TotalPrice: Money{Amount: 820.75, Currency: "USD"},
		Segments: []Segment{
			{From: "SFO", To: "DEN", DepartAt: "2026-10-01T09:00:00", ArriveAt: "2026-10-01T12:30:00", Carrier: "UA"},
			{From: "DEN", To: "NRT", DepartAt: "2026-10-01T14:00:00", ArriveAt: "2026-10-02T02:15:00", Carrier: "UA"},
		},
		Refundable: boolPtr(true),
	}
}

func sampleProvider() *fakeProvider {
	return &fakeProvider{
		loc: &ResolvedLocation{
			Name: "Tokyo", IATA: "TYO",
			Latitude: floatPtr(35.68), Longitude: floatPtr(139.69),
		},
		flights: []FlightOffer{sampleFlight()},
		hotels: []HotelOffer{{
			HotelName:    "Park Hyatt",
			StarRating:   floatPtr(4.8),
			TotalPrice:   Money{Amount: 1620, Currency: "USD"},
			NightlyPrice: &Money{Amount: 540, Currency: "USD"},
			Refundable:   boolPtr(true),
		}},
		activities: []ActivityOffer{
			{Title: "Tsukiji market tour", TotalPrice: Money{Amount: 40, Currency: "USD"}, Rating: floatPtr(4.6)},
			{Title: "Tsukiji market tour", TotalPrice: Money{Amount: 40, Currency: "USD"}},
			{Title: "Shibuya night walk", TotalPrice: Money{Amount: 25, Currency: "USD"}},
		},
	}
}

func TestSearchTravelAssignsIDsAndScores(t *testing.T) {
	s := NewService(sampleProvider())

	resp, err := s.SearchTravel(context.Background(), s.BuildTripRequest("SFO", "Tokyo", "", "2026-10-01", 3))
	if err != nil {
		t.Fatalf("SearchTravel failed: %v", err)
	}
	if resp.RequestID == "" {
		t.Fatal("missing request id")
	}
	if len(resp.Flights) != 1 || len(resp.Hotels) != 1 || len(resp.Activities) != 3 {
		t.Fatalf("unexpected supply: %d/%d/%d", len(resp.Flights), len(resp.Hotels), len(resp.Activities))
	}

	f := resp.Flights[0]
	if !strings.HasPrefix(f.ID, "flight_"+resp.RequestID) {
		t.Errorf("flight id not derived from request: %s", f.ID)
	}
	if f.Provider != "amadeus" || f.BookingMode != "redirect" || f.Score != 95.0 {
		t.Errorf("flight defaults not applied: %+v", f)
	}

	h := resp.Hotels[0]
	if h.Provider != "expedia_rapid" || h.Score != 4.8*20.0 {
		t.Errorf("hotel defaults not applied: %+v", h)
	}
	if h.Location == nil || h.Location.Area != "Tokyo" {
		t.Errorf("hotel area not set: %+v", h.Location)
	}

	a := resp.Activities[0]
	if a.Provider != "viator" || a.MeetingPoint != "Tokyo" || a.Score != 4.6*20.0 {
		t.Errorf("activity defaults not applied: %+v", a)
	}

	if len(resp.Warnings) != 0 {
		t.Errorf("no warnings expected with full supply, got %v", resp.Warnings)
	}
}

func TestSearchTravelOfflineFallbacks(t *testing.T) {
	s := NewService(nil)

	resp, err := s.SearchTravel(context.Background(), s.BuildTripRequest("LON", "Paris", "", "2026-10-01", 2))
	if err != nil {
		t.Fatalf("SearchTravel failed: %v", err)
	}
	if len(resp.Flights)+len(resp.Hotels)+len(resp.Activities) != 0 {
		t.Fatal("offline search must yield empty supply")
	}

	joined := strings.Join(resp.Warnings, "\n")
	if !strings.Contains(joined, "fallback IATA 'PAR'") {
		t.Errorf("expected fallback IATA warning, got %v", resp.Warnings)
	}
	for _, want := range []string{warnNoFlights, warnNoHotels, warnNoActivities} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing warning %q", want)
		}
	}
}

func TestSearchTravelUnresolvableDestination(t *testing.T) {
	s := NewService(nil)

	resp, err := s.SearchTravel(context.Background(), s.BuildTripRequest("LON", "Atlantis", "", "2026-10-01", 2))
	if err != nil {
		t.Fatalf("SearchTravel failed: %v", err)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "Could not resolve destination IATA") {
		t.Errorf("expected resolution warning only, got %v", resp.Warnings)
	}
}

func TestRefineResults(t *testing.T) {
	provider := sampleProvider()
	provider.flights = append(provider.flights, FlightOffer{
		TotalPrice: Money{Amount: 2400, Currency: "USD"},
		Segments:   []Segment{{From: "SFO", To: "NRT", Carrier: "NH"}},
	})
	s := NewService(provider)

	resp, err := s.SearchTravel(context.Background(), s.BuildTripRequest("SFO", "Tokyo", "TYO", "2026-10-01", 3))
	if err != nil {
		t.Fatalf("SearchTravel failed: %v", err)
	}

	refined, err := s.RefineResults(context.Background(), RefineRequest{
		RequestID: resp.RequestID,
		Filters:   RefineFilters{MaxPrice: &Money{Amount: 1000, Currency: "USD"}},
	})
	if err != nil {
		t.Fatalf("RefineResults failed: %v", err)
	}
	if len(refined.Flights) != 1 {
		t.Errorf("max price should drop the expensive flight, got %d", len(refined.Flights))
	}
	if len(refined.Hotels) != 0 {
		t.Errorf("max price should drop the 1620 hotel, got %d", len(refined.Hotels))
	}

	// Refinement is persisted under the same request id.
	again, _ := s.RefineResults(context.Background(), RefineRequest{RequestID: resp.RequestID})
	if len(again.Flights) != 1 {
		t.Errorf("refined results not stored, got %d flights", len(again.Flights))
	}
}

func TestRefineResultsAirlineWhitelist(t *testing.T) {
	s := NewService(sampleProvider())
	resp, _ := s.SearchTravel(context.Background(), s.BuildTripRequest("SFO", "Tokyo", "TYO", "2026-10-01", 3))

	refined, err := s.RefineResults(context.Background(), RefineRequest{
		RequestID: resp.RequestID,
		Filters:   RefineFilters{AirlineWhitelist: []string{"BA"}},
	})
	if err != nil {
		t.Fatalf("RefineResults failed: %v", err)
	}
	if len(refined.Flights) != 0 {
		t.Errorf("whitelist should drop UA flights, got %d", len(refined.Flights))
	}
}

func TestRefineResultsUnknownRequest(t *testing.T) {
	s := NewService(nil)
	resp, err := s.RefineResults(context.Background(), RefineRequest{RequestID: "nope"})
	if err != nil {
		t.Fatalf("RefineResults failed: %v", err)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "Unknown request_id") {
		t.Errorf("expected unknown request warning, got %v", resp.Warnings)
	}
}

func TestStartBooking(t *testing.T) {
	s := NewService(nil)
	resp, err := s.StartBooking(context.Background(), StartBookingRequest{
		OfferType: "hotel",
		OfferID:   "hotel_abc_0",
	})
	if err != nil {
		t.Fatalf("StartBooking failed: %v", err)
	}
	if resp.Status != "ready" || resp.BookingMode != "redirect" {
		t.Errorf("unexpected booking response: %+v", resp)
	}
	if resp.BookingURL != "https://www.tripcanvas.site/booking/hotel/hotel_abc_0" {
		t.Errorf("unexpected booking url: %s", resp.BookingURL)
	}
}

func TestSaveItinerary(t *testing.T) {
	s := NewService(nil)
	req := SaveItineraryRequest{
		TripRequest: s.BuildTripRequest("LON", "Paris", "PAR", "2026-10-01", 2),
		Items:       []ItineraryItem{{Type: "hotel", OfferID: "hotel_1", Day: 1}},
	}
	resp, err := s.SaveItinerary(context.Background(), req)
	if err != nil {
		t.Fatalf("SaveItinerary failed: %v", err)
	}
	if resp.ItineraryID == "" {
		t.Fatal("missing itinerary id")
	}
	saved := s.SavedItinerary(resp.ItineraryID)
	if saved == nil || len(saved.Items) != 1 {
		t.Errorf("itinerary not stored: %+v", saved)
	}
}

func TestPolicySummary(t *testing.T) {
	s := NewService(nil)
	summary, err := s.PolicySummary(context.Background(), "offer_1")
	if err != nil {
		t.Fatalf("PolicySummary failed: %v", err)
	}
	if summary.OfferID != "offer_1" || !summary.Refundable {
		t.Errorf("unexpected policy summary: %+v", summary)
	}
}

func TestPlanTripOffline(t *testing.T) {
	s := NewService(nil)

	result, err := s.PlanTrip(context.Background(), PlanTripArgs{Destination: "Paris", Days: 3})
	if err != nil {
		t.Fatalf("PlanTrip failed: %v", err)
	}
	data := result.Trip
	if data.Destination != "Paris" {
		t.Errorf("unexpected destination: %s", data.Destination)
	}
	if len(data.Flights) != 0 || len(data.Hotels) != 0 {
		t.Errorf("offline plan should have no flight or hotel cards")
	}
	if len(data.Itinerary) != 3 {
		t.Fatalf("expected 3 days, got %d", len(data.Itinerary))
	}
	for _, day := range data.Itinerary {
		if len(day.Activities) != 3 {
			t.Fatalf("each day has 2 activities plus dinner, got %v", day.Activities)
		}
		if day.Activities[2] != "Dinner at a local restaurant" {
			t.Errorf("day must end with dinner, got %q", day.Activities[2])
		}
	}
	// Curated Paris activities cover exactly 3 days x 2 slots.
	if data.Itinerary[0].Activities[0] != "Louvre Museum highlights" {
		t.Errorf("expected curated fallback activities, got %q", data.Itinerary[0].Activities[0])
	}

	joined := strings.Join(data.Warnings, "\n")
	if !strings.Contains(joined, "curated fallback activities are shown for Paris") {
		t.Errorf("missing fallback activities warning: %v", data.Warnings)
	}
	if strings.Contains(joined, warnNoActivities) {
		t.Error("raw no-activities warning should be replaced by the curated one")
	}

	if !strings.Contains(result.Summary, "3-day trip to Paris") {
		t.Errorf("unexpected summary: %s", result.Summary)
	}
	if !strings.Contains(result.Summary, "No direct flights found") {
		t.Errorf("summary should note missing flights: %s", result.Summary)
	}
}

func TestPlanTripCards(t *testing.T) {
	s := NewService(sampleProvider())

	result, err := s.PlanTrip(context.Background(), PlanTripArgs{Destination: "Tokyo", Days: 2})
	if err != nil {
		t.Fatalf("PlanTrip failed: %v", err)
	}
	data := result.Trip

	if len(data.Flights) != 1 {
		t.Fatalf("expected 1 flight card, got %d", len(data.Flights))
	}
	f := data.Flights[0]
	if f.Route != "SFO -> NRT" {
		t.Errorf("route spans first to last segment, got %q", f.Route)
	}
	if f.Stops == nil || *f.Stops != 1 {
		t.Errorf("two segments mean 1 stop, got %v", f.Stops)
	}
	if f.Price != "USD 821" {
		t.Errorf("price rounds to whole units, got %q", f.Price)
	}
	// 09:00 day 1 to 02:15 day 2 is 17h15m door to door.
	if f.JourneyDuration != "17h 15m" {
		t.Errorf("unexpected journey duration: %q", f.JourneyDuration)
	}
	// 3h30m + 12h15m in the air.
	if f.AirTime != "15h 45m" {
		t.Errorf("unexpected air time: %q", f.AirTime)
	}
	if f.RefundableStatus != "Refundable" {
		t.Errorf("unexpected refundable status: %q", f.RefundableStatus)
	}

	if len(data.Hotels) != 1 {
		t.Fatalf("expected 1 hotel card, got %d", len(data.Hotels))
	}
	h := data.Hotels[0]
	if h.Price != "$540/night" {
		t.Errorf("unexpected nightly price: %q", h.Price)
	}
	if h.Rating != "4.8" {
		t.Errorf("unexpected rating: %q", h.Rating)
	}

	// Duplicate activity titles are pooled once; the rest of the slots use
	// self-guided fills.
	first := data.Itinerary[0].Activities
	if first[0] != "Tsukiji market tour" || first[1] != "Shibuya night walk" {
		t.Errorf("unexpected day 1 activities: %v", first)
	}
	second := data.Itinerary[1].Activities
	if !strings.Contains(second[0], "Self-guided exploration in Tokyo") {
		t.Errorf("expected self-guided fill, got %v", second)
	}

	if data.RequestID == "" {
		t.Error("trip data should carry the search request id")
	}
	if !strings.Contains(result.Summary, "Best flight found: SFO->DEN 820.75 USD") {
		t.Errorf("unexpected summary: %s", result.Summary)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatNightlyPrice(nil, "USD"); got != "Check for rates" {
		t.Errorf("nil nightly price: %q", got)
	}
	if got := formatNightlyPrice(&Money{Amount: 1234.6}, "USD"); got != "$1,235/night" {
		t.Errorf("usd nightly price: %q", got)
	}
	if got := formatNightlyPrice(&Money{Amount: 200}, "EUR"); got != "EUR 200/night" {
		t.Errorf("eur nightly price: %q", got)
	}
	if got := formatNightlyPrice(&Money{Amount: 99}, "chf"); got != "CHF 99/night" {
		t.Errorf("other currency nightly price: %q", got)
	}

	if got := formatJourneyDuration("2026-10-01T09:00:00", "2026-10-01T16:45:00"); got != "7h 45m" {
		t.Errorf("journey duration: %q", got)
	}
	if got := formatJourneyDuration("2026-10-01T09:00:00", "2026-10-01T12:00:00"); got != "3h" {
		t.Errorf("whole-hour duration drops minutes: %q", got)
	}
	if got := formatJourneyDuration("garbage", "2026-10-01T12:00:00"); got != "" {
		t.Errorf("unparseable depart: %q", got)
	}
	if got := formatJourneyDuration("2026-10-01T12:00:00Z", "2026-10-01T09:00:00Z"); got != "" {
		t.Errorf("negative duration: %q", got)
	}

	if got := refundableStatus(nil); got != "Refundability unknown" {
		t.Errorf("nil refundable: %q", got)
	}
	if got := refundableStatus(boolPtr(false)); got != "Non-refundable" {
		t.Errorf("false refundable: %q", got)
	}

	if got := fallbackIATAForCity("  New York "); got != "NYC" {
		t.Errorf("iata fallback: %q", got)
	}
	if got := fallbackIATAForCity("Atlantis"); got != "" {
		t.Errorf("unknown city iata: %q", got)
	}

	acts := fallbackActivitiesForCity("Springfield")
	if len(acts) != 6 || !strings.Contains(acts[0], "Springfield") {
		t.Errorf("generic activity fallback: %v", acts)
	}
}
