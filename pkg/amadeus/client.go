package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/tripcanvas/tripcanvas/pkg/logger"
	"github.com/tripcanvas/tripcanvas/pkg/planner"
)

const (
	defaultBaseURL = "https://test.api.amadeus.com"

	defaultMaxFlights  = 3
	defaultMaxHotels   = 5
	defaultMaxHotelIDs = 20
	defaultMaxActs     = 8
)

// Config carries the self-service API credentials. Tokens are fetched and
// refreshed through the standard client-credentials flow.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration

	MaxFlights    int
	MaxHotels     int
	MaxActivities int
}

// Client talks to the Amadeus self-service APIs and maps responses into
// planner offers. It satisfies planner.Provider.
type Client struct {
	baseURL string
	http    *http.Client

	maxFlights    int
	maxHotels     int
	maxActivities int
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("amadeus credentials missing")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + "/v1/security/oauth2/token",
	}
	httpClient := creds.Client(context.Background())
	httpClient.Timeout = timeout

	return &Client{
		baseURL:       baseURL,
		http:          httpClient,
		maxFlights:    orDefault(cfg.MaxFlights, defaultMaxFlights),
		maxHotels:     orDefault(cfg.MaxHotels, defaultMaxHotels),
		maxActivities: orDefault(cfg.MaxActivities, defaultMaxActs),
	}, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("amadeus request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("amadeus %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("amadeus %s decode failed: %w", path, err)
	}
	return nil
}

type locationPayload struct {
	Data []struct {
		Name     string `json:"name"`
		IATACode string `json:"iataCode"`
		GeoCode  struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"geoCode"`
	} `json:"data"`
}

func (c *Client) ResolveLocation(ctx context.Context, keyword string) (*planner.ResolvedLocation, error) {
	var payload locationPayload
	err := c.get(ctx, "/v1/reference-data/locations", url.Values{
		"keyword": {keyword},
		"subType": {"CITY"},
	}, &payload)
	if err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, nil
	}
	loc := payload.Data[0]
	lat, lng := loc.GeoCode.Latitude, loc.GeoCode.Longitude
	return &planner.ResolvedLocation{
		Name:      loc.Name,
		IATA:      loc.IATACode,
		Latitude:  &lat,
		Longitude: &lng,
	}, nil
}

type flightOffersPayload struct {
	Data []struct {
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
		PricingOptions struct {
			RefundableFare *bool `json:"refundableFare"`
		} `json:"pricingOptions"`
		Itineraries []struct {
			Segments []struct {
				Departure struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
			} `json:"segments"`
		} `json:"itineraries"`
	} `json:"data"`
}

func (c *Client) SearchFlights(ctx context.Context, origin, destination, departureDate string) ([]planner.FlightOffer, error) {
	var payload flightOffersPayload
	err := c.get(ctx, "/v2/shopping/flight-offers", url.Values{
		"originLocationCode":      {origin},
		"destinationLocationCode": {destination},
		"departureDate":           {departureDate},
		"adults":                  {"1"},
	}, &payload)
	if err != nil {
		return nil, err
	}

	var offers []planner.FlightOffer
	for i, raw := range payload.Data {
		if i >= c.maxFlights {
			break
		}
		var segments []planner.Segment
		if len(raw.Itineraries) > 0 {
			for _, seg := range raw.Itineraries[0].Segments {
				segments = append(segments, planner.Segment{
					From:         stringOr(seg.Departure.IATACode, origin),
					To:           stringOr(seg.Arrival.IATACode, destination),
					DepartAt:     stringOr(seg.Departure.At, departureDate+"T09:00:00"),
					ArriveAt:     stringOr(seg.Arrival.At, departureDate+"T12:00:00"),
					Carrier:      stringOr(seg.CarrierCode, "Unknown"),
					FlightNumber: seg.Number,
				})
			}
		}
		if len(segments) == 0 {
			segments = []planner.Segment{{
				From:     origin,
				To:       destination,
				DepartAt: departureDate + "T09:00:00",
				ArriveAt: departureDate + "T12:00:00",
				Carrier:  "Unknown",
			}}
		}
		offers = append(offers, planner.FlightOffer{
			TotalPrice: planner.Money{
				Amount:   asFloat(raw.Price.Total),
				Currency: upperOr(raw.Price.Currency, "USD"),
			},
			Segments:         segments,
			FareRulesSummary: "Live fare from Amadeus",
			Refundable:       raw.PricingOptions.RefundableFare,
		})
	}
	return offers, nil
}

type hotelListPayload struct {
	Data []struct {
		HotelID string `json:"hotelId"`
	} `json:"data"`
}

type hotelOffersPayload struct {
	Data []struct {
		Hotel struct {
			Name      string   `json:"name"`
			Rating    string   `json:"rating"`
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
			Amenities []string `json:"amenities"`
		} `json:"hotel"`
		Offers []struct {
			Self  string `json:"self"`
			Price struct {
				Total      string `json:"total"`
				Currency   string `json:"currency"`
				Variations struct {
					Average struct {
						Base string `json:"base"`
					} `json:"average"`
				} `json:"variations"`
			} `json:"price"`
			Policies struct {
				Cancellation struct {
					Description struct {
						Text string `json:"text"`
					} `json:"description"`
				} `json:"cancellation"`
			} `json:"policies"`
		} `json:"offers"`
	} `json:"data"`
}

func (c *Client) SearchHotels(ctx context.Context, cityCode, checkIn, checkOut string, adults int) ([]planner.HotelOffer, error) {
	checkInDate, err := time.Parse("2006-01-02", checkIn)
	if err != nil {
		return nil, fmt.Errorf("invalid check-in date %q", checkIn)
	}
	checkOutDate, err := time.Parse("2006-01-02", checkOut)
	if err != nil {
		return nil, fmt.Errorf("invalid check-out date %q", checkOut)
	}
	// Check-out must be strictly after check-in.
	if !checkOutDate.After(checkInDate) {
		checkOutDate = checkInDate.AddDate(0, 0, 1)
	}
	if adults < 1 {
		adults = 1
	}

	var listing hotelListPayload
	err = c.get(ctx, "/v1/reference-data/locations/hotels/by-city", url.Values{
		"cityCode": {cityCode},
	}, &listing)
	if err != nil {
		return nil, err
	}
	var hotelIDs []string
	for _, h := range listing.Data {
		if h.HotelID != "" {
			hotelIDs = append(hotelIDs, h.HotelID)
		}
		if len(hotelIDs) >= defaultMaxHotelIDs {
			break
		}
	}
	if len(hotelIDs) == 0 {
		logger.WarnCF("amadeus", "No hotel ids for city", map[string]interface{}{"city": cityCode})
		return nil, nil
	}

	var payload hotelOffersPayload
	err = c.get(ctx, "/v3/shopping/hotel-offers", url.Values{
		"hotelIds":     {strings.Join(hotelIDs, ",")},
		"checkInDate":  {checkInDate.Format("2006-01-02")},
		"checkOutDate": {checkOutDate.Format("2006-01-02")},
		"adults":       {strconv.Itoa(adults)},
		"roomQuantity": {"1"},
		"bestRateOnly": {"true"},
		"view":         {"FULL"},
	}, &payload)
	if err != nil {
		return nil, err
	}

	var offers []planner.HotelOffer
	for i, raw := range payload.Data {
		if i >= c.maxHotels {
			break
		}
		offer := planner.HotelOffer{
			HotelName:  stringOr(raw.Hotel.Name, "Unknown Hotel"),
			TotalPrice: planner.Money{Currency: "USD"},
		}
		if rating := asFloat(raw.Hotel.Rating); rating > 0 {
			offer.StarRating = &rating
		}
		offer.Location = &planner.HotelLocation{
			Lat: raw.Hotel.Latitude,
			Lng: raw.Hotel.Longitude,
		}
		if len(raw.Hotel.Amenities) > 8 {
			offer.Amenities = raw.Hotel.Amenities[:8]
		} else {
			offer.Amenities = raw.Hotel.Amenities
		}
		if len(raw.Offers) > 0 {
			bestOffer := raw.Offers[0]
			offer.TotalPrice = planner.Money{
				Amount:   asFloat(bestOffer.Price.Total),
				Currency: upperOr(bestOffer.Price.Currency, "USD"),
			}
			if nightly := asFloat(bestOffer.Price.Variations.Average.Base); nightly > 0 {
				offer.NightlyPrice = &planner.Money{
					Amount:   nightly,
					Currency: offer.TotalPrice.Currency,
				}
			}
			cancellation := bestOffer.Policies.Cancellation.Description.Text
			offer.CancellationPolicySummary = cancellation
			refundable := cancellation != ""
			offer.Refundable = &refundable
			offer.BookingURL = bestOffer.Self
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

type activitiesPayload struct {
	Data []struct {
		Name             string `json:"name"`
		ShortDescription string `json:"shortDescription"`
		Rating           string `json:"rating"`
		BookingLink      string `json:"bookingLink"`
		Price            struct {
			Amount       string `json:"amount"`
			CurrencyCode string `json:"currencyCode"`
		} `json:"price"`
		Self struct {
			Href string `json:"href"`
		} `json:"self"`
	} `json:"data"`
}

func (c *Client) SearchActivities(ctx context.Context, lat, lng float64) ([]planner.ActivityOffer, error) {
	var payload activitiesPayload
	err := c.get(ctx, "/v1/shopping/activities", url.Values{
		"latitude":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(lng, 'f', -1, 64)},
	}, &payload)
	if err != nil {
		return nil, err
	}

	var offers []planner.ActivityOffer
	for i, raw := range payload.Data {
		if i >= c.maxActivities {
			break
		}
		offer := planner.ActivityOffer{
			Title: stringOr(raw.Name, "Local activity"),
			TotalPrice: planner.Money{
				Amount:   asFloat(raw.Price.Amount),
				Currency: upperOr(raw.Price.CurrencyCode, "USD"),
			},
			CancellationPolicySummary: raw.ShortDescription,
			BookingURL:                stringOr(raw.BookingLink, raw.Self.Href),
		}
		if rating := asFloat(raw.Rating); rating > 0 {
			offer.Rating = &rating
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func asFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func upperOr(v, def string) string {
	if v == "" {
		return def
	}
	return strings.ToUpper(v)
}
