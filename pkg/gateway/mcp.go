package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tripcanvas/tripcanvas/pkg/host"
	"github.com/tripcanvas/tripcanvas/pkg/planner"
	"github.com/tripcanvas/tripcanvas/pkg/trip"
)

const (
	serverName    = "trip-canvas"
	serverVersion = "1.0.0"
)

type PlanTripInput struct {
	Destination     string `json:"destination" jsonschema:"the city name (e.g., 'Paris', 'New York')"`
	DestinationIATA string `json:"destination_iata,omitempty" jsonschema:"optional destination IATA/city code (e.g., 'TYO', 'PAR')"`
	Origin          string `json:"origin,omitempty" jsonschema:"the origin city IATA code (e.g., 'LON')"`
	DepartureDate   string `json:"departure_date,omitempty" jsonschema:"departure date in YYYY-MM-DD format"`
	Days            int    `json:"days,omitempty" jsonschema:"number of days for the trip"`
}

type SearchFlightsInput struct {
	Origin        string `json:"origin" jsonschema:"origin IATA code (e.g., LHR)"`
	Destination   string `json:"destination" jsonschema:"destination IATA code (e.g., JFK)"`
	DepartureDate string `json:"departure_date" jsonschema:"departure date in YYYY-MM-DD format"`
}

type SearchFlightsResult struct {
	Offers []string `json:"offers"`
}

type SearchActivitiesInput struct {
	Keyword string `json:"keyword" jsonschema:"city name to search for activities"`
}

type SearchActivitiesResult struct {
	Destination string   `json:"destination"`
	Activities  []string `json:"activities"`
}

func (s *Server) newMCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "plan_trip",
		Description: "Plans a comprehensive travel itinerary including flights, hotels and activities using Amadeus.",
	}, s.handlePlanTrip)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_flights",
		Description: "Search for flight offers between two cities.",
	}, s.handleSearchFlights)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_activities",
		Description: "Find tours and activities at a destination.",
	}, s.handleSearchActivities)

	server.AddResource(&mcp.Resource{
		URI:         s.cfg.Widget.TemplateURI,
		Name:        "Trip Plan Widget",
		Description: "The interactive UI for the travel planner",
		MIMEType:    "text/html",
	}, s.handleWidgetResource)

	return server
}

func (s *Server) handlePlanTrip(ctx context.Context, req *mcp.CallToolRequest, input PlanTripInput) (*mcp.CallToolResult, *trip.TripData, error) {
	result, err := s.service.PlanTrip(ctx, planner.PlanTripArgs{
		Destination:     input.Destination,
		DestinationIATA: input.DestinationIATA,
		Origin:          input.Origin,
		DepartureDate:   input.DepartureDate,
		Days:            input.Days,
	})
	if err != nil {
		return nil, nil, err
	}

	// Widgets already open get the update pushed; new ones read it from
	// the tool output.
	s.hub.broadcast(host.SetGlobalsEvent{
		Globals: host.Globals{ToolOutput: result.Trip},
	})

	meta := s.widgetMeta()
	meta["openai/toolInvocation/invoking"] = fmt.Sprintf("Planning your trip to %s...", result.Destination)
	meta["openai/toolInvocation/invoked"] = fmt.Sprintf("Trip to %s planned.", result.Destination)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: result.Summary}},
		Meta:    meta,
	}, result.Trip, nil
}

func (s *Server) handleSearchFlights(ctx context.Context, req *mcp.CallToolRequest, input SearchFlightsInput) (*mcp.CallToolResult, SearchFlightsResult, error) {
	origin := strings.ToUpper(input.Origin)
	if origin == "" {
		origin = "LON"
	}
	destination := strings.ToUpper(input.Destination)
	if destination == "" {
		destination = "PAR"
	}
	departureDate := input.DepartureDate
	if departureDate == "" {
		departureDate = s.service.DefaultDepartureDate()
	}

	request := s.service.BuildTripRequest(origin, destination, destination, departureDate, 1)
	response, err := s.service.SearchTravel(ctx, request)
	if err != nil {
		return nil, SearchFlightsResult{}, err
	}

	result := SearchFlightsResult{Offers: []string{}}
	for _, offer := range response.Flights {
		route := fmt.Sprintf("%s->%s", origin, destination)
		if len(offer.Segments) > 0 {
			route = fmt.Sprintf("%s->%s", offer.Segments[0].From, offer.Segments[0].To)
		}
		details := offer.FareRulesSummary
		if details == "" {
			details = "Live fare details unavailable."
		}
		result.Offers = append(result.Offers, fmt.Sprintf("%s | %.2f %s | %s",
			route, offer.TotalPrice.Amount, offer.TotalPrice.Currency, details))
	}

	text := "No flights found."
	if len(result.Offers) > 0 {
		text = strings.Join(result.Offers, "\n")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Found flights:\n" + text}},
	}, result, nil
}

func (s *Server) handleSearchActivities(ctx context.Context, req *mcp.CallToolRequest, input SearchActivitiesInput) (*mcp.CallToolResult, SearchActivitiesResult, error) {
	destination := input.Keyword
	if destination == "" {
		destination = "Paris"
	}

	request := s.service.BuildTripRequest("LON", destination, "", s.service.DefaultDepartureDate(), 1)
	response, err := s.service.SearchTravel(ctx, request)
	if err != nil {
		return nil, SearchActivitiesResult{}, err
	}

	result := SearchActivitiesResult{Destination: destination, Activities: []string{}}
	for _, activity := range response.Activities {
		result.Activities = append(result.Activities, activity.Title)
	}

	listing := "No activities found."
	if len(result.Activities) > 0 {
		listing = strings.Join(result.Activities, "\n")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf("Activities in %s:\n%s", destination, listing),
		}},
	}, result, nil
}

func (s *Server) handleWidgetResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := strings.TrimRight(req.Params.URI, "/")
	if uri != strings.TrimRight(s.cfg.Widget.TemplateURI, "/") {
		return nil, fmt.Errorf("resource not found: %s", req.Params.URI)
	}

	html, err := s.widgetHTML()
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      s.cfg.Widget.TemplateURI,
				MIMEType: "text/html",
				Text:     html,
			},
		},
	}, nil
}

// widgetHTML loads the widget page and inlines its CSS and JS so the host
// can render it without fetching external assets.
func (s *Server) widgetHTML() (string, error) {
	dir := s.cfg.Widget.AssetsDir
	data, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		return "", fmt.Errorf("widget template missing: %w", err)
	}
	html := string(data)

	if styles, err := os.ReadFile(filepath.Join(dir, "styles.css")); err == nil {
		html = strings.Replace(html,
			`<link rel="stylesheet" href="__WIDGET_HOST__/widget/styles.css" />`,
			"<style>"+string(styles)+"</style>", 1)
	}
	if script, err := os.ReadFile(filepath.Join(dir, "script.js")); err == nil {
		html = strings.Replace(html,
			`<script src="__WIDGET_HOST__/widget/script.js"></script>`,
			"<script>"+string(script)+"</script>", 1)
	}
	return strings.ReplaceAll(html, "__WIDGET_HOST__", strings.TrimRight(s.cfg.Widget.PublicURL, "/")), nil
}

func (s *Server) widgetMeta() map[string]any {
	publicURL := strings.TrimRight(s.cfg.Widget.PublicURL, "/")
	resourceDomains := []string{}
	if strings.HasPrefix(publicURL, "http://") || strings.HasPrefix(publicURL, "https://") {
		resourceDomains = append(resourceDomains, publicURL)
	}
	// Hotel card images come from Unsplash.
	resourceDomains = append(resourceDomains, "https://images.unsplash.com", "https://*.unsplash.com")

	meta := map[string]any{
		"openai/outputTemplate":    s.cfg.Widget.TemplateURI,
		"openai/widgetAccessible":  true,
		"openai/widgetDescription": "Interactive trip itinerary with hotels and day-by-day plan.",
		"openai/widgetHasImages":   true,
		"openai/widgetCSP": map[string]any{
			"connect_domains":  []string{},
			"resource_domains": resourceDomains,
			"img_src":          []string{"self", "https:", "data:"},
			"object_src":       []string{"none"},
		},
	}
	if strings.HasPrefix(publicURL, "http://") || strings.HasPrefix(publicURL, "https://") {
		meta["openai/widgetDomain"] = publicURL
	}
	return meta
}
