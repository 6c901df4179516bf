package render

import (
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/tripcanvas/tripcanvas/pkg/logger"
	"github.com/tripcanvas/tripcanvas/pkg/trip"
)

// ErrNoMount is returned when the render target is not available yet. The
// caller keeps its sources alive and retries with a later candidate.
var ErrNoMount = errors.New("render mount point not available")

const placeholderImage = "https://images.unsplash.com/photo-1488646953014-85cb44e25828?w=640&q=60"

// MountFunc resolves the current render target. Returning nil means the
// mount point does not exist yet.
type MountFunc func() io.Writer

// HTML paints canonical trip data as a self-contained fragment. Missing
// per-field data degrades gracefully: placeholder hotel image, omitted
// rating, "Check for rates" pricing.
type HTML struct {
	mount MountFunc
	tmpl  *template.Template
}

func NewHTML(mount MountFunc) *HTML {
	return &HTML{
		mount: mount,
		tmpl:  widgetTemplate,
	}
}

func (h *HTML) Render(data *trip.TripData) error {
	w := h.mount()
	if w == nil {
		return ErrNoMount
	}

	view := buildView(data)
	if err := h.tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	logger.DebugCF("render", "Painted widget", map[string]interface{}{
		"empty": data == nil,
	})
	return nil
}

type hotelView struct {
	Name   string
	Image  string
	Price  string
	Rating string
}

type flightView struct {
	Route            string
	Carrier          string
	Price            string
	Stops            string
	JourneyDuration  string
	AirTime          string
	RefundableStatus string
}

type widgetView struct {
	Empty       bool
	Destination string
	Flights     []flightView
	Hotels      []hotelView
	Itinerary   []trip.DayPlan
	Warnings    []string
}

func buildView(data *trip.TripData) widgetView {
	if data == nil {
		return widgetView{Empty: true}
	}

	view := widgetView{
		Destination: data.Destination,
		Itinerary:   data.Itinerary,
		Warnings:    data.Warnings,
	}
	for _, h := range data.Hotels {
		view.Hotels = append(view.Hotels, hotelView{
			Name:   orDefault(h.Name, "Hotel"),
			Image:  orDefault(h.Image, placeholderImage),
			Price:  orDefault(h.Price, "Check for rates"),
			Rating: h.Rating,
		})
	}
	for _, f := range data.Flights {
		view.Flights = append(view.Flights, flightView{
			Route:            f.Route,
			Carrier:          f.Carrier,
			Price:            f.Price,
			Stops:            stopsLabel(f.Stops),
			JourneyDuration:  f.JourneyDuration,
			AirTime:          f.AirTime,
			RefundableStatus: f.RefundableStatus,
		})
	}
	return view
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func stopsLabel(stops *int) string {
	if stops == nil {
		return ""
	}
	switch *stops {
	case 0:
		return "Nonstop"
	case 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", *stops)
	}
}

var widgetTemplate = template.Must(template.New("trip-plan").Parse(`<section class="trip-plan">
{{- if .Empty}}
  <div class="empty-state">Waiting for trip data&hellip;</div>
{{- else}}
  <h1 class="destination">{{.Destination}}</h1>
{{- range .Warnings}}
  <p class="warning">{{.}}</p>
{{- end}}
{{- if .Flights}}
  <div class="flights">
{{- range .Flights}}
    <article class="flight-card">
      <h2>{{.Route}}</h2>
      <p class="carrier">{{.Carrier}}</p>
{{- if .Stops}}
      <p class="stops">{{.Stops}}</p>
{{- end}}
{{- if .JourneyDuration}}
      <p class="duration">{{.JourneyDuration}}{{if .AirTime}} ({{.AirTime}} in air){{end}}</p>
{{- end}}
{{- if .Price}}
      <p class="price">{{.Price}}</p>
{{- end}}
{{- if .RefundableStatus}}
      <p class="refundable">{{.RefundableStatus}}</p>
{{- end}}
    </article>
{{- end}}
  </div>
{{- end}}
{{- if .Hotels}}
  <div class="hotels">
{{- range .Hotels}}
    <article class="hotel-card">
      <img src="{{.Image}}" alt="{{.Name}}">
      <h2>{{.Name}}</h2>
      <p class="price">{{.Price}}</p>
{{- if .Rating}}
      <p class="rating">{{.Rating}}</p>
{{- end}}
    </article>
{{- end}}
  </div>
{{- end}}
{{- if .Itinerary}}
  <ol class="itinerary">
{{- range .Itinerary}}
    <li class="day">
      <h3>Day {{.Day}}</h3>
      <ul>
{{- range .Activities}}
        <li>{{.}}</li>
{{- end}}
      </ul>
    </li>
{{- end}}
  </ol>
{{- end}}
  <button class="book-trip" data-action="book">Book this trip</button>
{{- end}}
</section>
`))
