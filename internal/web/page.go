// Package web serves the search page: one panel per request, rendered with html/template.
package web

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-lookup/internal/display"
	"github.com/kjstillabower/weather-lookup/internal/observability"
	"github.com/kjstillabower/weather-lookup/internal/panel"
	"github.com/kjstillabower/weather-lookup/internal/validation"
)

//go:embed page.html.tmpl
var pageTemplate string

// Page handles GET /. Query mode=city|zip|coords|geo drives one submit;
// units=metric|imperial sets the toggle.
type Page struct {
	fetcher      panel.Fetcher
	defaultUnits display.Units
	logger       *zap.Logger
	tmpl         *template.Template
	now          func() time.Time
}

// NewPage parses the page template. defaultUnits applies when the request has none.
func NewPage(fetcher panel.Fetcher, defaultUnits display.Units, logger *zap.Logger) (*Page, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Page{
		fetcher:      fetcher,
		defaultUnits: display.ParseUnits(string(defaultUnits), display.Imperial),
		logger:       logger,
		tmpl:         tmpl,
		now:          time.Now,
	}, nil
}

type pageData struct {
	Tab     string
	City    string
	Zip     string
	Lat     string
	Lon     string
	Units   display.Units
	State   panel.State
	HasView bool
	// View is in Units, AltView in the other system; the toggle swaps them in
	// the browser without a new search.
	View    readingCard
	AltView readingCard
	// Raw is the reading pretty-printed for the "Show raw data" block.
	Raw string
}

// readingCard is one rendered reading plus the header date and footer stamp.
type readingCard struct {
	display.View
	Today   string
	Updated string
}

func (pg *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx, pg.logger)
	q := r.URL.Query()

	units := display.ParseUnits(q.Get("units"), pg.defaultUnits)
	mode := panel.Mode(strings.ToLower(q.Get("mode")))

	var locator panel.Locator
	if mode == panel.ModeGeo {
		locator = requestLocator{query: q}
	}
	p := panel.New(pg.fetcher, locator, units, logger)

	switch mode {
	case panel.ModeCity:
		p.SubmitCity(ctx, q.Get("city"))
	case panel.ModeZip:
		p.SubmitZip(ctx, q.Get("zip"))
	case panel.ModeCoords:
		p.SubmitCoords(ctx, q.Get("lat"), q.Get("lon"))
	case panel.ModeGeo:
		p.UseCurrentLocation(ctx)
	case "":
	default:
		logger.Debug("ignoring unknown search mode", zap.String("mode", string(mode)))
	}

	data := pageData{
		Tab:   tabFor(q.Get("tab"), mode),
		City:  q.Get("city"),
		Zip:   q.Get("zip"),
		Lat:   q.Get("lat"),
		Lon:   q.Get("lon"),
		Units: units,
		State: p.State(),
	}
	if view, ok := p.View(); ok {
		now := pg.now()
		card := func(v display.View) readingCard {
			return readingCard{View: v, Today: display.LongDate(now), Updated: display.TimeOfDay(now)}
		}
		data.HasView = true
		data.View = card(view)
		p.SetUnits(units.Toggle())
		alt, _ := p.View()
		p.SetUnits(units)
		data.AltView = card(alt)

		raw, err := display.RawJSON(data.State.Reading)
		if err != nil {
			logger.Warn("encode raw reading", zap.Error(err))
		}
		data.Raw = raw
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pg.tmpl.Execute(w, data); err != nil {
		logger.Error("render page", zap.Error(err))
	}
}

// requestLocator reads the position the page script submitted.
type requestLocator struct {
	query url.Values
}

func (l requestLocator) Locate(ctx context.Context) (float64, float64, error) {
	switch reason := strings.TrimSpace(l.query.Get("geo_error")); reason {
	case "":
	case "unsupported":
		return 0, 0, panel.ErrGeolocationUnsupported
	default:
		return 0, 0, fmt.Errorf("geolocation failed: %s", reason)
	}
	lat, lon, err := validation.ParseCoordinates(l.query.Get("lat"), l.query.Get("lon"))
	if err != nil {
		return 0, 0, fmt.Errorf("geolocation position: %w", err)
	}
	return lat, lon, nil
}

// tabFor picks the visible form: an explicit tab, else the one that submitted.
func tabFor(tab string, mode panel.Mode) string {
	switch tab {
	case "city", "zip", "coords":
		return tab
	}
	switch mode {
	case panel.ModeZip:
		return "zip"
	case panel.ModeCoords, panel.ModeGeo:
		return "coords"
	default:
		return "city"
	}
}
