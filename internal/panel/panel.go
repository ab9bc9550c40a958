// Package panel is the search panel state machine behind the web page.
package panel

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-lookup/internal/display"
	"github.com/kjstillabower/weather-lookup/internal/models"
	"github.com/kjstillabower/weather-lookup/internal/observability"
	"github.com/kjstillabower/weather-lookup/internal/validation"
)

// Messages shown in the Error state.
const (
	MsgCityRequired   = "Please enter a city name"
	MsgZipRequired    = "Please enter a zip code"
	MsgCoordsInvalid  = "Please enter valid coordinates"
	MsgCityFailed     = "City not found. Please check the spelling and try again."
	MsgZipFailed      = "Invalid zip code or country. Please check and try again."
	MsgCoordsFailed   = "Failed to fetch weather data for these coordinates"
	MsgLocationFailed = "Failed to fetch weather data for your location"
	MsgLocationDenied = "Unable to get your location. Please check your browser permissions."
	MsgGeoUnsupported = "Geolocation is not supported by your browser"
)

// Status is the panel state.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Mode is the search form a submit came from.
type Mode string

const (
	ModeCity   Mode = "city"
	ModeZip    Mode = "zip"
	ModeCoords Mode = "coords"
	ModeGeo    Mode = "geo"
)

// State is a snapshot of the panel. Reading is set only in Success and
// Message only in Error.
type State struct {
	Status  Status
	Mode    Mode
	Reading models.WeatherReading
	Message string
}

// Fetcher is the weather client the panel calls.
type Fetcher interface {
	ByCity(ctx context.Context, city string) (models.WeatherReading, error)
	ByZip(ctx context.Context, zip string) (models.WeatherReading, error)
	ByCoords(ctx context.Context, lat, lon string) (models.WeatherReading, error)
}

// Locator asks the host for the device position, once.
type Locator interface {
	Locate(ctx context.Context) (lat, lon float64, err error)
}

// ErrGeolocationUnsupported is returned by a Locator whose host has no geolocation.
var ErrGeolocationUnsupported = errors.New("geolocation unsupported")

// Panel holds the search state and unit toggle. Every submit takes a sequence
// token; a completion is applied only if its token is still the latest, so a
// slow earlier search never overwrites a newer one. Safe for concurrent use.
type Panel struct {
	fetcher Fetcher
	locator Locator
	logger  *zap.Logger

	mu    sync.Mutex
	seq   uint64
	state State
	units display.Units
}

// New returns an Idle panel. locator nil means geolocation is unavailable.
func New(fetcher Fetcher, locator Locator, units display.Units, logger *zap.Logger) *Panel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if units == "" {
		units = display.Imperial
	}
	return &Panel{fetcher: fetcher, locator: locator, logger: logger, units: units}
}

// SubmitCity searches by city name. Blank input fails without a network call.
func (p *Panel) SubmitCity(ctx context.Context, city string) State {
	if validation.Blank(city) {
		return p.reject(ctx, ModeCity, MsgCityRequired)
	}
	city = strings.TrimSpace(city)
	token := p.start(ModeCity)
	return p.fetch(ctx, token, ModeCity, MsgCityFailed, func(ctx context.Context) (models.WeatherReading, error) {
		return p.fetcher.ByCity(ctx, city)
	})
}

// SubmitZip searches by postal code. Blank input fails without a network call.
func (p *Panel) SubmitZip(ctx context.Context, zip string) State {
	if validation.Blank(zip) {
		return p.reject(ctx, ModeZip, MsgZipRequired)
	}
	zip = strings.TrimSpace(zip)
	token := p.start(ModeZip)
	return p.fetch(ctx, token, ModeZip, MsgZipFailed, func(ctx context.Context) (models.WeatherReading, error) {
		return p.fetcher.ByZip(ctx, zip)
	})
}

// SubmitCoords searches by latitude and longitude as typed. Blank or non-numeric
// input fails without a network call.
func (p *Panel) SubmitCoords(ctx context.Context, lat, lon string) State {
	if _, _, err := validation.ParseCoordinates(lat, lon); err != nil {
		return p.reject(ctx, ModeCoords, MsgCoordsInvalid)
	}
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	token := p.start(ModeCoords)
	return p.fetch(ctx, token, ModeCoords, MsgCoordsFailed, func(ctx context.Context) (models.WeatherReading, error) {
		return p.fetcher.ByCoords(ctx, lat, lon)
	})
}

// UseCurrentLocation asks the locator for a position and searches by it.
func (p *Panel) UseCurrentLocation(ctx context.Context) State {
	if p.locator == nil {
		return p.reject(ctx, ModeGeo, MsgGeoUnsupported)
	}
	token := p.start(ModeGeo)
	lat, lon, err := p.locator.Locate(ctx)
	if err != nil {
		msg := MsgLocationDenied
		if errors.Is(err, ErrGeolocationUnsupported) {
			msg = MsgGeoUnsupported
		}
		return p.settle(ctx, token, State{Status: Error, Mode: ModeGeo, Message: msg}, err)
	}
	latS := strconv.FormatFloat(lat, 'f', -1, 64)
	lonS := strconv.FormatFloat(lon, 'f', -1, 64)
	return p.fetch(ctx, token, ModeGeo, MsgLocationFailed, func(ctx context.Context) (models.WeatherReading, error) {
		return p.fetcher.ByCoords(ctx, latS, lonS)
	})
}

// SetUnits switches the unit toggle. It does not touch the search state.
func (p *Panel) SetUnits(u display.Units) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.units = u
}

// Units returns the current unit toggle.
func (p *Panel) Units() display.Units {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.units
}

// State returns the current snapshot.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// View renders the current reading in the current units. ok is false unless
// the panel is in Success.
func (p *Panel) View() (v display.View, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Status != Success {
		return display.View{}, false
	}
	return display.Render(p.state.Reading, p.units), true
}

// reject supersedes any in-flight search with a validation error.
func (p *Panel) reject(ctx context.Context, mode Mode, msg string) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.state = State{Status: Error, Mode: mode, Message: msg}
	observability.PanelSearchesTotal.WithLabelValues(string(mode), "invalid").Inc()
	observability.LoggerFromContext(ctx, p.logger).Debug("search rejected",
		zap.String("mode", string(mode)), zap.String("message", msg))
	return p.state
}

// start enters Loading, clearing any prior reading and error, and returns the new token.
func (p *Panel) start(mode Mode) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.state = State{Status: Loading, Mode: mode}
	return p.seq
}

func (p *Panel) fetch(ctx context.Context, token uint64, mode Mode, failMsg string, call func(context.Context) (models.WeatherReading, error)) State {
	reading, err := call(ctx)
	if err != nil {
		return p.settle(ctx, token, State{Status: Error, Mode: mode, Message: failMsg}, err)
	}
	return p.settle(ctx, token, State{Status: Success, Mode: mode, Reading: reading}, nil)
}

// settle applies next if token is still the latest and returns the current state.
func (p *Panel) settle(ctx context.Context, token uint64, next State, cause error) State {
	logger := observability.LoggerFromContext(ctx, p.logger)

	p.mu.Lock()
	defer p.mu.Unlock()
	if token != p.seq {
		observability.PanelSearchesTotal.WithLabelValues(string(next.Mode), "stale").Inc()
		logger.Debug("dropped stale search result",
			zap.String("mode", string(next.Mode)),
			zap.Uint64("token", token),
			zap.Uint64("latest", p.seq),
			zap.String("status", next.Status.String()))
		return p.state
	}
	p.state = next
	observability.PanelSearchesTotal.WithLabelValues(string(next.Mode), next.Status.String()).Inc()
	if cause != nil {
		logger.Warn("search failed", zap.String("mode", string(next.Mode)), zap.Error(cause))
	}
	return p.state
}
