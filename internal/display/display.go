// Package display derives presentation strings from a weather reading.
// Everything here is pure: no I/O, no shared state.
package display

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/kjstillabower/weather-lookup/internal/models"
)

// Units selects how temperatures and wind speeds are shown.
type Units string

const (
	Metric   Units = "metric"
	Imperial Units = "imperial"
)

// ParseUnits maps "metric"/"imperial" (any case) to Units. Anything else yields def.
func ParseUnits(s string, def Units) Units {
	switch Units(strings.ToLower(strings.TrimSpace(s))) {
	case Metric:
		return Metric
	case Imperial:
		return Imperial
	default:
		return def
	}
}

// Toggle returns the other unit system.
func (u Units) Toggle() Units {
	if u == Metric {
		return Imperial
	}
	return Metric
}

const kmPerMile = 1.609344

// CelsiusToFahrenheit converts c to Fahrenheit without rounding.
func CelsiusToFahrenheit(c float64) float64 {
	return c*1.8 + 32
}

// Temperature formats a Celsius value, e.g. "53°F" or "12°C".
// Rounds half away from zero.
func Temperature(c float64, units Units) string {
	if units == Imperial {
		return fmt.Sprintf("%d°F", round(CelsiusToFahrenheit(c)))
	}
	return fmt.Sprintf("%d°C", round(c))
}

// WindSpeed formats a m/s value as "22 km/h" or "14 mph".
func WindSpeed(ms float64, units Units) string {
	kmh := ms * 3.6
	if units == Imperial {
		return fmt.Sprintf("%d mph", round(kmh/kmPerMile))
	}
	return fmt.Sprintf("%d km/h", round(kmh))
}

// Clock renders a unix timestamp shifted by offset seconds as wall time at the
// location, e.g. "06:40 AM".
func Clock(unix, offset int64) string {
	return time.Unix(unix+offset, 0).UTC().Format("03:04 PM")
}

// LongDate renders t as "Thursday, March 6, 2025".
func LongDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// TimeOfDay renders t as "3:04:05 PM", the footer's last-updated stamp.
func TimeOfDay(t time.Time) string {
	return t.Format("3:04:05 PM")
}

// RawJSON pretty-prints the reading with two-space indentation.
func RawJSON(r models.WeatherReading) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode reading: %w", err)
	}
	return string(b), nil
}

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Compass returns the 16-point compass label for a meteorological wind direction.
func Compass(deg int) string {
	d := math.Mod(float64(deg), 360)
	if d < 0 {
		d += 360
	}
	return compassPoints[int(math.Round(d/22.5))%16]
}

func round(v float64) int {
	return int(math.Round(v))
}

// View holds every display string the page shows for one reading.
type View struct {
	Name        string
	Country     string
	Coordinates string
	Description string
	Glyph       Glyph
	Temperature string
	FeelsLike   string
	High        string
	Low         string
	Humidity    string
	Wind        string
	WindFrom    string
	Cloudiness  string
	Sunrise     string
	Sunset      string
	Units       Units
}

// Render builds the View for r in the given units.
func Render(r models.WeatherReading, units Units) View {
	cond := r.Condition()
	return View{
		Name:        r.Name,
		Country:     r.Sys.Country,
		Coordinates: fmt.Sprintf("Lat: %.2f, Lon: %.2f", r.Coord.Lat, r.Coord.Lon),
		Description: capitalize(cond.Description),
		Glyph:       IconFor(cond.Icon),
		Temperature: Temperature(r.Main.Temp, units),
		FeelsLike:   Temperature(r.Main.FeelsLike, units),
		High:        Temperature(r.Main.TempMax, units),
		Low:         Temperature(r.Main.TempMin, units),
		Humidity:    fmt.Sprintf("%d%%", r.Main.Humidity),
		Wind:        WindSpeed(r.Wind.Speed, units),
		WindFrom:    Compass(r.Wind.Deg),
		Cloudiness:  fmt.Sprintf("%d%%", r.Clouds.All),
		Sunrise:     Clock(r.Sys.Sunrise, r.Timezone),
		Sunset:      Clock(r.Sys.Sunset, r.Timezone),
		Units:       units,
	}
}

// capitalize upper-cases the first letter of each word: "clear sky" -> "Clear Sky".
func capitalize(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
