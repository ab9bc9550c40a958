package validation

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// ErrParamMissing is returned when a required query parameter is absent or blank.
var ErrParamMissing = errors.New("required parameter missing")

// ErrCoordinatesMissing is returned when latitude or longitude is blank.
var ErrCoordinatesMissing = errors.New("coordinates are required")

// ErrCoordinatesInvalid is returned when latitude or longitude is not a finite number.
var ErrCoordinatesInvalid = errors.New("coordinates must be numeric")

// RequireParams returns the trimmed values of names from q, in order.
// A name that is absent or whitespace-only fails with ErrParamMissing.
func RequireParams(q url.Values, names ...string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			return nil, fmt.Errorf("%w: %s", ErrParamMissing, name)
		}
		out = append(out, v)
	}
	return out, nil
}

// Blank reports whether s is empty after trimming whitespace.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ParseCoordinates parses user-entered latitude and longitude.
func ParseCoordinates(lat, lon string) (float64, float64, error) {
	if Blank(lat) || Blank(lon) {
		return 0, 0, ErrCoordinatesMissing
	}
	la, err := parseFinite(lat)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude %q", ErrCoordinatesInvalid, lat)
	}
	lo, err := parseFinite(lon)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude %q", ErrCoordinatesInvalid, lon)
	}
	return la, lo, nil
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite: %v", f)
	}
	return f, nil
}
