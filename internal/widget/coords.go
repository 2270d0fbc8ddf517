package widget

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CoordinateDebounce is the quiet period before coordinate input re-centres
// the map.
const CoordinateDebounce = 1000 * time.Millisecond

// parseCoordinate accepts a finite decimal number.
func parseCoordinate(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func validateCoordinates(lon, lat string) error {
	if _, ok := parseCoordinate(lon); !ok {
		return fmt.Errorf("%w: longitude %q", ErrValidation, lon)
	}
	if _, ok := parseCoordinate(lat); !ok {
		return fmt.Errorf("%w: latitude %q", ErrValidation, lat)
	}
	return nil
}

func normaliseCoordinate(s string) string {
	return strings.TrimSpace(s)
}
