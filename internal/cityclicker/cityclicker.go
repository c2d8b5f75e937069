// Package cityclicker holds the reference list of target cities. The list is
// loaded once at startup and treated as read-only afterwards.
package cityclicker

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/playperu/cityclicker/internal/geo"
)

//go:embed cities.json
var citiesJSON []byte

// ErrNoCities is returned when a reference list decodes to zero entries.
var ErrNoCities = errors.New("city list is empty")

type City struct {
	Name string `json:"name"`
	geo.Coordinate
}

// Cities decodes the embedded UK city list.
func Cities() ([]City, error) {
	cities, err := decode(citiesJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding embedded cities: %w", err)
	}
	return cities, nil
}

// LoadFile decodes a city list from a JSON file on disk, using the same
// shape as the embedded list: [{"name": ..., "lat": ..., "lon": ...}].
func LoadFile(path string) ([]City, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cities, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cities, nil
}

func decode(data []byte) ([]City, error) {
	var cities []City
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, err
	}
	if len(cities) == 0 {
		return nil, ErrNoCities
	}
	return cities, nil
}
