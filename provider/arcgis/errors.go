package arcgis

import (
	"errors"
	"fmt"
)

var ErrMissingURL = errors.New("arcgis: config key 'url' is required")

type ErrInvalidPageSize struct {
	Value int
}

func (e ErrInvalidPageSize) Error() string {
	return fmt.Sprintf("arcgis: page_size must be positive, got %v", e.Value)
}

type ErrNoPBFSupport struct {
	URL     string
	Formats string
}

func (e ErrNoPBFSupport) Error() string {
	return fmt.Sprintf("arcgis: layer %v does not list pbf among its query formats (%q)", e.URL, e.Formats)
}
