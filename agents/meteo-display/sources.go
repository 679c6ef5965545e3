package meteodisplay

import (
	"context"

	"meteo-stack/internal/models"
)

// Source produces the part of the display snapshot it is responsible for.
// Sources handle and log their own failures; a nil result means the source
// has nothing to contribute this cycle.
type Source interface {
	Name() string
	Fetch(ctx context.Context) *models.DisplayData
}

// SampleQuerier runs an instant query and returns its first sample.
// ok is false when the query did not return a vector.
type SampleQuerier interface {
	FirstSample(ctx context.Context, query string) (value float64, ok bool, err error)
}
