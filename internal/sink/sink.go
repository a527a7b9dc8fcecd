package sink

import (
	"context"
	"time"

	"github.com/survey-007/iran-radiation-live/internal/model"
)

// Batch is the output of one run handed to every sink.
type Batch struct {
	Document   []byte         // rendered KML
	Results    *model.Results // records by region
	At         time.Time      // run start
	Placemarks int
}

// Sink is the minimal interface all sinks must implement.
type Sink interface {
	Name() string
	Write(ctx context.Context, b Batch) error
}
