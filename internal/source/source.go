package source

import (
	"context"
	"fmt"
	"log"

	"github.com/survey-007/iran-radiation-live/internal/config"
	"github.com/survey-007/iran-radiation-live/internal/model"
)

// Source fetches measurements around one region. Fetch never returns an error;
// failures are carried in the FetchResult.
type Source interface {
	Name() string
	Fetch(ctx context.Context, r model.Region) model.FetchResult
}

func NewFromConfig(c config.APIConfig, logger *log.Logger) (Source, error) {
	switch c.Type {
	case "safecast", "":
		return NewSafecastSource(c, logger), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", c.Type)
	}
}
