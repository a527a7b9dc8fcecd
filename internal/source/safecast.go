package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/survey-007/iran-radiation-live/internal/config"
	"github.com/survey-007/iran-radiation-live/internal/model"
	"github.com/survey-007/iran-radiation-live/internal/util"
)

type safecastSource struct {
	cfg     config.APIConfig
	client  *http.Client
	limiter *rate.Limiter // nil when unpaced
	log     *log.Logger
}

func NewSafecastSource(cfg config.APIConfig, logger *log.Logger) *safecastSource {
	if logger == nil {
		logger = log.Default()
	}
	s := &safecastSource{
		cfg:    cfg,
		client: util.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.UserAgent),
		log:    logger,
	}
	if cfg.RatePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), max(1, cfg.Burst))
	}
	return s
}

func (s *safecastSource) Name() string { return "safecast" }

// Fetch queries measurements.json around r. Transport errors, non-2xx statuses
// and undecodable bodies are all reported as a failed result.
func (s *safecastSource) Fetch(ctx context.Context, r model.Region) model.FetchResult {
	s.log.Printf("Fetching measurements near %s, %s (distance=%d km)",
		formatCoord(r.Latitude), formatCoord(r.Longitude), r.DistanceKM)

	recs, err := s.fetch(ctx, r)
	if err != nil {
		s.log.Printf("Error fetching data: %v", err)
		return model.Failure(r, err)
	}
	s.log.Printf("Received %d records", len(recs))
	return model.Success(r, recs)
}

func (s *safecastSource) endpoint(r model.Region) string {
	q := url.Values{}
	q.Set("latitude", formatCoord(r.Latitude))
	q.Set("longitude", formatCoord(r.Longitude))
	q.Set("distance", strconv.Itoa(r.DistanceKM))
	q.Set("limit", strconv.Itoa(s.cfg.Limit))
	if k := strings.TrimSpace(s.cfg.APIKey); k != "" {
		q.Set("api_key", k)
	}
	return s.cfg.BaseURL + "/measurements.json?" + q.Encode()
}

func (s *safecastSource) fetch(ctx context.Context, r model.Region) ([]model.Measurement, error) {
	u := s.endpoint(r)

	var recs []model.Measurement
	err := util.Retry(ctx, s.cfg.MaxRetries, s.cfg.Backoff, s.cfg.MaxBackoff, func() error {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return util.Permanent(err)
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return util.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			herr := fmt.Errorf("safecast %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return herr
			}
			return util.Permanent(herr)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		var out []model.Measurement
		if err := json.Unmarshal(raw, &out); err != nil {
			return util.Permanent(fmt.Errorf("decode measurements: %w", err))
		}
		recs = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
