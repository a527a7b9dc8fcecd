package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	DefaultUnit       = "µSv/h"
	DefaultCapturedAt = "Unknown Time"
)

// Region is a fixed search center used to query the measurement API.
type Region struct {
	Name       string  `yaml:"name"`
	Latitude   float64 `yaml:"latitude"`
	Longitude  float64 `yaml:"longitude"`
	DistanceKM int     `yaml:"distance_km"`
}

// Number keeps the textual form of a loosely typed JSON number.
// It accepts a JSON number, a numeric string, or null. Anything else is treated as absent.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")):
		*n = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = ""
			return nil
		}
		s = strings.TrimSpace(s)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			*n = ""
			return nil
		}
		*n = Number(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*n = Number(b)
	default:
		*n = ""
	}
	return nil
}

func (n Number) Present() bool { return n != "" }

func (n Number) Float() (float64, bool) {
	if n == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (n Number) String() string { return string(n) }

// Measurement is one record returned by the measurements endpoint.
// Only the fields this tool renders or archives are decoded.
type Measurement struct {
	ID           Number  `json:"id"`
	Latitude     Number  `json:"latitude"`
	Longitude    Number  `json:"longitude"`
	Value        Number  `json:"value"`
	Unit         *string `json:"unit"`
	CapturedAt   *string `json:"captured_at"`
	DeviceID     Number  `json:"device_id"`
	LocationName *string `json:"location_name"`
}

func (m Measurement) UnitOrDefault() string {
	if m.Unit == nil {
		return DefaultUnit
	}
	return *m.Unit
}

func (m Measurement) CapturedAtOrDefault() string {
	if m.CapturedAt == nil {
		return DefaultCapturedAt
	}
	return *m.CapturedAt
}

// HasPosition reports whether both coordinates are present and non-zero.
// A coordinate of exactly 0 counts as missing.
func (m Measurement) HasPosition() bool {
	lat, ok := m.Latitude.Float()
	if !ok || lat == 0 {
		return false
	}
	lon, ok := m.Longitude.Float()
	if !ok || lon == 0 {
		return false
	}
	return true
}

// FetchResult is either a list of records or the reason the fetch failed.
type FetchResult struct {
	Region  Region
	records []Measurement
	Err     error
}

func Success(r Region, records []Measurement) FetchResult {
	if records == nil {
		records = []Measurement{}
	}
	return FetchResult{Region: r, records: records}
}

func Failure(r Region, err error) FetchResult {
	return FetchResult{Region: r, Err: err}
}

func (f FetchResult) OK() bool { return f.Err == nil }

// Records returns the fetched records, or nil on failure.
func (f FetchResult) Records() []Measurement {
	if f.Err != nil {
		return nil
	}
	return f.records
}

// Results maps region names to records, preserving insertion order.
type Results struct {
	order []string
	byKey map[string][]Measurement
}

func NewResults() *Results {
	return &Results{byKey: make(map[string][]Measurement)}
}

// Add sets the records for a region. A repeated name keeps its original position.
func (r *Results) Add(region string, records []Measurement) {
	if _, ok := r.byKey[region]; !ok {
		r.order = append(r.order, region)
	}
	if records == nil {
		records = []Measurement{}
	}
	r.byKey[region] = records
}

func (r *Results) Regions() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Results) Get(region string) []Measurement { return r.byKey[region] }

func (r *Results) Len() int { return len(r.order) }

// Total is the number of records across all regions, positioned or not.
func (r *Results) Total() int {
	n := 0
	for _, recs := range r.byKey {
		n += len(recs)
	}
	return n
}
