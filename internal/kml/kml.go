// Package kml renders fetched measurements as a KML 2.2 document.
package kml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/survey-007/iran-radiation-live/internal/model"
)

const (
	Namespace   = "http://www.opengis.net/kml/2.2"
	DefaultName = "Safecast Radiation - Combined"

	timestampLayout = "2006-01-02 15:04 UTC"
	missingValue    = "unknown"
)

type kmlRoot struct {
	XMLName  xml.Name `xml:"http://www.opengis.net/kml/2.2 kml"`
	Document document `xml:"Document"`
}

type document struct {
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	Folders     []folder `xml:"Folder"`
}

type folder struct {
	Name       string      `xml:"name"`
	Placemarks []placemark `xml:"Placemark"`
}

type placemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Point       point  `xml:"Point"`
}

type point struct {
	Coordinates string `xml:"coordinates"`
}

// Builder turns a results mapping into a document.
type Builder struct {
	Name string // <Document><name>; DefaultName when empty
}

// Build renders one Folder per region, in insertion order, with one Placemark
// per record that has a position. Text content is XML-escaped.
func (b Builder) Build(res *model.Results, now time.Time) ([]byte, error) {
	name := b.Name
	if name == "" {
		name = DefaultName
	}
	doc := kmlRoot{Document: document{
		Name:        name,
		Description: "Updated: " + now.UTC().Format(timestampLayout),
	}}
	for _, region := range res.Regions() {
		f := folder{Name: region}
		for _, m := range res.Get(region) {
			if !m.HasPosition() {
				continue
			}
			f.Placemarks = append(f.Placemarks, newPlacemark(m))
		}
		doc.Document.Folders = append(doc.Document.Folders, f)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode kml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func newPlacemark(m model.Measurement) placemark {
	value := m.Value.String()
	if value == "" {
		value = missingValue
	}
	return placemark{
		Name:        value + " " + m.UnitOrDefault(),
		Description: "Captured at: " + m.CapturedAtOrDefault(),
		Point:       point{Coordinates: Coordinates(m)},
	}
}

// Coordinates formats a measurement position as lon,lat,0.
func Coordinates(m model.Measurement) string {
	return m.Longitude.String() + "," + m.Latitude.String() + ",0"
}

// Count returns how many placemarks Build would emit.
func Count(res *model.Results) int {
	n := 0
	for _, region := range res.Regions() {
		for _, m := range res.Get(region) {
			if m.HasPosition() {
				n++
			}
		}
	}
	return n
}
