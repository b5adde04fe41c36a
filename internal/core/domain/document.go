package domain

import (
	"regexp"
	"strings"
	"time"
)

// PathwayName identifies one of the interchangeable document generation mechanisms.
type PathwayName string

const (
	PathwayLocal  PathwayName = "local"
	PathwayRemote PathwayName = "remote"
)

// Other returns the alternate pathway.
func (p PathwayName) Other() PathwayName {
	if p == PathwayLocal {
		return PathwayRemote
	}
	return PathwayLocal
}

const ContentTypePDF = "application/pdf"

// Document is a generated itinerary payload.
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
	Pathway     PathwayName
	RequestID   string
	GeneratedAt time.Time
}

// Size returns the payload length in bytes.
func (d *Document) Size() int {
	if d == nil {
		return 0
	}
	return len(d.Data)
}

var nonFilename = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename builds "<destination>-<customer>-<start date>.pdf" from the request.
// It falls back to a timestamped name when the request carries none of them.
func Filename(req *ItineraryRequest, now time.Time) string {
	if req == nil {
		return defaultFilename(now)
	}

	var parts []string
	if req.Trip.Destination != "" {
		parts = append(parts, nonFilename.ReplaceAllString(req.Trip.Destination, "-"))
	}
	if req.Customer.Name != "" {
		parts = append(parts, nonFilename.ReplaceAllString(req.Customer.Name, "-"))
	}
	if req.Trip.StartDate != "" {
		if t, ok := ParseDate(req.Trip.StartDate); ok {
			parts = append(parts, t.Format("2006-01-02"))
		}
	}

	if len(parts) == 0 {
		return defaultFilename(now)
	}
	return strings.Join(parts, "-") + ".pdf"
}

func defaultFilename(now time.Time) string {
	return "itinerary-" + now.UTC().Format("2006-01-02T15-04-05") + ".pdf"
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02/01/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate accepts the date layouts the form and the remote service produce.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
