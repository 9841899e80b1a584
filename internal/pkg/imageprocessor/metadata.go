package imageprocessor

import (
	"bytes"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// Metadata is the EXIF information read from an uploaded photo before it is
// re-encoded without it.
type Metadata struct {
	CameraModel string
	TakenAt     *time.Time
	Latitude    *float64
	Longitude   *float64
}

// HasGPS reports whether the photo carried coordinates.
func (m *Metadata) HasGPS() bool {
	return m != nil && m.Latitude != nil && m.Longitude != nil
}

// ReadMetadata returns nil when the data carries no EXIF block.
func ReadMetadata(data []byte) *Metadata {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	md := &Metadata{}
	if m, err := x.Get(exif.Model); err == nil {
		md.CameraModel = strings.TrimSpace(strings.Trim(m.String(), `"`))
	}
	if dt, err := x.DateTime(); err == nil {
		md.TakenAt = &dt
	}
	if lat, long, err := x.LatLong(); err == nil {
		md.Latitude = &lat
		md.Longitude = &long
	}
	return md
}
