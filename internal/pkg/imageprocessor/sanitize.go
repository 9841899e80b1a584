// Package imageprocessor normalises evidence photos before they are stored:
// orientation is applied, oversized images are scaled down and the result
// is re-encoded as JPEG, which drops EXIF data such as GPS coordinates.
package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
)

const (
	DefaultMaxDimension = 2048
	JPEGQuality         = 85
)

var ErrNotAnImage = errors.New("file is not a decodable image")

// Evidence is a sanitized photo ready for the blob store.
type Evidence struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
	// Metadata is what the original carried, nil if nothing.
	Metadata *Metadata
}

// SanitizeEvidence decodes data, applies EXIF orientation, fits it within
// maxDimension on both sides and re-encodes it as JPEG.
func SanitizeEvidence(data []byte, maxDimension int) (*Evidence, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}

	md := ReadMetadata(data)

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	b := img.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode evidence photo: %w", err)
	}

	if md.HasGPS() {
		log.Debugf("[ImageProcessor] Stripped GPS data (%.5f, %.5f) from evidence photo", *md.Latitude, *md.Longitude)
	}

	out := img.Bounds()
	return &Evidence{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Ext:         ".jpg",
		Width:       out.Dx(),
		Height:      out.Dy(),
		Metadata:    md,
	}, nil
}
