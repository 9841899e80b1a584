package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ecocheck/ecocheck/internal/pkg/blobstore"
	"github.com/ecocheck/ecocheck/internal/pkg/imageprocessor"
	"github.com/ecocheck/ecocheck/internal/pkg/upload"
)

// PhotoOptions bounds accepted uploads.
type PhotoOptions struct {
	MaxBytes     int64
	MaxDimension int
}

// storedPhoto is an evidence photo written to the blob store.
type storedPhoto struct {
	URL      string
	Key      string
	Metadata *imageprocessor.Metadata
}

// errBadPhoto marks a client side photo problem.
var errBadPhoto = errors.New("invalid photo")

// photoInput returns the uploaded file for field, or nil when the request
// has none.
func photoInput(c *fiber.Ctx, field string) *multipart.FileHeader {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}

// storePhoto validates, sanitizes and stores an uploaded photo, returning
// where it went. Errors wrapping errBadPhoto are the client's fault.
func storePhoto(ctx context.Context, store blobstore.Store, opts PhotoOptions, fh *multipart.FileHeader, prefix string) (*storedPhoto, error) {
	if err := upload.CheckSize(fh.Size, opts.MaxBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPhoto, err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if _, err := upload.ValidateImageBySniff(fh.Filename, head); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPhoto, err)
	}

	ev, err := imageprocessor.SanitizeEvidence(data, opts.MaxDimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPhoto, err)
	}

	key := blobstore.ObjectKey(prefix, ev.Ext, time.Now().UTC())
	url, err := store.Put(ctx, key, ev.ContentType, ev.Data)
	if err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}
	log.Infof("[API] Stored %s photo %s (%dx%d, %d bytes)", prefix, key, ev.Width, ev.Height, len(ev.Data))
	return &storedPhoto{URL: url, Key: key, Metadata: ev.Metadata}, nil
}

// discardPhoto removes a stored photo whose report write was refused.
func discardPhoto(ctx context.Context, store blobstore.Store, p *storedPhoto) {
	if p == nil {
		return
	}
	if err := store.Delete(context.WithoutCancel(ctx), p.Key); err != nil {
		log.Warnf("[API] Could not remove orphaned photo %s: %v", p.Key, err)
	}
}

func respondPhotoError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errBadPhoto) {
		return badRequest(c, err.Error())
	}
	return respondError(c, err)
}
