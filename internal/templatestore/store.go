package templatestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"hackov8/cert-service/models"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrInvalidFormat is returned when the uploaded payload is not one of
	// the accepted template image types.
	ErrInvalidFormat = errors.New("template image must be PNG, JPEG or SVG")
	// ErrPayloadTooLarge is returned when the uploaded payload exceeds the
	// configured size ceiling.
	ErrPayloadTooLarge = errors.New("template image exceeds size limit")
	// ErrNotFound is returned when no template exists for the given ID.
	ErrNotFound = errors.New("template not found")
)

// DefaultMaxImageBytes is the upload size ceiling applied when a store is
// constructed with a non-positive limit.
const DefaultMaxImageBytes = 5 << 20 // 5 MB

// Store owns certificate templates: the background image reference and the
// field-to-position mapping.
type Store interface {
	// Upload validates and stores a template background image, probing its
	// intrinsic pixel dimensions and seeding the default field mapping.
	Upload(ctx context.Context, imageData []byte, mimeType, hackathonID string) (models.Template, error)
	// SetPositions replaces the stored field mapping wholesale. It is not a
	// per-field patch: fields absent from the new mapping are gone.
	SetPositions(ctx context.Context, templateID string, positions models.FieldPositions) (models.Template, error)
	// Get returns the template or ErrNotFound.
	Get(ctx context.Context, templateID string) (models.Template, error)
}

// validateImage checks the MIME type and size ceiling and probes the
// intrinsic pixel dimensions of the payload. SVG is accepted but its
// dimensions are not validated (stdlib image cannot decode it), so an SVG
// template reports zero intrinsic dimensions.
func validateImage(imageData []byte, mimeType string, maxBytes int64) (width, height int, ext string, err error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if int64(len(imageData)) > maxBytes {
		return 0, 0, "", fmt.Errorf("%w: %d bytes (limit %d)", ErrPayloadTooLarge, len(imageData), maxBytes)
	}

	// Strip any media-type parameters, e.g. "image/png; charset=binary".
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch mime {
	case "image/png":
		ext = ".png"
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	case "image/svg+xml":
		// Accepted without dimension validation.
		return 0, 0, ".svg", nil
	default:
		return 0, 0, "", fmt.Errorf("%w: got %q", ErrInvalidFormat, mimeType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return cfg.Width, cfg.Height, ext, nil
}
