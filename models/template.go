package models

import (
	"time"
)

// Field names that every new template's mapping is seeded with. The key set
// is open-ended: a stored mapping may carry additional organizer-defined
// fields, but these five always exist after template creation.
const (
	FieldName      = "name"
	FieldRole      = "role"
	FieldHackathon = "hackathon"
	FieldDate      = "date"
	FieldQR        = "qr"
)

// Position describes where a field is drawn on the template image. X and Y
// are the anchor point in intrinsic pixel coordinates of the image (the
// rendered glyph is centered on the point). Text fields carry Color and
// FontSize; the QR field carries Size, the square side length of the glyph.
type Position struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Color    string `json:"color,omitempty"`
	FontSize int    `json:"fontSize,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// FieldPositions maps a field name to its Position on the template image.
type FieldPositions map[string]Position

// Clone returns an independent copy of the mapping. Generation runs snapshot
// the mapping through Clone so a concurrent position save cannot be observed
// half-applied mid-batch.
func (fp FieldPositions) Clone() FieldPositions {
	if fp == nil {
		return nil
	}
	out := make(FieldPositions, len(fp))
	for k, v := range fp {
		out[k] = v
	}
	return out
}

// DefaultPositions seeds every known field with a centered, non-overlapping
// default for an image of the given intrinsic dimensions, so a template is
// usable for generation immediately after upload. Unplaced fields simply
// render at these defaults.
func DefaultPositions(width, height int) FieldPositions {
	return FieldPositions{
		FieldHackathon: {X: width / 2, Y: height / 5, Color: "#1a1a1a", FontSize: 36},
		FieldName:      {X: width / 2, Y: 2 * height / 5, Color: "#1a1a1a", FontSize: 48},
		FieldRole:      {X: width / 2, Y: 3 * height / 5, Color: "#444444", FontSize: 28},
		FieldDate:      {X: width / 2, Y: 4 * height / 5, Color: "#444444", FontSize: 24},
		FieldQR:        {X: 17 * width / 20, Y: 4 * height / 5, Size: height / 5},
	}
}

// Template represents a stored certificate template: a background image plus
// the field-to-position mapping painted over it.
type Template struct {
	ID              string         `json:"id"`
	HackathonID     string         `json:"hackathon_id,omitempty"`
	ImageURL        string         `json:"image_url"`
	IntrinsicWidth  int            `json:"intrinsic_width"`
	IntrinsicHeight int            `json:"intrinsic_height"`
	FieldPositions  FieldPositions `json:"field_positions"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
