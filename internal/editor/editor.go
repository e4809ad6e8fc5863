// Package editor implements the coordinate-capture flow for placing template
// fields. Clicks arrive in display-space pixels of however the browser
// scaled the template image; the editor converts them to the image's
// intrinsic pixel space before anything is stored, so a template previewed
// at half size still renders its fields in the right place at full size.
package editor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"hackov8/cert-service/internal/templatestore"
	"hackov8/cert-service/models"
)

// State is the editor's selection state.
type State int

const (
	// StateIdle means no field is selected; placements are rejected.
	StateIdle State = iota
	// StateFieldSelected means a field is selected and the next placement
	// commits to it.
	StateFieldSelected
)

var (
	// ErrUnknownField is returned when selecting a field the template's
	// mapping does not contain.
	ErrUnknownField = errors.New("unknown template field")
	// ErrNoSelection is returned when placing without a selected field.
	ErrNoSelection = errors.New("no field selected")
	// ErrInvalidViewport is returned when the reported display dimensions
	// are not positive.
	ErrInvalidViewport = errors.New("display dimensions must be positive")
	// ErrSelectionPending is returned when committing while a field is
	// still selected and unplaced.
	ErrSelectionPending = errors.New("field selection pending placement")
)

// Editor is a single-selection state machine over one template's fields.
// It works on a private copy of the mapping; nothing reaches the store
// until Commit.
type Editor struct {
	store     templatestore.Store
	template  models.Template
	positions models.FieldPositions
	state     State
	selected  string
}

// New opens an editor over the template. Templates always carry at least
// their default mapping, so the editor is immediately usable.
func New(store templatestore.Store, template models.Template) *Editor {
	positions := template.FieldPositions.Clone()
	if positions == nil {
		positions = models.DefaultPositions(template.IntrinsicWidth, template.IntrinsicHeight)
	}
	return &Editor{
		store:     store,
		template:  template,
		positions: positions,
		state:     StateIdle,
	}
}

// State returns the current selection state.
func (e *Editor) State() State { return e.state }

// Selected returns the currently selected field name, or "" in Idle.
func (e *Editor) Selected() string { return e.selected }

// Positions returns a copy of the working mapping.
func (e *Editor) Positions() models.FieldPositions { return e.positions.Clone() }

// SelectField selects the field the next placement will commit to.
// Selecting while another field is already selected just switches the
// selection.
func (e *Editor) SelectField(field string) error {
	if _, ok := e.positions[field]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	e.selected = field
	e.state = StateFieldSelected
	return nil
}

// PlaceAt records a click at (displayX, displayY) on a preview rendered at
// displayWidth x displayHeight. The click is scaled into intrinsic
// coordinates and clamped to the image bounds; the field's existing style
// (color, font size, QR size) is preserved. The editor returns to Idle.
func (e *Editor) PlaceAt(displayX, displayY, displayWidth, displayHeight float64) (models.Position, error) {
	if e.state != StateFieldSelected {
		return models.Position{}, ErrNoSelection
	}
	if displayWidth <= 0 || displayHeight <= 0 {
		return models.Position{}, fmt.Errorf("%w: %gx%g", ErrInvalidViewport, displayWidth, displayHeight)
	}

	x := toIntrinsic(displayX, displayWidth, e.template.IntrinsicWidth)
	y := toIntrinsic(displayY, displayHeight, e.template.IntrinsicHeight)

	pos := e.positions[e.selected]
	pos.X = x
	pos.Y = y
	e.positions[e.selected] = pos

	e.selected = ""
	e.state = StateIdle
	return pos, nil
}

// Commit writes the full working mapping to the store, wholesale. It is
// only legal from Idle: a dangling selection means the user has not decided
// where the field goes yet.
func (e *Editor) Commit(ctx context.Context) (models.Template, error) {
	if e.state != StateIdle {
		return models.Template{}, fmt.Errorf("%w: %q", ErrSelectionPending, e.selected)
	}
	tpl, err := e.store.SetPositions(ctx, e.template.ID, e.positions.Clone())
	if err != nil {
		return models.Template{}, err
	}
	e.template = tpl
	return tpl, nil
}

// toIntrinsic converts one display coordinate to intrinsic space and clamps
// it into [0, intrinsic]. Out-of-bounds clicks are clamped rather than
// rejected so a later re-display at another scale still gets a sane overlay.
// A zero intrinsic dimension (SVG template) keeps display coordinates as-is:
// there are no pixel bounds to scale into.
func toIntrinsic(display, displaySpan float64, intrinsic int) int {
	if intrinsic == 0 {
		return int(math.Round(display))
	}
	scaled := math.Round(display * (float64(intrinsic) / displaySpan))
	if scaled < 0 {
		return 0
	}
	if scaled > float64(intrinsic) {
		return intrinsic
	}
	return int(scaled)
}
