package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"hackov8/cert-service/internal/editor"
	"hackov8/cert-service/internal/templatestore"
	"hackov8/cert-service/models"
	"hackov8/cert-service/utils"
)

// PositionPayload is one entry of a position-save request. X and Y are
// pointers so a zero coordinate is distinguishable from a missing one.
type PositionPayload struct {
	X        *int   `json:"x" validate:"required"`
	Y        *int   `json:"y" validate:"required"`
	Color    string `json:"color,omitempty"`
	FontSize int    `json:"fontSize,omitempty" validate:"omitempty,gt=0"`
	Size     int    `json:"size,omitempty" validate:"omitempty,gt=0"`
}

// UploadTemplate godoc
// @Summary Upload a certificate template background image
// @Description Accepts a PNG/JPEG (or SVG) background via multipart form-data, probes its intrinsic dimensions and seeds the default field positions.
// @Tags templates
// @Accept  multipart/form-data
// @Produce  json
// @Param   image formData file true "Template background image"
// @Param   hackathon_id formData string false "Owning hackathon context"
// @Success 201 {object} models.Template "Template created with default positions"
// @Failure 400 "Missing or unreadable image part"
// @Failure 413 "Image exceeds the size ceiling"
// @Failure 415 "Unsupported image type"
// @Router /templates [post]
func (h *ApplicationHandler) UploadTemplate(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		h.Logger.Errorf("Error getting template image from request: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Missing image file: %v", err))
	}
	hackathonID := c.FormValue("hackathon_id")

	file, err := fileHeader.Open()
	if err != nil {
		h.Logger.Errorf("Error opening uploaded template image: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not read uploaded image")
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		h.Logger.Errorf("Error reading uploaded template image: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not read uploaded image")
	}

	template, err := h.Templates.Upload(c.UserContext(), imageData, fileHeader.Header.Get("Content-Type"), hackathonID)
	if err != nil {
		switch {
		case errors.Is(err, templatestore.ErrInvalidFormat):
			return utils.RespondWithError(c, fiber.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, templatestore.ErrPayloadTooLarge):
			return utils.RespondWithError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		default:
			h.Logger.Errorf("Error storing template: %v", err)
			return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not store template")
		}
	}

	h.Logger.Infof("Template %s created (%dx%d) for hackathon %q", template.ID, template.IntrinsicWidth, template.IntrinsicHeight, hackathonID)
	return utils.RespondWithJSON(c, fiber.StatusCreated, "Template created successfully", template)
}

// GetTemplate godoc
// @Summary Get a template
// @Description Returns the template with its image reference, intrinsic dimensions and field positions.
// @Tags templates
// @Produce  json
// @Param   id path string true "Template ID"
// @Success 200 {object} models.Template
// @Failure 404 "Template not found"
// @Router /templates/{id} [get]
func (h *ApplicationHandler) GetTemplate(c *fiber.Ctx) error {
	templateID := c.Params("id")

	template, err := h.Templates.Get(c.UserContext(), templateID)
	if err != nil {
		if errors.Is(err, templatestore.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, fmt.Sprintf("Template %s not found", templateID))
		}
		h.Logger.Errorf("Error fetching template %s: %v", templateID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not fetch template")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, "Template retrieved successfully", template)
}

// SavePositions godoc
// @Summary Save a template's field positions
// @Description Replaces the stored field-to-position mapping wholesale. Coordinates are intrinsic image pixels, not display pixels.
// @Tags templates
// @Accept  json
// @Produce  json
// @Param   id path string true "Template ID"
// @Param   positions body map[string]PositionPayload true "Field positions keyed by field name"
// @Success 200 {object} models.Template "Stored template echoed back"
// @Failure 400 "Malformed or invalid mapping"
// @Failure 404 "Template not found"
// @Router /templates/{id}/positions [put]
func (h *ApplicationHandler) SavePositions(c *fiber.Ctx) error {
	templateID := c.Params("id")

	payload := make(map[string]PositionPayload)
	if err := c.BodyParser(&payload); err != nil {
		h.Logger.Errorf("Error parsing positions payload for template %s: %v", templateID, err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse positions JSON: %v", err))
	}
	if len(payload) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Positions mapping must not be empty")
	}

	positions := make(models.FieldPositions, len(payload))
	for field, p := range payload {
		if err := validate.Struct(p); err != nil {
			return utils.RespondWithError(c, fiber.StatusBadRequest,
				fmt.Sprintf("Invalid position for field %q: %v", field, utils.FormatValidationErrors(err)))
		}
		positions[field] = models.Position{
			X:        *p.X,
			Y:        *p.Y,
			Color:    p.Color,
			FontSize: p.FontSize,
			Size:     p.Size,
		}
	}

	template, err := h.Templates.SetPositions(c.UserContext(), templateID, positions)
	if err != nil {
		if errors.Is(err, templatestore.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, fmt.Sprintf("Template %s not found", templateID))
		}
		h.Logger.Errorf("Error saving positions for template %s: %v", templateID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not save positions")
	}

	h.Logger.Infof("Positions saved for template %s (%d fields)", templateID, len(positions))
	return utils.RespondWithJSON(c, fiber.StatusOK, "Positions saved successfully", template)
}

// PlaceFieldRequest carries a click captured on the template preview, in
// display-space pixels of however the preview was scaled.
type PlaceFieldRequest struct {
	DisplayX      float64 `json:"display_x"`
	DisplayY      float64 `json:"display_y"`
	DisplayWidth  float64 `json:"display_width" validate:"required,gt=0"`
	DisplayHeight float64 `json:"display_height" validate:"required,gt=0"`
}

// PlaceField godoc
// @Summary Place one field from a preview click
// @Description Converts display-space click coordinates to the image's intrinsic pixel space, clamps them into bounds, updates the field's position (style preserved) and persists the mapping.
// @Tags templates
// @Accept  json
// @Produce  json
// @Param   id path string true "Template ID"
// @Param   field path string true "Field name"
// @Param   click body PlaceFieldRequest true "Click in display coordinates"
// @Success 200 {object} models.Template "Stored template with the updated position"
// @Failure 400 "Unknown field or invalid display dimensions"
// @Failure 404 "Template not found"
// @Router /templates/{id}/positions/{field} [patch]
func (h *ApplicationHandler) PlaceField(c *fiber.Ctx) error {
	templateID := c.Params("id")
	field := c.Params("field")

	payload := new(PlaceFieldRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse placement JSON: %v", err))
	}
	if err := validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Validation failed: %v", utils.FormatValidationErrors(err)))
	}

	template, err := h.Templates.Get(c.UserContext(), templateID)
	if err != nil {
		if errors.Is(err, templatestore.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, fmt.Sprintf("Template %s not found", templateID))
		}
		h.Logger.Errorf("Error fetching template %s for placement: %v", templateID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not fetch template")
	}

	ed := editor.New(h.Templates, template)
	if err := ed.SelectField(field); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
	}
	position, err := ed.PlaceAt(payload.DisplayX, payload.DisplayY, payload.DisplayWidth, payload.DisplayHeight)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
	}
	updated, err := ed.Commit(c.UserContext())
	if err != nil {
		h.Logger.Errorf("Error committing placement for template %s: %v", templateID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not save placement")
	}

	h.Logger.Infof("Field %q placed at (%d,%d) on template %s", field, position.X, position.Y, templateID)
	return utils.RespondWithJSON(c, fiber.StatusOK, fmt.Sprintf("Field %q placed", field), updated)
}
