package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"hackov8/cert-service/internal/roster"
	"hackov8/cert-service/internal/templatestore"
	"hackov8/cert-service/models"
	"hackov8/cert-service/utils"
)

// GenerationResponse is the batch result reported to the caller: a success
// count even when zero, itemized row failures, and how many issued rows
// duplicated an earlier certificate for the same recipient and event.
type GenerationResponse struct {
	CertificatesGenerated int                  `json:"certificates_generated"`
	Certificates          []models.Certificate `json:"certificates"`
	Errors                []models.RowError    `json:"errors"`
	Duplicates            int                  `json:"duplicates"`
}

// GenerateForTemplate godoc
// @Summary Generate certificates from a stored template
// @Description Parses the uploaded roster CSV and renders one certificate per valid row using the template's stored field positions. Row-level failures are reported alongside successes, never aborting the batch.
// @Tags certificates
// @Accept  multipart/form-data
// @Produce  json
// @Param   id path string true "Template ID"
// @Param   csv formData file true "Roster CSV with header Name,Email,Role"
// @Param   event_name formData string true "Event name printed on the certificates"
// @Success 200 {object} GenerationResponse
// @Failure 400 "Missing fields or malformed CSV header"
// @Failure 404 "Template not found"
// @Router /templates/{id}/generate [post]
func (h *ApplicationHandler) GenerateForTemplate(c *fiber.Ctx) error {
	templateID := c.Params("id")

	eventName := c.FormValue("event_name")
	if eventName == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "event_name is required")
	}

	template, err := h.Templates.Get(c.UserContext(), templateID)
	if err != nil {
		if errors.Is(err, templatestore.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, fmt.Sprintf("Template %s not found", templateID))
		}
		h.Logger.Errorf("Error fetching template %s for generation: %v", templateID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not fetch template")
	}

	return h.runGeneration(c, template, eventName)
}

// GenerateStandalone godoc
// @Summary Generate certificates without a stored template
// @Description One-shot variant: the caller supplies the organization name, the background image reference and the serialized field positions inline, so no prior template persistence is assumed.
// @Tags certificates
// @Accept  multipart/form-data
// @Produce  json
// @Param   csv formData file true "Roster CSV with header Name,Email,Role"
// @Param   organization formData string true "Organization or event name printed on the certificates"
// @Param   image_url formData string true "Background image reference passed to the renderer"
// @Param   positions formData string true "Field positions mapping, JSON-serialized"
// @Success 200 {object} GenerationResponse
// @Failure 400 "Missing fields, invalid positions or malformed CSV header"
// @Router /certificates/generate [post]
func (h *ApplicationHandler) GenerateStandalone(c *fiber.Ctx) error {
	organization := c.FormValue("organization")
	if organization == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "organization is required")
	}
	imageURL := c.FormValue("image_url")
	if imageURL == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "image_url is required")
	}
	positionsJSON := c.FormValue("positions")
	if positionsJSON == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "positions is required")
	}

	var positions models.FieldPositions
	if err := json.Unmarshal([]byte(positionsJSON), &positions); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse positions JSON: %v", err))
	}
	if len(positions) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Positions mapping must not be empty")
	}

	template := models.Template{
		ImageURL:       imageURL,
		FieldPositions: positions,
	}
	return h.runGeneration(c, template, organization)
}

// SampleRoster godoc
// @Summary Download the roster CSV template
// @Description Returns a sample CSV with the required Name,Email,Role header for callers to fill in.
// @Tags certificates
// @Produce  text/csv
// @Success 200 "Sample CSV"
// @Router /certificates/sample-csv [get]
func (h *ApplicationHandler) SampleRoster(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="certificate_roster_template.csv"`)
	return c.Status(fiber.StatusOK).Send(roster.SampleCSV())
}

// runGeneration parses the uploaded roster and runs the batch against the
// given template, merging parse-time row errors with render-time failures so
// every reported row index refers to the caller's original CSV.
func (h *ApplicationHandler) runGeneration(c *fiber.Ctx, template models.Template, eventName string) error {
	fileHeader, err := c.FormFile("csv")
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Missing csv file: %v", err))
	}
	csvData, err := readFormFile(fileHeader)
	if err != nil {
		h.Logger.Errorf("Error reading roster CSV: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not read uploaded CSV")
	}

	parsed, err := roster.Parse(csvData)
	if err != nil {
		if errors.Is(err, roster.ErrMalformedCSV) {
			return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
		}
		h.Logger.Errorf("Error parsing roster CSV: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not parse uploaded CSV")
	}

	run := h.Engine.Generate(c.UserContext(), template, parsed.Recipients, eventName)

	// Engine failures are indexed by position in the recipients slice;
	// map them back to the CSV's original data-row indices.
	rowErrors := append([]models.RowError{}, parsed.RowErrors...)
	for _, failure := range run.Failures() {
		rowErrors = append(rowErrors, models.RowError{
			Row:    parsed.Recipients[failure.Row].Row,
			Reason: failure.Reason,
		})
	}

	response := GenerationResponse{
		CertificatesGenerated: run.Issued(),
		Certificates:          run.Certificates(),
		Errors:                rowErrors,
		Duplicates:            run.Duplicates(),
	}
	message := fmt.Sprintf("Generated %d certificates (%d failures)", response.CertificatesGenerated, len(response.Errors))
	return utils.RespondWithJSON(c, fiber.StatusOK, message, response)
}

// readFormFile reads a multipart file part fully into memory.
func readFormFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
