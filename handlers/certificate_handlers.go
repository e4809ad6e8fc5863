package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"hackov8/cert-service/internal/registry"
	"hackov8/cert-service/utils"
)

// LookupQuery is the self-service retrieval query. The match is exact on all
// three fields after trimming, with only the email compared
// case-insensitively.
type LookupQuery struct {
	Name      string `query:"name" validate:"required"`
	Email     string `query:"email" validate:"required,email"`
	EventName string `query:"event_name" validate:"required"`
}

// VerifyCertificate godoc
// @Summary Verify a certificate by its identifier
// @Description Public verification read: returns the full certificate record, or a plain 404 when the identifier was never issued.
// @Tags certificates
// @Produce  json
// @Param   certificateId path string true "Certificate ID"
// @Success 200 {object} models.Certificate
// @Failure 404 "Certificate not found"
// @Router /certificates/verify/{certificateId} [get]
func (h *ApplicationHandler) VerifyCertificate(c *fiber.Ctx) error {
	certificateID := c.Params("certificateId")

	cert, err := h.Registry.GetByID(c.UserContext(), certificateID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Certificate not found")
		}
		h.Logger.Errorf("Error verifying certificate %s: %v", certificateID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not verify certificate")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, "Certificate verified", cert)
}

// LookupCertificate godoc
// @Summary Look up a certificate by recipient and event
// @Description Self-service retrieval by (name, email, event_name) query parameters. Lookup misses are reported as not found, never distinguishing whether the email belongs to a real recipient.
// @Tags certificates
// @Produce  json
// @Param   name query string true "Recipient name"
// @Param   email query string true "Recipient email"
// @Param   event_name query string true "Event name"
// @Success 200 {object} models.Certificate
// @Failure 400 "Missing or invalid query parameters"
// @Failure 404 "Certificate not found"
// @Router /certificates/lookup [get]
func (h *ApplicationHandler) LookupCertificate(c *fiber.Ctx) error {
	query := new(LookupQuery)
	if err := c.QueryParser(query); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse query: %v", err))
	}
	if err := validate.Struct(query); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Validation failed: %v", utils.FormatValidationErrors(err)))
	}

	cert, err := h.Registry.Find(c.UserContext(), query.Name, query.Email, query.EventName)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Certificate not found")
		}
		h.Logger.Errorf("Error looking up certificate for %s: %v", query.Email, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not look up certificate")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, "Certificate retrieved successfully", cert)
}

// ListHackathonCertificates godoc
// @Summary List certificates issued for a hackathon
// @Description Administrative enumeration of every certificate issued against one organizer context, in issue order.
// @Tags certificates
// @Produce  json
// @Param   hackathonId path string true "Hackathon ID"
// @Success 200 {array} models.Certificate
// @Router /hackathons/{hackathonId}/certificates [get]
func (h *ApplicationHandler) ListHackathonCertificates(c *fiber.Ctx) error {
	hackathonID := c.Params("hackathonId")

	certs, err := h.Registry.ListForHackathon(c.UserContext(), hackathonID)
	if err != nil {
		h.Logger.Errorf("Error listing certificates for hackathon %s: %v", hackathonID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not list certificates")
	}

	message := fmt.Sprintf("Retrieved %d certificates", len(certs))
	return utils.RespondWithJSON(c, fiber.StatusOK, message, certs)
}
