package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the API surface on the app.
func RegisterRoutes(app *fiber.App, h *ApplicationHandler) {
	// Health check route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Certificate service is healthy",
		})
	})

	apiV1 := app.Group("/api/v1")

	// Template routes
	apiV1.Post("/templates", h.UploadTemplate)
	apiV1.Get("/templates/:id", h.GetTemplate)
	apiV1.Put("/templates/:id/positions", h.SavePositions)
	apiV1.Patch("/templates/:id/positions/:field", h.PlaceField)
	apiV1.Post("/templates/:id/generate", h.GenerateForTemplate)

	// Certificate routes
	apiV1.Post("/certificates/generate", h.GenerateStandalone)
	apiV1.Get("/certificates/sample-csv", h.SampleRoster)
	apiV1.Get("/certificates/verify/:certificateId", h.VerifyCertificate)
	apiV1.Get("/certificates/lookup", h.LookupCertificate)

	// Organizer routes
	apiV1.Get("/hackathons/:hackathonId/certificates", h.ListHackathonCertificates)
}
