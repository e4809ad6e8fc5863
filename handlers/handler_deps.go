package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"hackov8/cert-service/internal/engine"
	"hackov8/cert-service/internal/registry"
	"hackov8/cert-service/internal/templatestore"
)

var validate = validator.New()

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Logger    *logrus.Logger
	Templates templatestore.Store
	Registry  registry.Registry
	Engine    *engine.Engine
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(logger *logrus.Logger, templates templatestore.Store, reg registry.Registry, eng *engine.Engine) *ApplicationHandler {
	return &ApplicationHandler{
		Logger:    logger,
		Templates: templates,
		Registry:  reg,
		Engine:    eng,
	}
}
