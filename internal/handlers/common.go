// Package handlers provides the HTTP handlers for the taxonomy API.
package handlers

import (
	"net/http"

	"foodatlas-backend/pkg/api"
	"foodatlas-backend/pkg/config"
	appErrors "foodatlas-backend/pkg/errors"

	"go.uber.org/zap"
)

// resolveCity applies the deployment's partition scoping to a request
// city. Under scoping a missing city is a client error; otherwise the
// configured default city applies.
func resolveCity(cfg *config.Config, city string) (string, error) {
	if city != "" {
		return city, nil
	}
	if cfg.CityScoped {
		return "", appErrors.NewValidation("city is required")
	}
	return cfg.DefaultCity, nil
}

// handleServiceError converts service errors to appropriate HTTP responses.
// Generation failures get a distinct code so clients can render "no AI
// suggestion available" instead of a generic failure.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case appErrors.IsValidation(err):
		logger.Warn("validation error", zap.Error(err))
		api.Error(w, http.StatusBadRequest, err.Error())
	case appErrors.IsNotFound(err):
		logger.Warn("not found", zap.Error(err))
		api.Error(w, http.StatusNotFound, err.Error())
	case appErrors.IsProviderTimeout(err):
		logger.Error("generation provider timeout", zap.Error(err))
		api.ErrorWithCode(w, http.StatusBadGateway, "No AI suggestion available", "generation_timeout")
	case appErrors.IsGeneration(err):
		logger.Error("generation failed", zap.Error(err))
		api.ErrorWithCode(w, http.StatusBadGateway, "No AI suggestion available", "generation_failed")
	default:
		logger.Error("internal error", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "An internal error occurred")
	}
}
