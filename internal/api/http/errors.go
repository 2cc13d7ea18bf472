package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/galaxy/internal/api/middleware"
	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
	"github.com/GriffinCanCode/galaxy/internal/identity"
	"github.com/GriffinCanCode/galaxy/internal/infrastructure/tracing"
)

// Error codes returned in the "code" field
const (
	CodeInvalidRequest      = "invalid_request"
	CodeLayerAlreadyExists  = "layer_already_exists"
	CodeLayerNotFound       = "layer_not_found"
	CodeInvalidCredentials  = "invalid_credentials"
	CodeUserExists          = "user_exists"
	CodeInconsistentStorage = "inconsistent_storage"
	CodeInternal            = "internal_error"
)

func badRequest(c *gin.Context, err error) {
	middleware.Abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
}

// respondError maps domain errors onto HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrLayerAlreadyExists):
		middleware.Abort(c, http.StatusConflict, CodeLayerAlreadyExists, err.Error())
	case errors.Is(err, registry.ErrLayerNotFound):
		middleware.Abort(c, http.StatusNotFound, CodeLayerNotFound, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		middleware.Abort(c, http.StatusUnauthorized, CodeInvalidCredentials, err.Error())
	case errors.Is(err, identity.ErrUnauthenticated):
		middleware.Abort(c, http.StatusUnauthorized, middleware.CodeUnauthenticated, err.Error())
	case errors.Is(err, identity.ErrUserExists):
		middleware.Abort(c, http.StatusConflict, CodeUserExists, err.Error())
	case registry.IsConsistencyError(err):
		c.Error(err)
		middleware.Abort(c, http.StatusInternalServerError, CodeInconsistentStorage, "registry storage is inconsistent")
	default:
		c.Error(err)
		h.logger.Error("Request failed",
			append(tracing.Fields(c.Request.Context()),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)...,
		)
		middleware.Abort(c, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
