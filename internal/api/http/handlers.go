package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/galaxy/internal/api/middleware"
	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
	"github.com/GriffinCanCode/galaxy/internal/identity"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
	"github.com/GriffinCanCode/galaxy/internal/shared/utils"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	manager  *registry.Manager
	accounts *identity.Accounts
	backend  string
	started  time.Time
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(manager *registry.Manager, accounts *identity.Accounts, backend string) *Handlers {
	return &Handlers{
		manager:  manager,
		accounts: accounts,
		backend:  backend,
		started:  time.Now(),
		logger:   zap.NewNop(),
	}
}

// WithLogger sets the handlers' logger
func (h *Handlers) WithLogger(logger *zap.Logger) *Handlers {
	if logger != nil {
		h.logger = logger.Named("http")
	}
	return h
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "galaxy layer registry",
		"version": "0.1.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{
		Status:   "healthy",
		Backend:  h.backend,
		Accounts: h.accounts.Count(),
		Stats:    h.manager.Stats(),
		Uptime:   time.Since(h.started).Round(time.Second).String(),
	})
}

// Register creates an account
func (h *Handlers) Register(c *gin.Context) {
	var req types.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := utils.ValidateUsername(req.Username); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		badRequest(c, err)
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// Login issues a session token
func (h *Handlers) Login(c *gin.Context) {
	var req types.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.SessionResponse{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout revokes the presented token
func (h *Handlers) Logout(c *gin.Context) {
	if token, ok := middleware.BearerToken(c.GetHeader("Authorization")); ok {
		h.accounts.Logout(c.Request.Context(), token)
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated caller
func (h *Handlers) Me(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		middleware.Abort(c, http.StatusUnauthorized, middleware.CodeUnauthenticated, "not authenticated")
		return
	}

	account, ok := h.accounts.Account(c.Request.Context(), caller)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user_id": caller})
		return
	}
	c.JSON(http.StatusOK, account)
}

// CreateLayer registers a layer in the caller's namespace. The owner is
// always the authenticated caller; the body cannot name another user.
func (h *Handlers) CreateLayer(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		middleware.Abort(c, http.StatusUnauthorized, middleware.CodeUnauthenticated, "not authenticated")
		return
	}

	var req types.CreateLayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateLayerName(req.LayerName); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateLink(req.IPFSLink); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.manager.CreateLayer(c.Request.Context(), caller, req.LayerName, req.IPFSLink); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.LayerResponse{
		User:      caller,
		LayerName: req.LayerName,
		IPFSLink:  req.IPFSLink,
	})
}

// ResolveLink returns the link bound to a user's layer. Public.
// Path parameters win; the query form serves names containing '/'.
func (h *Handlers) ResolveLink(c *gin.Context) {
	user := paramOrQuery(c, "user")
	name := paramOrQuery(c, "name")

	if err := utils.ValidateUserID(user); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateLayerName(name); err != nil {
		badRequest(c, err)
		return
	}

	link, err := h.manager.ResolveLink(c.Request.Context(), types.UserID(user), name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.LayerResponse{
		User:      types.UserID(user),
		LayerName: name,
		IPFSLink:  link,
	})
}

// ListLayers returns a user's layers in registration order. Public.
func (h *Handlers) ListLayers(c *gin.Context) {
	user := c.Param("user")
	if err := utils.ValidateUserID(user); err != nil {
		badRequest(c, err)
		return
	}

	layers, err := h.manager.Layers(c.Request.Context(), types.UserID(user))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.LayerListResponse{
		User:   types.UserID(user),
		Layers: layers,
		Count:  len(layers),
	})
}

func paramOrQuery(c *gin.Context, key string) string {
	if v := c.Param(key); v != "" {
		return v
	}
	return c.Query(key)
}
