package http

import (
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/galaxy/internal/api/middleware"
	"github.com/GriffinCanCode/galaxy/internal/identity"
)

// Routes registers the REST endpoints on r. Layer creation and /auth/me
// require a bearer token.
func (h *Handlers) Routes(r gin.IRouter, source identity.Source) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", middleware.Authenticate(source), h.Me)

		v1.GET("/users/:user/layers", h.ListLayers)
		v1.GET("/users/:user/layers/:name", h.ResolveLink)
		v1.GET("/resolve", h.ResolveLink)

		private := v1.Group("", middleware.Authenticate(source))
		private.POST("/layers", h.CreateLayer)
	}
}
