package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mystik-app/backend/internal/admin"
	"github.com/mystik-app/backend/internal/auth"
	"github.com/mystik-app/backend/internal/metrics"
	"github.com/mystik-app/backend/internal/middleware"
	"github.com/mystik-app/backend/internal/models"
	"github.com/mystik-app/backend/internal/registrations"
	"github.com/mystik-app/backend/internal/waitlist"
	"github.com/mystik-app/backend/pkg/response"
)

// routerDeps are the handlers and settings the HTTP surface is built from.
type routerDeps struct {
	JWT            *auth.JWTService
	Metrics        *metrics.Metrics
	Registrations  *registrations.Handler
	Waitlist       *waitlist.Handler
	Auth           *auth.Handler
	Admin          *admin.Handler
	CORSOrigins    string
	RequestTimeout time.Duration
}

func newRouter(d routerDeps, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(d.CORSOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(d.Metrics))

	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := router.Group("")
	api.Use(middleware.APIKey(d.JWT), middleware.Timeout(d.RequestTimeout))
	{
		api.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
		d.Registrations.Register(api)
		api.POST("/waitlist", d.Waitlist.Subscribe)
		api.POST("/admin/login", d.Auth.Login)
	}

	adminGroup := api.Group("")
	adminGroup.Use(middleware.RequireRole(models.RoleAdmin, models.RoleServiceRole))
	d.Admin.Register(adminGroup)

	return router
}
