package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ubnetdef/injectengine/internal/config"
	"github.com/ubnetdef/injectengine/internal/db"
	"github.com/ubnetdef/injectengine/internal/http/api"
	adminapi "github.com/ubnetdef/injectengine/internal/http/api/admin/endpoints"
	authapi "github.com/ubnetdef/injectengine/internal/http/api/auth/endpoints"
	injectapi "github.com/ubnetdef/injectengine/internal/http/api/injects/endpoints"
	staffapi "github.com/ubnetdef/injectengine/internal/http/api/staff/endpoints"
	"github.com/ubnetdef/injectengine/internal/schedule"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, store db.Store, resolver *schedule.Resolver) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	root := r.Group("/api")

	api.MountGroup(root, api.GroupConfig{},
		authapi.PublicModule(cfg.JWTSecret, store),
	)

	api.MountGroup(root, api.GroupConfig{
		Auth:      true,
		SecretKey: cfg.JWTSecret,
		Users:     store,
	},
		// session endpoints that require auth
		authapi.SessionModule(cfg.JWTSecret, store),
		injectapi.Module(resolver, cfg.GroupBlue, cfg.GroupStaff, cfg.GroupAdmin),
	)

	api.MountGroup(root, api.GroupConfig{
		Prefix:    "/staff",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
		Users:     store,
		Groups:    []int{cfg.GroupStaff, cfg.GroupAdmin},
	},
		staffapi.Module(resolver, cfg.GroupBlue),
	)

	api.MountGroup(root, api.GroupConfig{
		Prefix:    "/admin",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
		Users:     store,
		Groups:    []int{cfg.GroupAdmin},
	},
		adminapi.Module(store, resolver),
	)
}
