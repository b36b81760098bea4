// Package router builds the Gin engine: global middleware, health probes,
// the versioned route groups, and module route registration.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "barberia_backend/internal/http"
	"barberia_backend/internal/http/middleware"
	"barberia_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const readyzTimeout = 3 * time.Second

func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	globalLimiter := httpkit.NewIPRateLimiter(rate.Limit(50), 100, app.Logger)
	engine.Use(globalLimiter.RateLimit())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/readyz", readyz(app))

	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.SessionAuth(app.Config, app.Sessions))
	admin := v1.Group("/admin")
	admin.Use(middleware.SessionAuth(app.Config, app.Sessions), middleware.RequireAdmin())

	ctx := &apphttp.RouterContext{
		Engine:          engine,
		V1:              v1,
		Protected:       protected,
		Admin:           admin,
		Config:          app.Config,
		AuthRateLimiter: httpkit.NewAuthRateLimiter(app.Logger),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("module routes registered", "module", module.Name())
	}

	return engine
}

// readyz pings every registered dependency concurrently and reports 503 when
// any of them fails.
func readyz(app *apphttp.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, gctx := errgroup.WithContext(c.Request.Context())
		for name, check := range app.Checks {
			name, check := name, check
			g.Go(func() error {
				pingCtx, pingCancel := context.WithTimeout(gctx, readyzTimeout)
				defer pingCancel()
				if err := check.Ping(pingCtx); err != nil {
					app.Logger.Warn("readiness check failed", "dependency", name, "error", err)
					return err
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: app.Config.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if app.Config.GetCORSAllowAll() {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = app.Config.GetCORSOrigins()
	}
	return cors.New(cfg)
}
