package main

import (
	"errors"
	"net/http"

	"tournament-client/internal/nav"
	"tournament-client/internal/session"
	"tournament-client/pkg/logger"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires the gateway's HTTP surface.
// Keep this file free of session or guard logic: every page request becomes
// a navigation intent, and the three POSTs delegate to the session store.
func registerRoutes(r *gin.Engine, store *session.Store, router *nav.Router) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/login", func(c *gin.Context) {
		ok := store.Login(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
		if !ok {
			// Error presentation belongs to the view layer; the gateway only
			// sends the user back to the login view.
			logger.FromGin(c).Info("login rejected")
			c.Redirect(http.StatusSeeOther, nav.PathLogin)
			return
		}
		c.Redirect(http.StatusSeeOther, router.Current().Path)
	})

	r.POST("/register", func(c *gin.Context) {
		ok := store.Register(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
		if !ok {
			c.Redirect(http.StatusSeeOther, "/register")
			return
		}
		c.Redirect(http.StatusSeeOther, router.Current().Path)
	})

	r.POST("/logout", func(c *gin.Context) {
		store.Logout(c.Request.Context())
		c.Redirect(http.StatusSeeOther, router.Current().Path)
	})

	// Every other GET is a navigation intent.
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
			return
		}

		requested := c.Request.URL.Path
		route, err := router.Navigate(c.Request.Context(), requested)
		if err != nil {
			logger.FromGin(c).Warn("navigation rejected", "path", requested, "err", err)
			if errors.Is(err, nav.ErrNoRoute) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no such view"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "navigation failed"})
			return
		}

		if route.Path != requested {
			c.Redirect(http.StatusSeeOther, route.Path)
			return
		}

		// View rendering is an external concern; the gateway serves the
		// shell the views hang off of.
		snap := store.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"view":          route.Name,
			"path":          route.Path,
			"authenticated": snap.IsAuthenticated,
			"role":          snap.UserRole,
			"email":         snap.UserEmail,
		})
	})
}
