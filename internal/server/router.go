package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"chatline/internal/auth"
	"chatline/internal/handler"
	"chatline/internal/hub"
	"chatline/internal/middleware"
	"chatline/internal/store"
)

type Deps struct {
	Store       *store.Store
	TokenConfig auth.TokenConfig
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	// One registry per process; the router and propagator get it handed in
	// rather than reaching for a shared global.
	registry := hub.NewRegistry()
	presence := hub.NewPresence(registry)
	delivery := hub.NewRouter(registry)
	receipts := hub.NewPropagator(registry)

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	authHandler := &handler.AuthHandler{Store: deps.Store, TokenConfig: deps.TokenConfig, LoginLimiter: loginLimiter}

	r.POST("/v1/auth/signup", authHandler.Signup)
	r.POST("/v1/auth/login", authHandler.Login)
	r.POST("/v1/auth/logout", authHandler.Logout)

	protected := r.Group("/v1")
	protected.Use(middleware.RequireAuth(deps.TokenConfig))
	protected.GET("/auth/me", authHandler.Me)
	protected.PUT("/auth/profile", authHandler.UpdateProfile)

	messageHandler := &handler.MessageHandler{Store: deps.Store, Router: delivery, Receipts: receipts}
	protected.GET("/users", messageHandler.ListUsers)
	protected.GET("/messages/:userID", messageHandler.History)
	protected.POST("/messages/:userID", messageHandler.Send)
	protected.PUT("/messages/:userID/read", messageHandler.MarkRead)

	wsHandler := &handler.WebSocketHandler{Registry: registry, Presence: presence, TokenConfig: deps.TokenConfig}
	r.GET("/ws", wsHandler.Serve)

	return r
}
