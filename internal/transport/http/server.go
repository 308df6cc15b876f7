package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/codesync-server/internal/auth"
	"github.com/vovakirdan/codesync-server/internal/config"
	"github.com/vovakirdan/codesync-server/internal/core"
	"github.com/vovakirdan/codesync-server/internal/store"
)

// NewServer builds the HTTP server: health check, the WebSocket session
// endpoint, and the REST surface for accounts and saved files.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, authService, st, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter wires all routes into a gin engine.
func NewRouter(hub *core.Hub, authService *auth.Service, st store.Store, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	// The socket endpoint is unauthenticated; the join payload carries the
	// display name supplied by the identity layer.
	r.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	api := r.Group("/api")

	apiHandlers := NewAPIHandlers(authService, logger)
	authGroup := api.Group("/auth")
	authGroup.POST("/register", apiHandlers.Register)
	authGroup.POST("/login", apiHandlers.Login)
	authGroup.POST("/guest", apiHandlers.Guest)
	authGroup.GET("/me", AuthMiddleware(authService, logger), apiHandlers.Me)

	fileHandlers := NewFileHandlers(st, logger)
	files := api.Group("/files", AuthMiddleware(authService, logger))
	files.POST("", fileHandlers.Create)
	files.GET("", fileHandlers.List)
	files.GET("/:id", fileHandlers.Get)
	files.PUT("/:id", fileHandlers.Update)
	files.DELETE("/:id", fileHandlers.Delete)

	return r
}
