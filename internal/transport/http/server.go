package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/auth"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/store"
)

// NewServer builds the HTTP server with the REST API and the join endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(hub, authService, st, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler serves the join endpoint from a plain mux, since the websocket
// upgrade needs an unwrapped ResponseWriter, and hands everything else to gin.
func NewHandler(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("GET /ws/{room}", NewWSHandler(hub, cfg, logger))
	mux.Handle("/", NewRouter(hub, authService, st, cfg, logger))
	return mux
}

// NewRouter wires the REST routes onto a gin engine.
func NewRouter(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(authService, st, cfg.TokenTTL, logger)
	roomHandlers := NewRoomHandlers(st, hub.Registry(), logger)

	api := router.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)

	protected := api.Group("")
	protected.Use(AuthMiddleware(authService, logger))
	protected.GET("/me", apiHandlers.Me)
	protected.GET("/rooms", roomHandlers.ListRooms)
	protected.GET("/rooms/mine", roomHandlers.MyRooms)
	protected.GET("/rooms/online", roomHandlers.OnlineRooms)
	protected.POST("/rooms", roomHandlers.CreateRoom)
	protected.DELETE("/rooms/:id", roomHandlers.DeleteRoom)
	protected.GET("/rooms/:id/online", roomHandlers.Online)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
