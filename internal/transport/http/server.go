package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/heatchat/internal/auth"
	"github.com/vovakirdan/heatchat/internal/config"
	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/proto"
)

// NewServer builds the development backend: the HTTP API and push channel
// the client consumes.
func NewServer(hub *core.Hub, jwtConfig *auth.JWTConfig, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.DevAddr,
		Handler:           NewRouter(hub, jwtConfig, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// NewRouter serves the push channel next to the gin API. The websocket
// handler stays outside gin so the connection can be hijacked.
func NewRouter(hub *core.Hub, jwtConfig *auth.JWTConfig, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, jwtConfig, logger))
	mux.Handle("/", newAPIRouter(hub, jwtConfig, logger))
	return mux
}

func newAPIRouter(hub *core.Hub, jwtConfig *auth.JWTConfig, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, proto.ErrorResponse{Code: core.ErrCodeNotFound, Error: "not found"})
	})

	users := newUserDirectory()
	messages := newMessageLog(hub)
	api := NewAPIHandlers(users, messages, jwtConfig, logger)

	router.GET("/health", healthHandler)
	router.POST("/authenticate", api.Authenticate)
	router.GET("/messages/last3", api.LastMessages)

	authed := router.Group("/")
	authed.Use(AuthMiddleware(jwtConfig, logger))
	authed.GET("/profile", api.Profile)
	authed.POST("/messages", api.CreateMessage)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
