package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/heatchat/internal/auth"
	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/proto"
)

const lastMessagesLimit = 3

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	users     *userDirectory
	messages  *messageLog
	jwtConfig *auth.JWTConfig
	log       *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(users *userDirectory, messages *messageLog, jwtConfig *auth.JWTConfig, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		users:     users,
		messages:  messages,
		jwtConfig: jwtConfig,
		log:       logger,
	}
}

// Authenticate exchanges an authorization code for a token and the user.
// POST /authenticate
func (h *APIHandlers) Authenticate(c *gin.Context) {
	var req proto.AuthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid authenticate request")
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Code: core.ErrCodeBadRequest, Error: "invalid request body"})
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Code: core.ErrCodeInvalidCode, Error: "code is required"})
		return
	}

	user := h.users.userForCode(code)
	token, err := auth.GenerateToken(h.jwtConfig, user.ID, user.Login)
	if err != nil {
		h.log.Error().Err(err).Str("login", user.Login).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, proto.ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("login", user.Login).Msg("user authenticated")
	c.JSON(http.StatusOK, proto.AuthResponse{Token: token, User: proto.UserFromCore(user)})
}

// Profile returns the authenticated user.
// GET /profile
func (h *APIHandlers) Profile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, proto.ErrorResponse{Code: core.ErrCodeUnauthorized, Error: "unknown user"})
		return
	}
	c.JSON(http.StatusOK, proto.UserFromCore(user))
}

// LastMessages returns the three most recent messages, newest first.
// GET /messages/last3
func (h *APIHandlers) LastMessages(c *gin.Context) {
	msgs := h.messages.last(lastMessagesLimit)
	out := make([]proto.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, proto.MessageFromCore(m))
	}
	c.JSON(http.StatusOK, out)
}

// CreateMessage stores a message and pushes it to subscribers.
// POST /messages
func (h *APIHandlers) CreateMessage(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, proto.ErrorResponse{Code: core.ErrCodeUnauthorized, Error: "unknown user"})
		return
	}

	var req proto.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Code: core.ErrCodeBadRequest, Error: "text is required"})
		return
	}

	msg := h.messages.add(user, req.Text)
	h.log.Debug().Str("id", msg.ID).Str("login", user.Login).Msg("message created")
	c.JSON(http.StatusCreated, proto.MessageFromCore(msg))
}

// currentUser resolves the user from the claims set by AuthMiddleware.
// Users are derived from their login, so a token outlives a server restart.
func (h *APIHandlers) currentUser(c *gin.Context) (core.User, bool) {
	id := c.GetString(ContextKeyUserID)
	if u, ok := h.users.get(id); ok {
		return u, true
	}
	login := c.GetString(ContextKeyLogin)
	if login == "" {
		return core.User{}, false
	}
	u := h.users.userForCode(login)
	if u.ID != id {
		return core.User{}, false
	}
	return u, true
}
