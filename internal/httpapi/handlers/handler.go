package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/dating-platform/internal/chat"
	"github.com/suPer8Hu/dating-platform/internal/common"
	"github.com/suPer8Hu/dating-platform/internal/config"
	"github.com/suPer8Hu/dating-platform/internal/httpapi/middleware"
	"github.com/suPer8Hu/dating-platform/internal/logger"
	"github.com/suPer8Hu/dating-platform/internal/match"
	"github.com/suPer8Hu/dating-platform/internal/users"
	"gorm.io/gorm"
)

type Handler struct {
	Cfg     config.Config
	Users   *users.Repo
	Engine  *match.Engine
	Matches *match.Store
	Chats   *chat.Resolver
	log     *logger.Logger
}

func NewHandler(db *gorm.DB, cfg config.Config, engine *match.Engine, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		Cfg:     cfg,
		Users:   users.NewRepo(db),
		Engine:  engine,
		Matches: match.NewStore(db),
		Chats:   chat.NewResolver(db),
		log:     log.With("component", "Handlers"),
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func currentUser(c *gin.Context) (uint64, bool) {
	uid, ok := middleware.UserID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
	}
	return uid, ok
}

// fail maps domain errors onto the response envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, match.ErrInvalidTarget),
		errors.Is(err, match.ErrSelfTarget),
		errors.Is(err, chat.ErrSameUser),
		errors.Is(err, chat.ErrInvalidParticipant):
		common.Fail(c, http.StatusBadRequest, 10010, err.Error())
	case errors.Is(err, match.ErrTargetNotFound),
		errors.Is(err, match.ErrActorNotFound):
		common.Fail(c, http.StatusNotFound, 40410, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		common.Fail(c, http.StatusNotFound, 40410, "user not found")
	case errors.Is(err, match.ErrAlreadyLiked),
		errors.Is(err, users.ErrEmailTaken):
		common.Fail(c, http.StatusConflict, 40910, err.Error())
	case errors.Is(err, users.ErrInvalidCredentials):
		common.Fail(c, http.StatusUnauthorized, 40101, err.Error())
	default:
		_ = c.Error(err)
		h.log.Error("request failed", "path", c.FullPath(), "request_id", c.GetString(middleware.RequestIDKey), "error", err)
		common.Fail(c, http.StatusInternalServerError, 50010, "internal error")
	}
}
