package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/dating-platform/internal/common"
	"github.com/suPer8Hu/dating-platform/internal/config"
	"github.com/suPer8Hu/dating-platform/internal/httpapi/handlers"
	"github.com/suPer8Hu/dating-platform/internal/httpapi/middleware"
	"github.com/suPer8Hu/dating-platform/internal/logger"
	"github.com/suPer8Hu/dating-platform/internal/match"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

const serviceName = "dating-api"

func NewRouter(db *gorm.DB, cfg config.Config, engine *match.Engine, log *logger.Logger) *gin.Engine {
	if cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, engine, log)

	r.GET("/ping", h.Ping)

	r.POST("/users", h.CreateUser)
	r.GET("/users/:id", h.GetUserByID)
	r.POST("/login", h.Login)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)
	authGroup.POST("/interactions/like", h.Like)
	authGroup.POST("/interactions/reject", h.Reject)
	authGroup.GET("/matches", h.ListMatches)
	authGroup.POST("/chats", h.CreateChat)
	return r
}
