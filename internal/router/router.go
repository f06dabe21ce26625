package router

import (
	"net/http"
	"strings"

	"github.com/beatstudio/internal/handler"
	"github.com/beatstudio/internal/logging"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "beatstudio_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(sessionSecret string, api *handler.API) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	secret := strings.TrimSpace(sessionSecret)
	if secret == "" {
		secret = "beatstudio-dev-secret"
		logging.Logger().Warn().Msg("SESSION_SECRET 未设置，使用开发默认值")
	}

	// 配置会话中间件
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   7 * 24 * 3600,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台接口
		auth := admin.Group("/api")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/drafts", api.ListDrafts)
			auth.POST("/drafts/generate", api.DraftRateLimit(), api.GenerateDrafts)
		}
	}

	return r
}

// requestLogger 以结构化日志记录每个请求的状态与耗时。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		event := logging.Logger().Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = logging.Logger().Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Int("size", c.Writer.Size()).
			Msg("request")
	}
}
