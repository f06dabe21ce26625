package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	draftRunInterval = 10 * time.Second
	draftRunBurst    = 2
)

func newDraftLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(draftRunInterval), draftRunBurst)
}

// SetDraftLimiter 替换草稿生成接口的限流器，传入 nil 时恢复默认配置。
func (a *API) SetDraftLimiter(limiter *rate.Limiter) {
	if limiter == nil {
		limiter = newDraftLimiter()
	}
	a.draftLimiter = limiter
}

// DraftRateLimit 限制草稿生成的触发频率，每次触发都会调用付费模型。
func (a *API) DraftRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.draftLimiter != nil && !a.draftLimiter.Allow() {
			c.Header("Retry-After", "10")
			respondError(c, http.StatusTooManyRequests, "too many draft runs, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
