package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/beatstudio/internal/db"
	"github.com/beatstudio/internal/logging"
	"github.com/beatstudio/internal/service"
	"github.com/gin-gonic/gin"
)

type generateDraftsRequest struct {
	Source        string   `json:"source" validate:"max=64"`
	Limit         int      `json:"limit" validate:"min=0,max=10"`
	Categories    []string `json:"categories" validate:"max=4,dive,required,max=64"`
	FeaturedImage string   `json:"featured_image" validate:"max=512"`
}

// GenerateDrafts 触发一次草稿生成流水线，返回成功落库的草稿。
func (a *API) GenerateDrafts(c *gin.Context) {
	var req generateDraftsRequest
	if !bindJSON(c, &req, "invalid draft payload") {
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.drafts.Run(c.Request.Context(), service.DraftRunInput{
		Source:        strings.TrimSpace(req.Source),
		Limit:         req.Limit,
		Categories:    req.Categories,
		FeaturedImage: strings.TrimSpace(req.FeaturedImage),
	})
	if err != nil {
		if errors.Is(err, service.ErrUnknownSource) {
			respondError(c, http.StatusBadRequest, "unknown source")
			return
		}
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("草稿生成失败")
		respondError(c, http.StatusInternalServerError, "failed to generate drafts")
		return
	}

	items := result.Items
	if items == nil {
		items = []db.BlogPost{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"drafts":  result.Drafts,
		"items":   items,
	})
}

// ListDrafts 分页返回 AI 生成的草稿，最新的在前。
func (a *API) ListDrafts(c *gin.Context) {
	aiGenerated := true
	result, err := a.posts.List(service.BlogPostFilter{
		Status:      db.BlogPostStatusDraft,
		AIGenerated: &aiGenerated,
		Category:    c.Query("category"),
		Page:        parseIntQuery(c, "page", 1),
		PerPage:     parseIntQuery(c, "per_page", 0),
	})
	if err != nil {
		logging.Logger().Error().Err(err).Msg("读取草稿列表失败")
		respondError(c, http.StatusInternalServerError, "failed to list drafts")
		return
	}
	c.JSON(http.StatusOK, result)
}
