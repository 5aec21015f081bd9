package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/damoang/angple-wiki/internal/common"
	"github.com/damoang/angple-wiki/internal/middleware"
	"github.com/damoang/angple-wiki/internal/service"
	"github.com/damoang/angple-wiki/pkg/elasticsearch"
	"github.com/damoang/angple-wiki/pkg/ginutil"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Searcher full-text page search; *elasticsearch.Client satisfies it
type Searcher interface {
	Search(ctx context.Context, text string, from, size int) (*elasticsearch.SearchResponse, error)
}

// WikiHandler handles HTTP requests for wiki pages
type WikiHandler struct {
	pages  service.PageService
	search Searcher
}

// NewWikiHandler creates a new WikiHandler. search may be nil when
// search is disabled.
func NewWikiHandler(pages service.PageService, search Searcher) *WikiHandler {
	return &WikiHandler{pages: pages, search: search}
}

// updatePageRequest body of PUT /pages/:name
type updatePageRequest struct {
	Section string `json:"section"`
	Text    string `json:"text"`
}

// GetPage GET /api/wiki/pages/:name
func (h *WikiHandler) GetPage(c *gin.Context) {
	data, err := h.pages.View(c.Request.Context(), middleware.GetIdentity(c), c.Param("name"))
	if err != nil {
		respondError(c, "Failed to fetch page", err)
		return
	}
	common.SuccessResponse(c, data, nil)
}

// GetSource GET /api/wiki/pages/:name/source?section=
func (h *WikiHandler) GetSource(c *gin.Context) {
	data, err := h.pages.GetSource(c.Request.Context(), middleware.GetIdentity(c), c.Param("name"), c.Query("section"))
	if err != nil {
		respondError(c, "Failed to fetch page source", err)
		return
	}
	common.SuccessResponse(c, data, nil)
}

// UpdatePage PUT /api/wiki/pages/:name
func (h *WikiHandler) UpdatePage(c *gin.Context) {
	var req updatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	data, err := h.pages.Update(c.Request.Context(), middleware.GetIdentity(c), &service.UpdateRequest{
		Name:    c.Param("name"),
		Section: req.Section,
		Text:    req.Text,
	})
	if err != nil {
		respondError(c, "Failed to update page", err)
		return
	}
	common.SuccessResponse(c, data, nil)
}

// ListPages GET /api/wiki/pages?prefix=
func (h *WikiHandler) ListPages(c *gin.Context) {
	data, meta, err := h.pages.List(c.Request.Context(), middleware.GetIdentity(c), c.Query("prefix"))
	if err != nil {
		respondError(c, "Failed to list pages", err)
		return
	}
	common.SuccessResponse(c, data, meta)
}

// GetHistory GET /api/wiki/pages/:name/history
func (h *WikiHandler) GetHistory(c *gin.Context) {
	data, err := h.pages.History(c.Request.Context(), middleware.GetIdentity(c), c.Param("name"))
	if err != nil {
		respondError(c, "Failed to fetch page history", err)
		return
	}
	common.SuccessResponse(c, data, &common.Meta{Total: int64(len(data))})
}

// Search GET /api/wiki/search?q=&from=&size=
func (h *WikiHandler) Search(c *gin.Context) {
	if h.search == nil {
		common.ErrorResponse(c, http.StatusServiceUnavailable, "Search is disabled", nil)
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "Missing search query", common.ErrInvalidInput)
		return
	}
	from := ginutil.QueryIntRange(c, "from", 0, 0, 10000)
	size := ginutil.QueryIntRange(c, "size", 20, 1, 100)

	res, err := h.search.Search(c.Request.Context(), q, from, size)
	if err != nil {
		respondError(c, "Search failed", err)
		return
	}
	common.SuccessResponse(c, res.Results, &common.Meta{Total: res.Total})
}

// respondError maps a service error onto its HTTP status; server errors
// are logged with the request logger
func respondError(c *gin.Context, message string, err error) {
	status := common.StatusFor(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg(message)
	} else {
		message = http.StatusText(status)
	}
	common.ErrorResponse(c, status, message, err)
}
