package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"video-indexer/domain"
	"video-indexer/usecase"
)

// Handler contains the HTTP handlers for the search surface.
type Handler struct {
	search  *usecase.SearchVideosUsecase
	suggest *usecase.SuggestVideosUsecase
	index   *usecase.IndexVideoUsecase
}

func NewHandler(search *usecase.SearchVideosUsecase, suggest *usecase.SuggestVideosUsecase, index *usecase.IndexVideoUsecase) *Handler {
	return &Handler{
		search:  search,
		suggest: suggest,
		index:   index,
	}
}

// Register mounts all routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/v1/health", h.Health)
	e.GET("/v1/search", h.SearchVideos)
	e.GET("/v1/suggest", h.SuggestVideos)
	e.POST("/v1/index/rebuild", h.RebuildIndex)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// VideoHit is one search result row.
type VideoHit struct {
	VideoID          int       `json:"videoId"`
	VideoName        string    `json:"videoName"`
	VideoDescription string    `json:"videoDescription"`
	VideoURL         string    `json:"videoUrl"`
	VideoTagNames    []string  `json:"videoTagNames"`
	CategoryName     string    `json:"categoryName"`
	UserName         string    `json:"userName"`
	VideoUploadDate  time.Time `json:"videoUploadDate"`
	VideoUpdatedDate time.Time `json:"videoUpdatedDate"`
}

type SearchResponse struct {
	Query    string     `json:"query"`
	Category string     `json:"category,omitempty"`
	Hits     []VideoHit `json:"hits"`
	Total    int        `json:"total"`
}

type SuggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

type RebuildResponse struct {
	Fetched int `json:"fetched"`
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// SearchVideos serves GET /v1/search?q=&category=. Search-path failures
// surface as a generic server error; the index never exposes its
// internals to API callers.
func (h *Handler) SearchVideos(c echo.Context) error {
	query := c.QueryParam("q")
	category := c.QueryParam("category")

	result, err := h.search.Execute(c.Request().Context(), query, category)
	if err != nil {
		c.Logger().Error(err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, SearchResponse{
		Query:    result.Query,
		Category: category,
		Hits:     toVideoHits(result.Documents),
		Total:    result.Total,
	})
}

// SuggestVideos serves GET /v1/suggest?q=.
func (h *Handler) SuggestVideos(c echo.Context) error {
	query := c.QueryParam("q")

	suggestions, err := h.suggest.Execute(c.Request().Context(), query)
	if err != nil {
		c.Logger().Error(err)
		return echo.NewHTTPError(http.StatusInternalServerError, "suggest failed")
	}

	return c.JSON(http.StatusOK, SuggestResponse{
		Query:       query,
		Suggestions: suggestions,
	})
}

// RebuildIndex serves POST /v1/index/rebuild. The rebuild scans the full
// catalog; it runs detached from the request deadline.
func (h *Handler) RebuildIndex(c echo.Context) error {
	result, err := h.index.Rebuild(context.WithoutCancel(c.Request().Context()))
	if err != nil {
		c.Logger().Error(err)
		return echo.NewHTTPError(http.StatusInternalServerError, "rebuild failed")
	}

	return c.JSON(http.StatusOK, RebuildResponse{
		Fetched: result.Fetched,
		Indexed: result.Indexed,
		Failed:  result.Failed,
	})
}

func toVideoHits(docs []domain.IndexDocument) []VideoHit {
	hits := make([]VideoHit, len(docs))
	for i, doc := range docs {
		hits[i] = VideoHit{
			VideoID:          doc.VideoID,
			VideoName:        doc.VideoName,
			VideoDescription: doc.VideoDescription,
			VideoURL:         doc.VideoURL,
			VideoTagNames:    doc.VideoTagNames,
			CategoryName:     doc.CategoryName,
			UserName:         doc.UserName,
			VideoUploadDate:  doc.VideoUploadDate,
			VideoUpdatedDate: doc.VideoUpdatedDate,
		}
	}
	return hits
}
