package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/AnshulAlgoS/StudyChamp-sub000/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ResultHistory is the read side of the result archive.
type ResultHistory interface {
	GetResult(ctx context.Context, roomId string) (domain.Result, error)
	RecentResults(ctx context.Context, limit int) ([]domain.Result, error)
}

// HistoryHandler serves archived results. It is only mounted when an archive
// is configured; without one the history routes simply do not exist.
type HistoryHandler struct {
	history ResultHistory
}

func NewHistoryHandler(history ResultHistory) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func (h *HistoryHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/history", h.RecentResultsHandler)
	g.GET("/history/:roomid", h.ArchivedResultHandler)
}

func abortWithHistoryError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrResultNotFound):
		ctx.String(http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Str("module", "web").Msg("history lookup failed")
		ctx.String(http.StatusInternalServerError, ErrUnknownStr)
	}
	ctx.Abort()
}

func (h *HistoryHandler) RecentResultsHandler(ctx *gin.Context) {
	if _, ok := mustIdentity(ctx); !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
			ctx.Abort()
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	results, err := h.history.RecentResults(ctx.Request.Context(), limit)
	if err != nil {
		abortWithHistoryError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, results)
}

func (h *HistoryHandler) ArchivedResultHandler(ctx *gin.Context) {
	if _, ok := mustIdentity(ctx); !ok {
		return
	}
	result, err := h.history.GetResult(ctx.Request.Context(), ctx.Param("roomid"))
	if err != nil {
		abortWithHistoryError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
