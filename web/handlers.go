package web

import (
	"errors"
	"net/http"

	"github.com/AnshulAlgoS/StudyChamp-sub000/arena"
	"github.com/AnshulAlgoS/StudyChamp-sub000/auth"
	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidRequestFormatStr = "bad-request-format"
	ErrUnknownStr              = "unknown-error"
)

type ArenaHandler struct {
	svc *arena.Service
}

func NewArenaHandler(svc *arena.Service) *ArenaHandler {
	return &ArenaHandler{svc: svc}
}

// RegisterRoutes mounts the arena API under the given (auth-guarded) group.
func (h *ArenaHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/rooms", h.CreateRoomHandler)
	g.POST("/rooms/join", h.JoinRoomHandler)
	g.GET("/rooms/:roomid", h.GetRoomHandler)
	g.POST("/rooms/:roomid/start", h.StartRoomHandler)
	g.POST("/rooms/:roomid/leave", h.LeaveRoomHandler)
	g.POST("/rooms/:roomid/progress", h.PushProgressHandler)
	g.POST("/rooms/:roomid/violations", h.RecordViolationHandler)
	g.POST("/rooms/:roomid/complete", h.CompleteTaskHandler)
	g.GET("/rooms/:roomid/leaderboard", h.LeaderboardHandler)
	g.GET("/rooms/:roomid/result", h.GetResultHandler)
	g.GET("/rooms/:roomid/events", h.GetEventsHandler)
	g.GET("/rooms/:roomid/subscribe", h.SubscribeHandler)
}

func abortWithArenaError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotLoggedIn):
		ctx.String(http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrNotInRoom):
		ctx.String(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotHost):
		ctx.String(http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrRoomNotJoinable),
		errors.Is(err, domain.ErrRoomCompleted),
		errors.Is(err, domain.ErrRoomNotActive),
		errors.Is(err, domain.ErrAlreadyFinished),
		errors.Is(err, domain.ErrNoParticipants):
		ctx.String(http.StatusConflict, err.Error())
	case errors.Is(err, domain.StoreUnavailableError):
		ctx.String(http.StatusServiceUnavailable, err.Error())
	default:
		log.Error().Err(err).Str("module", "web").Msg("unexpected arena error")
		ctx.String(http.StatusInternalServerError, ErrUnknownStr)
	}
	ctx.Abort()
}

func mustIdentity(ctx *gin.Context) (domain.Identity, bool) {
	identity, ok := auth.IdentityFrom(ctx)
	if !ok {
		ctx.String(http.StatusUnauthorized, domain.ErrNotLoggedIn.Error())
		ctx.Abort()
		return domain.Identity{}, false
	}
	return identity, true
}

func (h *ArenaHandler) CreateRoomHandler(ctx *gin.Context) {
	identity, ok := mustIdentity(ctx)
	if !ok {
		return
	}

	var req struct {
		Challenge domain.Challenge   `json:"challenge"`
		Settings  arena.RoomSettings `json:"settings"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	room, err := h.svc.CreateRoom(ctx.Request.Context(), identity, req.Challenge, req.Settings)
	if err != nil {
		abortWithArenaError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, room)
}

func (h *ArenaHandler) JoinRoomHandler(ctx *gin.Context) {
	identity, ok := mustIdentity(ctx)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Code == "" {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	room, err := h.svc.JoinRoom(ctx.Request.Context(), req.Code, identity)
	if err != nil {
		abortWithArenaError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, room)
}

func (h *ArenaHandler) GetRoomHandler(ctx *gin.Context) {
	if _, ok := mustIdentity(ctx); !ok {
		return
	}
	room, err := h.svc.GetRoom(ctx.Request.Context(), ctx.Param("roomid"))
	if err != nil {
		abortWithArenaError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, room)
}

func (h *ArenaHandler) StartRoomHandler(ctx *gin.Context) {
	identity, ok := mustIdentity(ctx)
	if !ok {
		return
	}
	room, err := h.svc.StartRoom(ctx.Request.Context(), ctx.Param("roomid"), identity.Id)
	if err != nil {
		abortWithArenaError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, room)
}

func (h *ArenaHandler) LeaveRoomHandler(ctx *gin.Context) {
	identity, ok := mustIdentity(ctx)
	if !ok {
		return
	}
	room, err := h.svc.LeaveRoom(ctx.Request.Context(), ctx.Param("roomid"), identity.Id)
	if err != nil {
		abortWithArenaError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, room)
}

func (h *ArenaHandler) PushProgressHandler(ctx *gin.Context) {
	identity, ok := mustIdentity(ctx)
	if !ok {
		return
	}

	var up arena.ProgressUpdate
	if err := ctx.ShouldBindJSON(&up); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	room, err := h.svc.PushProgress(ctx.Request.Context(), ctx.Param("roomid"), identity.Id, up)
	if err != nil {
		abortWithArenaError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, room)
}

func (h *ArenaHandler) RecordViolationHandler(ctx *gin.Context) {
	identity, ok := mustIdentity(ctx)
	if !ok {
		return
	}

	var v domain.Violation
	if err := ctx.ShouldBindJSON(&v); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}
	// clients only ever report their own violations
	v.ParticipantId = identity.Id

	if err := h.svc.RecordViolation(ctx.Request.Context(), ctx.Param("roomid"), v); err != nil {
		abortWithArenaError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (h *ArenaHandler) CompleteTaskHandler(ctx *gin.Context) {
	identity, ok := mustIdentity(ctx)
	if !ok {
		return
	}
	position, room, err := h.svc.CompleteTask(ctx.Request.Context(), ctx.Param("roomid"), identity.Id)
	if err != nil {
		abortWithArenaError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"position": position, "room": room})
}

func (h *ArenaHandler) LeaderboardHandler(ctx *gin.Context) {
	if _, ok := mustIdentity(ctx); !ok {
		return
	}
	room, err := h.svc.GetRoom(ctx.Request.Context(), ctx.Param("roomid"))
	if err != nil {
		abortWithArenaError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, arena.Leaderboard(room))
}

func (h *ArenaHandler) GetResultHandler(ctx *gin.Context) {
	if _, ok := mustIdentity(ctx); !ok {
		return
	}
	result, err := h.svc.GetResult(ctx.Request.Context(), ctx.Param("roomid"))
	if err != nil {
		abortWithArenaError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (h *ArenaHandler) GetEventsHandler(ctx *gin.Context) {
	if _, ok := mustIdentity(ctx); !ok {
		return
	}
	messages, err := h.svc.Store().Messages(ctx.Request.Context(), ctx.Param("roomid"))
	if err != nil {
		abortWithArenaError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, messages)
}
