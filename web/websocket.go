package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// origin is already vetted by the CORS/origin middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsFrame is the JSON envelope pushed to subscribers. Exactly one field is
// set per frame.
type wsFrame struct {
	Room    *domain.Room    `json:"room,omitempty"`
	Message *domain.Message `json:"message,omitempty"`
}

type wsInbound struct {
	Text string `json:"text"`
}

// SubscribeHandler upgrades to a websocket and streams room snapshots as the
// store pushes them. Inbound frames are chat messages, rate-limited per
// connection.
func (h *ArenaHandler) SubscribeHandler(ctx *gin.Context) {
	identity, ok := mustIdentity(ctx)
	if !ok {
		return
	}
	roomId := ctx.Param("roomid")

	updates, cancel, err := h.svc.Store().Subscribe(ctx.Request.Context(), roomId)
	if err != nil {
		abortWithArenaError(ctx, err)
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		cancel()
		log.Warn().Err(err).Str("module", "web").Msg("ws upgrade failed")
		return
	}

	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(wsPingPeriod * 2))
		return nil
	})

	go h.readPump(conn, roomId, identity)
	h.writePump(conn, updates, cancel)
}

// readPump consumes inbound chat frames until the peer goes away.
func (h *ArenaHandler) readPump(conn *websocket.Conn, roomId string, identity domain.Identity) {
	limiter := rate.NewLimiter(1, 5)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if !limiter.Allow() {
			continue
		}
		var in wsInbound
		if err := json.Unmarshal(data, &in); err != nil || in.Text == "" {
			continue
		}
		msg := domain.NewChatMessage(identity.Id, identity.DisplayName, in.Text, time.Now())
		if err := h.svc.Store().AppendMessage(context.Background(), roomId, msg); err != nil {
			log.Debug().Err(err).Str("module", "web").Msg("chat append failed")
		}
	}
}

func (h *ArenaHandler) writePump(conn *websocket.Conn, updates <-chan *domain.Room, cancel func()) {
	pingTicker := time.NewTicker(wsPingPeriod)
	defer func() {
		pingTicker.Stop()
		cancel()
		conn.Close()
	}()
	for {
		select {
		case room, ok := <-updates:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(wsFrame{Room: room}); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
