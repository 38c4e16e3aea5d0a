package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsTestFrame struct {
	Room    *domain.Room    `json:"room"`
	Message *domain.Message `json:"message"`
}

func dialSubscribe(t *testing.T, f *fixture, server *httptest.Server, identity domain.Identity, roomId string) *websocket.Conn {
	t.Helper()
	token, err := f.manager.Generate(identity, time.Now())
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/arena/rooms/" + roomId + "/subscribe"
	header := http.Header{}
	header.Set("Cookie", "token="+token)

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSubscribeHandler(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	room := decodeRoom(t, f.request(t, hostIdentity, http.MethodPost, "/arena/rooms", createRoomBody(3)))
	conn := dialSubscribe(t, f, server, hostIdentity, room.Id)

	// first frame is the primed current snapshot
	var frame wsTestFrame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&frame))
	require.NotNil(t, frame.Room)
	assert.Equal(t, domain.STATUS_WAITING, frame.Room.Status)

	// a store mutation is pushed as the next frame
	rec := f.request(t, hostIdentity, http.MethodPost, "/arena/rooms/"+room.Id+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.ReadJSON(&frame))
	require.NotNil(t, frame.Room)
	assert.Equal(t, domain.STATUS_ACTIVE, frame.Room.Status)
}

func TestSubscribeHandlerChat(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	room := decodeRoom(t, f.request(t, hostIdentity, http.MethodPost, "/arena/rooms", createRoomBody(3)))
	conn := dialSubscribe(t, f, server, hostIdentity, room.Id)

	require.NoError(t, conn.WriteJSON(map[string]string{"text": "anyone stuck on task 2?"}))

	require.Eventually(t, func() bool {
		messages, err := f.svc.Store().Messages(context.Background(), room.Id)
		return err == nil && len(messages) == 1
	}, 2*time.Second, 10*time.Millisecond)

	messages, err := f.svc.Store().Messages(context.Background(), room.Id)
	require.NoError(t, err)
	require.Equal(t, domain.MESSAGE_CHAT, messages[0].Kind)
	assert.Equal(t, hostIdentity.Id, messages[0].Chat.From)
	assert.Equal(t, "anyone stuck on task 2?", messages[0].Chat.Text)

	// empty and malformed frames are dropped, not fatal
	require.NoError(t, conn.WriteJSON(map[string]string{"text": ""}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))

	time.Sleep(50 * time.Millisecond)
	messages, err = f.svc.Store().Messages(context.Background(), room.Id)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestSubscribeHandlerUnknownRoom(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	token, err := f.manager.Generate(hostIdentity, time.Now())
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/arena/rooms/nope/subscribe"
	header := http.Header{}
	header.Set("Cookie", "token="+token)

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err, "handshake must be refused before the upgrade")
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
