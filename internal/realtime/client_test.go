package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/global-academic-forum/backend/internal/entitlements"
	"github.com/global-academic-forum/backend/internal/middleware"
	"github.com/global-academic-forum/backend/internal/models"
)

var errUnknownToken = errors.New("unknown token")

type fakeDirectory struct {
	events map[uuid.UUID]*models.Event
}

func (d *fakeDirectory) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	return d.events[id], nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(context.Context, uuid.UUID, *uuid.UUID) (entitlements.Entitlement, error) {
	return entitlements.Entitlement{}, nil
}

type socketFixture struct {
	hub    *Hub
	srv    *httptest.Server
	tokens map[string]*middleware.Identity
}

func newSocketFixture(t *testing.T, events ...*models.Event) *socketFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := &fakeDirectory{events: make(map[uuid.UUID]*models.Event)}
	for _, e := range events {
		dir.events[e.ID] = e
	}
	f := &socketFixture{
		hub:    NewHub(zap.NewNop(), nil, nil),
		tokens: make(map[string]*middleware.Identity),
	}
	validate := func(token string) (*middleware.Identity, error) {
		id, ok := f.tokens[token]
		if !ok {
			return nil, errUnknownToken
		}
		return id, nil
	}
	router := gin.New()
	router.GET("/ws", ServeWs(f.hub, dir, fakeResolver{}, zap.NewNop(), validate))
	f.srv = httptest.NewServer(router)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *socketFixture) grant(token string, id *middleware.Identity) {
	f.tokens[token] = id
}

func (f *socketFixture) dial(eventID uuid.UUID, token string) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") +
		"/ws?event_id=" + eventID.String() + "&token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestSocketJoinRejectsNonMemberOfRestrictedRoom(t *testing.T) {
	hostInst := uuid.New()
	otherInst := uuid.New()
	event := &models.Event{
		ID:            uuid.New(),
		AccessLevel:   models.AccessInstitutionOnly,
		InstitutionID: &hostInst,
		Status:        models.EventLive,
	}
	f := newSocketFixture(t, event)
	f.grant("outsider", &middleware.Identity{
		UserID:        uuid.New(),
		Role:          string(models.RoleParticipant),
		InstitutionID: &otherInst,
	})

	conn, resp, err := f.dial(event.ID, "outsider")
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Nil(t, conn)
	assert.Equal(t, 0, f.hub.AudienceCount(event.ID),
		"a rejected dial must not occupy the room")
}

func TestSocketJoinAdmitsInstitutionMember(t *testing.T) {
	inst := uuid.New()
	event := &models.Event{
		ID:            uuid.New(),
		AccessLevel:   models.AccessInstitutionOnly,
		InstitutionID: &inst,
		Status:        models.EventLive,
	}
	f := newSocketFixture(t, event)
	f.grant("member", &middleware.Identity{
		UserID:        uuid.New(),
		Role:          string(models.RoleParticipant),
		InstitutionID: &inst,
	})

	conn, _, err := f.dial(event.ID, "member")
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool {
		return f.hub.AudienceCount(event.ID) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSocketJoinUnknownEvent(t *testing.T) {
	f := newSocketFixture(t)
	f.grant("user", &middleware.Identity{UserID: uuid.New(), Role: string(models.RoleParticipant)})

	_, resp, err := f.dial(uuid.New(), "user")
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSocketJoinRejectsInvalidToken(t *testing.T) {
	event := &models.Event{ID: uuid.New(), AccessLevel: models.AccessOpen, Status: models.EventLive}
	f := newSocketFixture(t, event)

	_, resp, err := f.dial(event.ID, "forged")
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestModerationMessagesRequireCapability(t *testing.T) {
	event := &models.Event{ID: uuid.New(), AccessLevel: models.AccessOpen, Status: models.EventLive}
	f := newSocketFixture(t, event)
	f.grant("listener", &middleware.Identity{UserID: uuid.New(), Role: string(models.RoleParticipant)})
	f.grant("participant", &middleware.Identity{UserID: uuid.New(), Role: string(models.RoleParticipant)})
	f.grant("host", &middleware.Identity{UserID: uuid.New(), Role: string(models.RoleHost)})

	listener, _, err := f.dial(event.ID, "listener")
	require.NoError(t, err)
	defer listener.Close()
	participant, _, err := f.dial(event.ID, "participant")
	require.NoError(t, err)
	defer participant.Close()
	host, _, err := f.dial(event.ID, "host")
	require.NoError(t, err)
	defer host.Close()

	require.NoError(t, participant.WriteJSON(WSMessage{Kind: "pin_message", Data: json.RawMessage(`{"message_id":"dropped"}`)}))
	require.NoError(t, host.WriteJSON(WSMessage{Kind: "pin_message", Data: json.RawMessage(`{"message_id":"pinned"}`)}))

	// The participant's pin is never broadcast, so the only message the
	// listener can receive is the host's.
	require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got WSMessage
	require.NoError(t, listener.ReadJSON(&got))
	assert.Equal(t, "pin_message", got.Kind)
	assert.JSONEq(t, `{"message_id":"pinned"}`, string(got.Data))

	require.NoError(t, listener.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	assert.Error(t, listener.ReadJSON(&got), "no further broadcast expected")
}
