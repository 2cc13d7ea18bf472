package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/galaxy/internal/api/ws"
	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
	"github.com/GriffinCanCode/galaxy/internal/events"
	"github.com/GriffinCanCode/galaxy/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

type fixture struct {
	server  *httptest.Server
	broker  *events.Broker
	manager *registry.Manager
	metrics *monitoring.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := monitoring.NewMetrics()
	broker := events.NewBroker()
	manager := registry.NewManager(registry.NewMemoryStore()).
		WithNotifier(events.NewDispatcher(broker))

	router := gin.New()
	router.GET("/events", ws.NewHandler(broker).WithMetrics(metrics).HandleConnection)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		_ = broker.Close()
	})
	return &fixture{server: server, broker: broker, manager: manager, metrics: metrics}
}

func (f *fixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/events" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	var welcome types.WSMessage
	readJSON(t, conn, &welcome)
	require.Equal(t, ws.TypeSubscribed, welcome.Type)
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(v))
}

func TestStreamsCreatedLayers(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")

	require.NoError(t, f.manager.CreateLayer(context.Background(), "alice", "Layer1", "ipfs://link1"))

	var event events.LayerCreated
	readJSON(t, conn, &event)
	assert.Equal(t, events.TypeLayerCreated, event.Type)
	assert.Equal(t, types.UserID("alice"), event.User)
	assert.Equal(t, "Layer1", event.LayerName)
	assert.Equal(t, "ipfs://link1", event.IPFSLink)
	assert.NotEmpty(t, event.ID)
}

func TestUserFilter(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "?user=alice")

	require.NoError(t, f.manager.CreateLayer(context.Background(), "bob", "base", "ipfs://bob"))
	require.NoError(t, f.manager.CreateLayer(context.Background(), "alice", "base", "ipfs://alice"))

	var event events.LayerCreated
	readJSON(t, conn, &event)
	assert.Equal(t, types.UserID("alice"), event.User)
	assert.Equal(t, "ipfs://alice", event.IPFSLink)
}

func TestDuplicateEmitsNothing(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")

	require.NoError(t, f.manager.CreateLayer(context.Background(), "alice", "base", "ipfs://one"))
	require.ErrorIs(t, f.manager.CreateLayer(context.Background(), "alice", "base", "ipfs://two"), registry.ErrLayerAlreadyExists)
	require.NoError(t, f.manager.CreateLayer(context.Background(), "alice", "next", "ipfs://three"))

	var first, second events.LayerCreated
	readJSON(t, conn, &first)
	readJSON(t, conn, &second)
	assert.Equal(t, "base", first.LayerName)
	assert.Equal(t, "ipfs://one", first.IPFSLink)
	assert.Equal(t, "next", second.LayerName)
}

func TestPingPong(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")

	require.NoError(t, conn.WriteJSON(types.WSMessage{Type: ws.TypePing}))

	var reply types.WSMessage
	readJSON(t, conn, &reply)
	assert.Equal(t, ws.TypePong, reply.Type)
}

func TestRejectsInvalidUser(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/events?user=bad.user"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConnectionLifecycle(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")

	assert.Equal(t, 1, f.broker.SubscriberCount())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.WSConnections))

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return f.broker.SubscriberCount() == 0 &&
			testutil.ToFloat64(f.metrics.WSConnections) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestBrokerCloseEndsStream(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")

	require.NoError(t, f.broker.Close())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
