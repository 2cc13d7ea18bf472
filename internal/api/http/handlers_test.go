package http_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apihttp "github.com/GriffinCanCode/galaxy/internal/api/http"
	"github.com/GriffinCanCode/galaxy/internal/api/middleware"
	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
	"github.com/GriffinCanCode/galaxy/internal/identity"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
	"github.com/GriffinCanCode/galaxy/internal/testutil"
)

type harness struct {
	router   *gin.Engine
	manager  *registry.Manager
	accounts *identity.Accounts
}

func newHarness(t *testing.T, store registry.Store) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := registry.NewManager(store)
	accounts := identity.NewAccounts(time.Hour).WithCost(bcrypt.MinCost)
	handlers := apihttp.NewHandlers(manager, accounts, "memory")

	router := gin.New()
	handlers.Routes(router, accounts)
	return &harness{router: router, manager: manager, accounts: accounts}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		data, err := sonic.Marshal(body)
		require.NoError(t, err)
		buf.Write(data)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// signup registers and logs in a user, returning its ID and token
func (h *harness) signup(t *testing.T, username string) (types.UserID, string) {
	t.Helper()
	creds := types.CredentialsRequest{Username: username, Password: "correct-horse"}

	w := h.do(t, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(t, http.MethodPost, "/api/v1/auth/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session types.SessionResponse
	decode(t, w, &session)
	require.NotEmpty(t, session.Token)
	return session.UserID, session.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), v))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body types.ErrorResponse
	decode(t, w, &body)
	return body.Code
}

func layerPath(user types.UserID, name string) string {
	return "/api/v1/users/" + user.String() + "/layers/" + url.PathEscape(name)
}

func TestCreateAndResolve(t *testing.T) {
	h := newHarness(t, registry.NewMemoryStore())
	alice, token := h.signup(t, "alice")

	w := h.do(t, http.MethodPost, "/api/v1/layers", token,
		types.CreateLayerRequest{LayerName: "Layer1", IPFSLink: "ipfs://link1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created types.LayerResponse
	decode(t, w, &created)
	assert.Equal(t, alice, created.User)
	assert.Equal(t, "Layer1", created.LayerName)

	w = h.do(t, http.MethodGet, layerPath(alice, "Layer1"), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resolved types.LayerResponse
	decode(t, w, &resolved)
	assert.Equal(t, "ipfs://link1", resolved.IPFSLink)

	w = h.do(t, http.MethodGet, "/api/v1/users/"+alice.String()+"/layers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list types.LayerListResponse
	decode(t, w, &list)
	assert.Equal(t, []string{"Layer1"}, list.Layers)
	assert.Equal(t, 1, list.Count)
}

func TestCreateDuplicate(t *testing.T) {
	h := newHarness(t, registry.NewMemoryStore())
	alice, token := h.signup(t, "alice")

	req := types.CreateLayerRequest{LayerName: "base", IPFSLink: "ipfs://one"}
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/layers", token, req).Code)

	req.IPFSLink = "ipfs://two"
	w := h.do(t, http.MethodPost, "/api/v1/layers", token, req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apihttp.CodeLayerAlreadyExists, errorCode(t, w))

	link, err := h.manager.ResolveLink(context.Background(), alice, "base")
	require.NoError(t, err)
	assert.Equal(t, "ipfs://one", link)
}

func TestNamespacesAreIndependent(t *testing.T) {
	h := newHarness(t, registry.NewMemoryStore())
	alice, aliceToken := h.signup(t, "alice")
	bob, bobToken := h.signup(t, "bob")

	req := types.CreateLayerRequest{LayerName: "base", IPFSLink: "ipfs://alice"}
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/layers", aliceToken, req).Code)
	req.IPFSLink = "ipfs://bob"
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/layers", bobToken, req).Code)

	var resolved types.LayerResponse
	w := h.do(t, http.MethodGet, layerPath(alice, "base"), "", nil)
	decode(t, w, &resolved)
	assert.Equal(t, "ipfs://alice", resolved.IPFSLink)

	w = h.do(t, http.MethodGet, layerPath(bob, "base"), "", nil)
	decode(t, w, &resolved)
	assert.Equal(t, "ipfs://bob", resolved.IPFSLink)
}

func TestCreateOwnerComesFromToken(t *testing.T) {
	h := newHarness(t, registry.NewMemoryStore())
	alice, _ := h.signup(t, "alice")
	bob, bobToken := h.signup(t, "bob")

	body := map[string]string{"user": alice.String(), "layer_name": "x", "ipfs_link": "l"}
	w := h.do(t, http.MethodPost, "/api/v1/layers", bobToken, body)
	require.Equal(t, http.StatusCreated, w.Code)

	aliceLayers, err := h.manager.Layers(context.Background(), alice)
	require.NoError(t, err)
	assert.Empty(t, aliceLayers)

	bobLayers, err := h.manager.Layers(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, bobLayers)
}

func TestCreateRequiresAuth(t *testing.T) {
	h := newHarness(t, registry.NewMemoryStore())
	req := types.CreateLayerRequest{LayerName: "x", IPFSLink: "l"}

	w := h.do(t, http.MethodPost, "/api/v1/layers", "", req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, middleware.CodeUnauthenticated, errorCode(t, w))

	w = h.do(t, http.MethodPost, "/api/v1/layers", "forged", req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResolveErrors(t *testing.T) {
	h := newHarness(t, registry.NewMemoryStore())
	alice, token := h.signup(t, "alice")
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/layers", token,
		types.CreateLayerRequest{LayerName: "base", IPFSLink: "l"}).Code)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"unknown name", layerPath(alice, "other"), http.StatusNotFound, apihttp.CodeLayerNotFound},
		{"case differs", layerPath(alice, "Base"), http.StatusNotFound, apihttp.CodeLayerNotFound},
		{"unknown user", layerPath("nobody", "base"), http.StatusNotFound, apihttp.CodeLayerNotFound},
		{"invalid user", "/api/v1/users/bad.user/layers/base", http.StatusBadRequest, apihttp.CodeInvalidRequest},
		{"query without name", "/api/v1/resolve?user=" + alice.String(), http.StatusBadRequest, apihttp.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestResolveByQuery(t *testing.T) {
	h := newHarness(t, registry.NewMemoryStore())
	alice, token := h.signup(t, "alice")
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/layers", token,
		types.CreateLayerRequest{LayerName: "stack/base", IPFSLink: "ipfs://nested"}).Code)

	q := url.Values{"user": {alice.String()}, "name": {"stack/base"}}
	w := h.do(t, http.MethodGet, "/api/v1/resolve?"+q.Encode(), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resolved types.LayerResponse
	decode(t, w, &resolved)
	assert.Equal(t, "ipfs://nested", resolved.IPFSLink)
}

func TestListUnknownUser(t *testing.T) {
	h := newHarness(t, registry.NewMemoryStore())

	w := h.do(t, http.MethodGet, "/api/v1/users/nobody/layers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list types.LayerListResponse
	decode(t, w, &list)
	assert.NotNil(t, list.Layers)
	assert.Empty(t, list.Layers)
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t, registry.NewMemoryStore())
	_, token := h.signup(t, "alice")

	tests := []struct {
		name string
		body any
	}{
		{"missing name", map[string]string{"ipfs_link": "l"}},
		{"name with NUL", types.CreateLayerRequest{LayerName: "a\x00b", IPFSLink: "l"}},
		{"oversized link", types.CreateLayerRequest{LayerName: "a", IPFSLink: string(make([]byte, 16*1024+1))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, http.MethodPost, "/api/v1/layers", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, apihttp.CodeInvalidRequest, errorCode(t, w))
		})
	}
}

func TestAccountsFlow(t *testing.T) {
	h := newHarness(t, registry.NewMemoryStore())
	alice, token := h.signup(t, "alice")

	w := h.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me types.Account
	decode(t, w, &me)
	assert.Equal(t, alice, me.ID)
	assert.Equal(t, "alice", me.Username)

	w = h.do(t, http.MethodPost, "/api/v1/auth/register", "",
		types.CredentialsRequest{Username: "Alice", Password: "another-pass"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apihttp.CodeUserExists, errorCode(t, w))

	w = h.do(t, http.MethodPost, "/api/v1/auth/login", "",
		types.CredentialsRequest{Username: "alice", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apihttp.CodeInvalidCredentials, errorCode(t, w))

	w = h.do(t, http.MethodPost, "/api/v1/auth/register", "",
		types.CredentialsRequest{Username: "carol", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, registry.NewMemoryStore())
	_, token := h.signup(t, "alice")
	h.do(t, http.MethodPost, "/api/v1/layers", token, types.CreateLayerRequest{LayerName: "a", IPFSLink: "l"})
	h.do(t, http.MethodPost, "/api/v1/layers", token, types.CreateLayerRequest{LayerName: "a", IPFSLink: "l"})

	w := h.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health types.HealthResponse
	decode(t, w, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "memory", health.Backend)
	assert.Equal(t, 1, health.Accounts)
	assert.Equal(t, int64(1), health.Stats.Created)
	assert.Equal(t, int64(1), health.Stats.Rejected)
}

func TestConsistencyFaultIsServerError(t *testing.T) {
	store := new(testutil.MockStore)
	store.On("Layers", mock.Anything, types.UserID("alice")).Return([]string{"base"}, true, nil)
	store.On("Link", mock.Anything, types.UserID("alice"), "base").Return("", false, nil)

	h := newHarness(t, store)
	w := h.do(t, http.MethodGet, layerPath("alice", "base"), "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apihttp.CodeInconsistentStorage, errorCode(t, w))
	store.AssertExpectations(t)
}
