package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GriffinCanCode/galaxy/internal/shared/id"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
	"github.com/GriffinCanCode/galaxy/internal/shared/utils"
)

const tokenBytes = 32

// Session is an issued bearer token
type Session struct {
	Token     string       `json:"token"`
	UserID    types.UserID `json:"user_id"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type account struct {
	types.Account
	hash []byte
}

// Accounts is an in-memory username/password identity source.
// Sessions expire after the configured TTL.
type Accounts struct {
	mu     sync.RWMutex
	byName map[string]*account
	byID   map[types.UserID]*account

	sessions *gocache.Cache
	ttl      time.Duration
	cost     int
	now      func() time.Time
	logger   *zap.Logger
}

var _ Source = (*Accounts)(nil)

// NewAccounts creates an empty account store with the given session lifetime
func NewAccounts(sessionTTL time.Duration) *Accounts {
	return &Accounts{
		byName:   make(map[string]*account),
		byID:     make(map[types.UserID]*account),
		sessions: gocache.New(sessionTTL, sessionTTL),
		ttl:      sessionTTL,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
}

// WithCost overrides the bcrypt cost (tests use bcrypt.MinCost)
func (a *Accounts) WithCost(cost int) *Accounts {
	a.cost = cost
	return a
}

// WithLogger sets the logger
func (a *Accounts) WithLogger(logger *zap.Logger) *Accounts {
	if logger != nil {
		a.logger = logger.Named("identity")
	}
	return a
}

// Register creates an account. Usernames are case-insensitive.
func (a *Accounts) Register(_ context.Context, username, password string) (types.Account, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return types.Account{}, err
	}
	if err := utils.ValidatePassword(password); err != nil {
		return types.Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return types.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	key := strings.ToLower(username)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.byName[key]; exists {
		return types.Account{}, fmt.Errorf("%w: %s", ErrUserExists, username)
	}

	acc := &account{
		Account: types.Account{
			ID:        types.UserID(id.NewAccountID()),
			Username:  username,
			CreatedAt: a.now().UTC(),
		},
		hash: hash,
	}
	a.byName[key] = acc
	a.byID[acc.ID] = acc

	a.logger.Info("Registered account", zap.String("user_id", acc.ID.String()), zap.String("username", username))
	return acc.Account, nil
}

// Login verifies credentials and issues a session token
func (a *Accounts) Login(_ context.Context, username, password string) (Session, error) {
	a.mu.RLock()
	acc, ok := a.byName[strings.ToLower(username)]
	a.mu.RUnlock()
	if !ok {
		return Session{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return Session{}, err
	}

	session := Session{
		Token:     token,
		UserID:    acc.ID,
		ExpiresAt: a.now().Add(a.ttl).UTC(),
	}
	a.sessions.Set(token, session, a.ttl)
	return session, nil
}

// Logout revokes a session token
func (a *Accounts) Logout(_ context.Context, token string) {
	a.sessions.Delete(token)
}

// Authenticate implements Source
func (a *Accounts) Authenticate(_ context.Context, token string) (types.UserID, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}

	v, ok := a.sessions.Get(token)
	if !ok {
		return "", ErrUnauthenticated
	}
	session := v.(Session)
	if !a.now().Before(session.ExpiresAt) {
		a.sessions.Delete(token)
		return "", fmt.Errorf("%w: session expired", ErrUnauthenticated)
	}
	return session.UserID, nil
}

// Account returns the public account record for user
func (a *Accounts) Account(_ context.Context, user types.UserID) (types.Account, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acc, ok := a.byID[user]
	if !ok {
		return types.Account{}, false
	}
	return acc.Account, true
}

// Count returns the number of registered accounts
func (a *Accounts) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.byID)
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
