package types

import "time"

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// LayerResponse describes one binding
type LayerResponse struct {
	User      UserID `json:"user"`
	LayerName string `json:"layer_name"`
	IPFSLink  string `json:"ipfs_link"`
}

// LayerListResponse lists a user's layers in registration order
type LayerListResponse struct {
	User   UserID   `json:"user"`
	Layers []string `json:"layers"`
	Count  int      `json:"count"`
}

// SessionResponse is returned by login
type SessionResponse struct {
	Token     string    `json:"token"`
	UserID    UserID    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HealthResponse reports service status
type HealthResponse struct {
	Status   string        `json:"status"`
	Backend  string        `json:"backend"`
	Accounts int           `json:"accounts"`
	Stats    RegistryStats `json:"stats"`
	Uptime   string        `json:"uptime"`
}
