package types

// CreateLayerRequest registers a layer under the caller's namespace
type CreateLayerRequest struct {
	LayerName string `json:"layer_name" binding:"required"`
	IPFSLink  string `json:"ipfs_link"`
}

// CredentialsRequest carries username/password for register and login
type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// WSMessage represents a WebSocket control message
type WSMessage struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
}
