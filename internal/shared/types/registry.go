package types

import "time"

// UserID identifies the owner of a layer namespace.
// It is opaque to the registry and only ever compared for equality.
type UserID string

// String returns the raw identifier
func (u UserID) String() string { return string(u) }

// Layer is a single (user, name) -> link binding
type Layer struct {
	User      UserID    `json:"user"`
	Name      string    `json:"layer_name"`
	Link      string    `json:"ipfs_link"`
	CreatedAt time.Time `json:"created_at"`
}

// RegistryStats contains layer registry counters
type RegistryStats struct {
	Created  int64 `json:"created"`
	Rejected int64 `json:"rejected"`
	Resolved int64 `json:"resolved"`
	Missed   int64 `json:"missed"`
}

// Account is a registered identity that can own layers
type Account struct {
	ID        UserID    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
