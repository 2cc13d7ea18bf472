package events

import (
	"time"

	"github.com/GriffinCanCode/galaxy/internal/shared/id"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// TypeLayerCreated identifies a LayerCreated event on the wire
const TypeLayerCreated = "layer.created"

// LayerCreated is emitted once per successful create_layer
type LayerCreated struct {
	ID        id.EventID   `json:"id"`
	Type      string       `json:"type"`
	User      types.UserID `json:"user"`
	LayerName string       `json:"layer_name"`
	IPFSLink  string       `json:"ipfs_link"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewLayerCreated builds the event for a committed layer
func NewLayerCreated(layer types.Layer) LayerCreated {
	return LayerCreated{
		ID:        id.NewEventID(),
		Type:      TypeLayerCreated,
		User:      layer.User,
		LayerName: layer.Name,
		IPFSLink:  layer.Link,
		CreatedAt: layer.CreatedAt,
	}
}
