package graph

import (
	"context"

	"github.com/efebarandurmaz/crewnet/internal/network"
)

// Collaborator is one neighbour of a person in the stored network.
type Collaborator struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	NodeType   string  `json:"node_type"`
	Role       string  `json:"role"`
	Weight     float64 `json:"weight"`
	CofeatRate float64 `json:"cofeat_rate"`
}

// Repository provides graph storage for collaboration networks.
type Repository interface {
	// StoreNetwork persists every person and collaboration of g.
	StoreNetwork(ctx context.Context, g *network.Graph) error
	// Collaborators returns the people linked to personID, strongest first.
	// A limit of zero returns all of them.
	Collaborators(ctx context.Context, personID string, limit int) ([]Collaborator, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
