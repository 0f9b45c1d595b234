package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Viewer is an attachment of a watching client to a single session.
type Viewer struct {
	Base      `bson:",inline"`
	Name      string             `json:"name" bson:"name" example:"alice-laptop"`
	SessionID primitive.ObjectID `json:"sessionId" bson:"sessionId" example:"507f1f77bcf86cd799439011"`
}

// AddViewer is the information needed to add a new Viewer.
type AddViewer struct {
	Name      string  `json:"name" example:"alice-laptop"`
	SessionID string  `json:"sessionId" example:"507f1f77bcf86cd799439011"`
	OwnerID   *string `json:"ownerId,omitempty"`
}

// UpdateViewer is the information needed to update a Viewer (full replace).
type UpdateViewer struct {
	Name      string  `json:"name" example:"alice-laptop"`
	SessionID string  `json:"sessionId" example:"507f1f77bcf86cd799439011"`
	OwnerID   *string `json:"ownerId,omitempty"`
}
