package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Device is a capture endpoint. A device may be associated with any number
// of sessions; the sessionIds set is kept free of duplicates.
type Device struct {
	Base        `bson:",inline"`
	Name        string               `json:"name" bson:"name" example:"lobby-cam-4"`
	Description string               `json:"description" bson:"description" example:"4th floor lobby camera"`
	SessionIDs  []primitive.ObjectID `json:"sessionIds" bson:"sessionIds"`
}

// AddDevice is the information needed to add a new Device.
type AddDevice struct {
	Name        string   `json:"name" example:"lobby-cam-4"`
	Description string   `json:"description" example:"4th floor lobby camera"`
	SessionIDs  []string `json:"sessionIds" example:"507f1f77bcf86cd799439011"`
	OwnerID     *string  `json:"ownerId,omitempty"`
}

// UpdateDevice is the information needed to update a Device. The update is
// a full replace: fields left absent are cleared on the stored document.
type UpdateDevice struct {
	Name        string   `json:"name" example:"lobby-cam-4"`
	Description string   `json:"description" example:"4th floor lobby camera"`
	SessionIDs  []string `json:"sessionIds" example:"507f1f77bcf86cd799439011"`
	OwnerID     *string  `json:"ownerId,omitempty"`
}
