package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base holds the fields shared by every resource document. The id is
// assigned once at creation and never reused; creatorId and createdDate are
// immutable after that. ownerId defaults to creatorId and may only be
// reassigned subject to the ownership policy.
type Base struct {
	ID          primitive.ObjectID `json:"id" bson:"_id" example:"507f1f77bcf86cd799439011"`
	CreatedDate time.Time          `json:"createdDate" bson:"createdDate"`
	UpdatedDate time.Time          `json:"updatedDate" bson:"updatedDate"`
	CreatorID   string             `json:"creatorId" bson:"creatorId"`
	UpdatorID   string             `json:"updatorId" bson:"updatorId"`
	OwnerID     string             `json:"ownerId" bson:"ownerId"`
}

// NewBase stamps the creation-time fields for a resource created by caller.
func NewBase(callerID string, ownerID string, now time.Time) Base {
	return Base{
		ID:          primitive.NewObjectID(),
		CreatedDate: now,
		UpdatedDate: now,
		CreatorID:   callerID,
		UpdatorID:   callerID,
		OwnerID:     ownerID,
	}
}

// Touch refreshes the mutation-tracking fields for an update by caller.
func (b *Base) Touch(callerID string, ownerID string, now time.Time) {
	b.UpdatedDate = now
	b.UpdatorID = callerID
	b.OwnerID = ownerID
}
