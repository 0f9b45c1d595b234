package models

// Session is a live or recorded stream that devices publish into and
// viewers attach to.
type Session struct {
	Base        `bson:",inline"`
	Name        string `json:"name" bson:"name" example:"standup-2026-08-31"`
	Description string `json:"description" bson:"description" example:"daily standup recording"`
}

// AddSession is the information needed to add a new Session.
type AddSession struct {
	Name        string  `json:"name" example:"standup-2026-08-31"`
	Description string  `json:"description" example:"daily standup recording"`
	OwnerID     *string `json:"ownerId,omitempty"`
}

// UpdateSession is the information needed to update a Session (full replace).
type UpdateSession struct {
	Name        string  `json:"name" example:"standup-2026-08-31"`
	Description string  `json:"description" example:"daily standup recording"`
	OwnerID     *string `json:"ownerId,omitempty"`
}
