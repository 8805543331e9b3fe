package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RateLimitRecord is the single mutable counter kept per (user, operation).
// It is created on the first call and never deleted; a new window resets Count.
type RateLimitRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Operation   string             `bson:"operation" json:"operation"`
	LastCallAt  time.Time          `bson:"lastCallAt" json:"lastCallAt"`
	WindowStart time.Time          `bson:"windowStart" json:"windowStart"`
	Count       int                `bson:"count" json:"count"`
}

// IsNew reports whether the record has never been stored.
func (r *RateLimitRecord) IsNew() bool {
	return r.LastCallAt.IsZero() && r.WindowStart.IsZero()
}
