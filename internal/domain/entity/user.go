package entity

import "time"

// SubscriptionTier is the billing tier of a bot user
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// User represents a chat user of the bot
type User struct {
	ID                 int64            `bson:"_id"`
	Username           string           `bson:"username"`
	FirstName          string           `bson:"firstName"`
	Tier               SubscriptionTier `bson:"tier"`
	SubscriptionExpiry *time.Time       `bson:"subscriptionExpiry,omitempty"`
	LastActiveAt       time.Time        `bson:"lastActiveAt"`
	CreatedAt          time.Time        `bson:"createdAt"`
}

// IsPremium reports whether the user has an unexpired premium subscription.
// A premium user without an expiry never lapses.
func (u *User) IsPremium(now time.Time) bool {
	if u == nil || u.Tier != TierPremium {
		return false
	}
	return u.SubscriptionExpiry == nil || u.SubscriptionExpiry.After(now)
}
