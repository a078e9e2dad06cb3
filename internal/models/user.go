package models

import "time"

// User is the durable account record keyed by the chat platform's user id.
// Coins may go negative: admin grants are applied unchecked.
type User struct {
	ID           int64     `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"user_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Coins        int       `gorm:"not null" json:"coins"`
	IsPremium    bool      `gorm:"default:false" json:"is_premium"`
	IsBanned     bool      `gorm:"default:false" json:"is_banned"`
	ReferralCode string    `gorm:"size:8;uniqueIndex;not null" json:"referral_code"`
	ReferredBy   *string   `gorm:"size:8;index" json:"referred_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
