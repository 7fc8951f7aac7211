package models

import (
	"time"
)

// Role is the user's privilege level
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName    string    `gorm:"size:150;not null" json:"first_name"`
	LastName     string    `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:16;not null;default:user" json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// IsAdmin reports whether the user may write any resource
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Subscription is a follower relation: UserID follows AuthorID
type Subscription struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_subscription_user_author"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_subscription_user_author;index;check:chk_subscription_not_self,user_id <> author_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}
