package model

import "time"

type UserID string

type UserStatus int

const (
	UserStatusActive UserStatus = iota
	UserStatusDeactivated
)

type CreateUserParams struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type User struct {
	ID             UserID     `db:"ID"`
	CreatedAt      time.Time  `db:"CreatedAt"`
	UpdatedAt      *time.Time `db:"UpdatedAt"`
	LastLoggedInAt *time.Time `db:"LastLoggedInAt"`
	Status         UserStatus `db:"Status"`
	DisplayName    string     `db:"DisplayName"`
	Email          string     `db:"Email"`
	Password       string     `db:"Password"`
	VerifiedAt     *time.Time `db:"VerifiedAt"`
}

// Principal is the session-facing projection of a User. Deleted mirrors
// UserStatusDeactivated; Verified is informational and gates nothing.
type Principal struct {
	DisplayName string `json:"display_name"`
	Verified    bool   `json:"verified"`
	Deleted     bool   `json:"deleted"`
}

func (u *User) Principal() *Principal {
	return &Principal{
		DisplayName: u.DisplayName,
		Verified:    u.VerifiedAt != nil,
		Deleted:     u.Status == UserStatusDeactivated,
	}
}
