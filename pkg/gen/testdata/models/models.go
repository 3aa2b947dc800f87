package models

import "time"

// User is an account holder.
//
// steward:table app.users
type User struct {
	ID        int64     `db:"id,pk"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	cache     string
	Scratch   string `db:"-"`
}

// steward:table app.org_members
type OrgMember struct {
	OrgID  int64 `db:"org_id,pk"`
	UserID int64 `db:"user_id,pk"`
	Role   string
}

// steward:table app.events
type Event struct {
	At      time.Time `db:"at,pk"`
	Payload string    `db:"payload"`
}
