package model

import "time"

type User struct {
	ID             int       `db:"id"`
	Username       string    `db:"username"`
	HashedPassword string    `db:"hashed_password"`
	GroupID        int       `db:"group_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Groups returns the viewer groups the user may see injects for.
func (u User) Groups() []int {
	return []int{u.GroupID}
}
