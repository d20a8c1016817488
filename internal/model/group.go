package model

// Group is a team or staff cohort sharing inject visibility.
type Group struct {
	ID         int    `db:"id"          json:"id"`
	Name       string `db:"name"        json:"name"`
	TeamNumber *int   `db:"team_number" json:"team_number,omitempty"`
}
