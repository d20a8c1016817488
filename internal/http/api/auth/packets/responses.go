package packets

type LoginResponse struct {
	Token string `json:"token"`
}

// returned for profile endpoints
type ProfileResponse struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	GroupID   int    `json:"group_id"`
	GroupName string `json:"group_name,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
