package models

// Team represents a group of users whose photos count towards shared totals.
type Team struct {
	// ID is the unique identifier for the team (UUID format).
	ID string `json:"id"`

	// Name is the display name of the team (unique).
	Name string `json:"name"`

	// LeaderID is the user who created the team.
	LeaderID string `json:"leader_id"`

	TotalPhotos  int `json:"total_photos"`
	TotalLitter  int `json:"total_litter"`
	TotalMembers int `json:"total_members"`

	// CreatedAt is the Unix timestamp when the team was created.
	CreatedAt int64 `json:"created_at"`
}

// TeamMember holds one user's contribution to a team.
type TeamMember struct {
	TeamID      string `json:"team_id"`
	UserID      string `json:"user_id"`
	TotalPhotos int    `json:"total_photos"`
	TotalLitter int    `json:"total_litter"`
	JoinedAt    int64  `json:"joined_at"`
}
