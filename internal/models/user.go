package models

// UserProfile is the fixed profile returned by GET /users/me
type UserProfile struct {
	ProfileID    int    `json:"profileId"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	RegisteredAt string `json:"registeredAt"`
	UpdatedAt    string `json:"updatedAt"`
	IsActive     bool   `json:"isActive"`
}

// MockUserProfile returns the profile every caller receives
func MockUserProfile() UserProfile {
	return UserProfile{
		ProfileID:    0,
		Email:        "user@example.com",
		Username:     "string",
		RegisteredAt: "string",
		UpdatedAt:    "string",
		IsActive:     true,
	}
}
