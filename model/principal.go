package model

// Principal is the authenticated user on whose behalf an operation runs.
type Principal struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
}
