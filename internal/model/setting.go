package model

// Preferences holds the profile-wide user preferences.
type Preferences struct {
	TranslateEnabled bool `json:"translate_enabled"`
}

// UpdatePreferencesRequest is the payload for updating preferences.
type UpdatePreferencesRequest struct {
	TranslateEnabled *bool `json:"translate_enabled" binding:"required"`
}
