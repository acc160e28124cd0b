package domain

// Settings represents user configurable options.
type Settings struct {
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

// DefaultSettings are used when a user has never saved any preferences.
// Reminders default to on, matching the settings screen's initial state.
func DefaultSettings() Settings {
	return Settings{NotificationsEnabled: true}
}
