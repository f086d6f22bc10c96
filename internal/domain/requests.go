package domain

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListNotificationsRequest represents a request to list the caller's notifications
type ListNotificationsRequest struct {
	Type   NotificationType `form:"type"`
	Limit  int              `form:"limit"`
	Offset int              `form:"offset"`
}

// Normalize applies the default page size, clamps oversized limits to the
// documented cap, and floors negative offsets.
func (r *ListNotificationsRequest) Normalize() {
	if r.Limit < 1 {
		r.Limit = defaultPageSize
	}
	if r.Limit > maxPageSize {
		r.Limit = maxPageSize
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// UpdatePreferencesRequest represents a preferences save from the settings form
type UpdatePreferencesRequest struct {
	EmailEnabled         bool  `json:"email_enabled"`
	RemindersEnabled     bool  `json:"reminders_enabled"`
	ConfirmationsEnabled bool  `json:"confirmations_enabled"`
	UpdatesEnabled       bool  `json:"updates_enabled"`
	ReminderOffsets      []int `json:"reminder_offsets"`
}
