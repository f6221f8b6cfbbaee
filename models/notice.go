package models

// NoticeLevel distinguishes warnings (recovered to defaults) from errors
// (an edit could not be persisted).
type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-visible, non-fatal condition raised by the settings
// engine, surfaced to the dashboard as a toast.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
