package model

import "time"

// SessionState is the lifecycle state of one intake attempt
type SessionState string

const (
	SessionLocked  SessionState = "locked"
	SessionReady   SessionState = "ready"
	SessionSending SessionState = "sending"
	SessionSent    SessionState = "sent"
)

// IntakeSession is the per-respondent context threaded through every intake
// operation. It is stored in the session cache, never in MongoDB.
type IntakeSession struct {
	ID              string       `json:"id"`
	State           SessionState `json:"state"`
	ControlsEnabled bool         `json:"controlsEnabled"`
	AccessError     string       `json:"accessError,omitempty"`
	Error           string       `json:"error,omitempty"`
	Notice          string       `json:"notice,omitempty"`
	FocusQuestionID string       `json:"focusQuestionId,omitempty"`
	Submissions     int          `json:"submissions"`
	LastResponseID  string       `json:"lastResponseId,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}
