package service

import (
	"errors"
	"fmt"

	"feedbackdesk/internal/model"
)

// Event drives the submission lifecycle
type Event string

const (
	EventAccessGranted    Event = "access_granted"
	EventAccessDenied     Event = "access_denied"
	EventSubmit           Event = "submit"
	EventPersistSucceeded Event = "persist_succeeded"
	EventPersistFailed    Event = "persist_failed"
	EventReset            Event = "reset"
)

// Effect is a side effect the caller applies after a transition
type Effect string

const (
	EffectEnableControls       Effect = "enable_controls"
	EffectDisableControls      Effect = "disable_controls"
	EffectClearControls        Effect = "clear_controls"
	EffectClearMessages        Effect = "clear_messages"
	EffectAccessError          Effect = "access_error"
	EffectPersist              Effect = "persist"
	EffectConfirm              Effect = "confirm"
	EffectRecoverableError     Effect = "recoverable_error"
	EffectInformAlreadySent    Effect = "inform_already_sent"
	EffectInformAccessRequired Effect = "inform_access_required"
)

var (
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrInvalidTransition    = errors.New("invalid transition")
)

// Transition is the submission state machine. It has no side effects; the
// returned effects describe what the caller must do.
func Transition(state model.SessionState, event Event) (model.SessionState, []Effect, error) {
	switch event {
	case EventReset:
		return model.SessionLocked, []Effect{EffectClearControls, EffectClearMessages, EffectDisableControls}, nil

	case EventAccessGranted:
		switch state {
		case model.SessionLocked, model.SessionReady, model.SessionSent:
			return model.SessionReady, []Effect{EffectEnableControls, EffectClearMessages}, nil
		case model.SessionSending:
			return state, nil, nil
		}

	case EventAccessDenied:
		switch state {
		case model.SessionLocked, model.SessionReady, model.SessionSent:
			return model.SessionLocked, []Effect{EffectDisableControls, EffectAccessError}, nil
		case model.SessionSending:
			return state, nil, nil
		}

	case EventSubmit:
		switch state {
		case model.SessionReady:
			return model.SessionSending, []Effect{EffectDisableControls, EffectPersist}, nil
		case model.SessionSending:
			return state, nil, ErrSubmissionInProgress
		case model.SessionSent:
			return state, []Effect{EffectInformAlreadySent}, nil
		case model.SessionLocked:
			return state, []Effect{EffectInformAccessRequired}, nil
		}

	case EventPersistSucceeded:
		if state == model.SessionSending {
			return model.SessionSent, []Effect{EffectClearControls, EffectConfirm, EffectDisableControls}, nil
		}
		return state, nil, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, event, state)

	case EventPersistFailed:
		if state == model.SessionSending {
			return model.SessionReady, []Effect{EffectEnableControls, EffectRecoverableError}, nil
		}
		return state, nil, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, event, state)

	default:
		return state, nil, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, event)
	}

	return state, nil, fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, state)
}

// ApplyEffects writes transition effects onto the session record.
func ApplyEffects(session *model.IntakeSession, effects []Effect) {
	for _, e := range effects {
		switch e {
		case EffectEnableControls:
			session.ControlsEnabled = true
		case EffectDisableControls:
			session.ControlsEnabled = false
		case EffectClearControls:
			session.FocusQuestionID = ""
		case EffectClearMessages:
			session.AccessError = ""
			session.Error = ""
			session.Notice = ""
		case EffectAccessError:
			session.AccessError = MsgPINInvalid
		case EffectPersist:
			session.Error = ""
			session.Notice = MsgSending
		case EffectConfirm:
			session.Error = ""
			session.Notice = MsgThanks
		case EffectRecoverableError:
			session.Notice = ""
			session.Error = MsgPersistFailed
		case EffectInformAlreadySent:
			session.Error = MsgAlreadySent
		case EffectInformAccessRequired:
			session.Error = MsgAccessRequired
		}
	}
}

// step runs Transition and applies its effects to session.
func step(session *model.IntakeSession, event Event) ([]Effect, error) {
	next, effects, err := Transition(session.State, event)
	if err != nil {
		return nil, err
	}
	session.State = next
	ApplyEffects(session, effects)
	return effects, nil
}
