package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"feedbackdesk/internal/repository"
)

// MinPINLength is the shortest access PIN an administrator may set.
const MinPINLength = 4

var (
	ErrPINCurrentMismatch = errors.New("current pin does not match")
	ErrPINNewRequired     = errors.New("new pin is required")
	ErrPINTooShort        = errors.New("new pin is too short")
	ErrPINConfirmMismatch = errors.New("pin confirmation does not match")
)

// Gate resolves the shared access secret and checks user input against it.
type Gate struct {
	settings   repository.SettingsRepo
	defaultPIN string
}

// NewGate creates a gate. defaultPIN is used while no secret is stored.
func NewGate(settings repository.SettingsRepo, defaultPIN string) *Gate {
	return &Gate{
		settings:   settings,
		defaultPIN: defaultPIN,
	}
}

// Secret returns the effective access secret: the stored PIN, or the default
// when none is stored.
func (g *Gate) Secret(ctx context.Context) (string, error) {
	pin, err := g.settings.GetAccessPIN(ctx)
	if err != nil {
		return "", fmt.Errorf("load access pin: %w", err)
	}
	if pin == "" {
		return g.defaultPIN, nil
	}
	return pin, nil
}

// Stored reports whether an administrator has set a PIN.
func (g *Gate) Stored(ctx context.Context) (bool, error) {
	pin, err := g.settings.GetAccessPIN(ctx)
	if err != nil {
		return false, fmt.Errorf("load access pin: %w", err)
	}
	return pin != "", nil
}

// MatchPIN compares trimmed input against secret in constant time.
func MatchPIN(input, secret string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(input)), []byte(secret)) == 1
}

// ChangeSecret replaces the access PIN. When a PIN is already stored, current
// must equal it. All values are trimmed. The write is last-write-wins.
func (g *Gate) ChangeSecret(ctx context.Context, current, next, confirm string) error {
	current = strings.TrimSpace(current)
	next = strings.TrimSpace(next)
	confirm = strings.TrimSpace(confirm)

	stored, err := g.settings.GetAccessPIN(ctx)
	if err != nil {
		return fmt.Errorf("load access pin: %w", err)
	}
	if stored != "" && subtle.ConstantTimeCompare([]byte(current), []byte(stored)) != 1 {
		return ErrPINCurrentMismatch
	}
	if next == "" {
		return ErrPINNewRequired
	}
	if utf8.RuneCountInString(next) < MinPINLength {
		return ErrPINTooShort
	}
	if next != confirm {
		return ErrPINConfirmMismatch
	}

	if err := g.settings.SetAccessPIN(ctx, next); err != nil {
		return fmt.Errorf("save access pin: %w", err)
	}
	return nil
}

// PINErrorMessage maps ChangeSecret validation errors to user messages.
func PINErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrPINCurrentMismatch):
		return MsgPINCurrentMismatch, true
	case errors.Is(err, ErrPINNewRequired):
		return MsgPINNewRequired, true
	case errors.Is(err, ErrPINTooShort):
		return MsgPINTooShort, true
	case errors.Is(err, ErrPINConfirmMismatch):
		return MsgPINConfirmMismatch, true
	}
	return "", false
}
