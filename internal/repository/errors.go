package repository

import "errors"

var (
	// ErrNotFound is returned when a point operation matches no document
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when Create meets an id that is already stored
	ErrDuplicateID = errors.New("duplicate id")
)

const (
	questionsCollection = "questions"
	responsesCollection = "responses"
	settingsCollection  = "settings"

	accessSettingsID = "access"
)
