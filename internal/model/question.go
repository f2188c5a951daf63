package model

import (
	"errors"
	"fmt"
	"time"
)

// QuestionType defines the type of question
type QuestionType string

const (
	QuestionTypeRating QuestionType = "rating" // Integer scale 1..ScaleMax
	QuestionTypeText   QuestionType = "text"   // Free text bounded by MaxLength
)

const (
	DefaultScaleMax  = 10
	MinScaleMax      = 2
	MaxScaleMax      = 10
	DefaultMaxLength = 250
	DefaultOrder     = 1
)

// ErrUnknownQuestionType is returned by every switch over QuestionType that
// meets a value it does not handle.
var ErrUnknownQuestionType = errors.New("unknown question type")

// Validate reports whether t is one of the known question types.
func (t QuestionType) Validate() error {
	switch t {
	case QuestionTypeRating, QuestionTypeText:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownQuestionType, string(t))
	}
}

// Question is one entry of the question schema
type Question struct {
	ID        string       `json:"id" bson:"_id"`
	Text      string       `json:"text" bson:"text"`
	Type      QuestionType `json:"type" bson:"type"`
	Required  bool         `json:"required" bson:"required"`
	Order     int          `json:"order" bson:"order"`
	ScaleMax  int          `json:"scaleMax,omitempty" bson:"scaleMax,omitempty"`   // rating only
	MaxLength int          `json:"maxLength,omitempty" bson:"maxLength,omitempty"` // text only
	CreatedAt time.Time    `json:"createdAt" bson:"createdAt"`
}

// EffectiveScaleMax returns ScaleMax clamped to [MinScaleMax, MaxScaleMax],
// or the default when unset.
func (q Question) EffectiveScaleMax() int {
	if q.ScaleMax <= 0 {
		return DefaultScaleMax
	}
	return ClampScaleMax(q.ScaleMax)
}

// ClampScaleMax bounds a rating scale to [MinScaleMax, MaxScaleMax].
func ClampScaleMax(v int) int {
	if v < MinScaleMax {
		return MinScaleMax
	}
	if v > MaxScaleMax {
		return MaxScaleMax
	}
	return v
}

// EffectiveMaxLength returns MaxLength or the default when unset.
func (q Question) EffectiveMaxLength() int {
	if q.MaxLength <= 0 {
		return DefaultMaxLength
	}
	return q.MaxLength
}

// QuestionPatch is a partial question update. Nil fields are left untouched
// by the merge.
type QuestionPatch struct {
	Text      *string       `json:"text,omitempty"`
	Type      *QuestionType `json:"type,omitempty"`
	Required  *bool         `json:"required,omitempty"`
	Order     *int          `json:"order,omitempty"`
	ScaleMax  *int          `json:"scaleMax,omitempty"`
	MaxLength *int          `json:"maxLength,omitempty"`
}

// Apply merges the patch into q.
func (p QuestionPatch) Apply(q *Question) {
	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.Type != nil {
		q.Type = *p.Type
	}
	if p.Required != nil {
		q.Required = *p.Required
	}
	if p.Order != nil {
		q.Order = *p.Order
	}
	if p.ScaleMax != nil {
		q.ScaleMax = *p.ScaleMax
	}
	if p.MaxLength != nil {
		q.MaxLength = *p.MaxLength
	}
}
