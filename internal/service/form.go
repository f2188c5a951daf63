package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"feedbackdesk/internal/model"
)

// ErrMissingControl means a question in the schema has no control in the
// submitted form. It indicates a client/schema mismatch, not bad user input.
var ErrMissingControl = errors.New("question has no control in submission")

// ValidationError reports the first required question left empty.
type ValidationError struct {
	QuestionID string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required question %s is empty", e.QuestionID)
}

// Choice is one selectable rating value
type Choice struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Control is the view-model for one question's input
type Control struct {
	QuestionID string             `json:"questionId"`
	Title      string             `json:"title"`
	Type       model.QuestionType `json:"type"`
	Required   bool               `json:"required"`
	Disabled   bool               `json:"disabled"`

	// rating
	Choices     []Choice `json:"choices,omitempty"`
	Placeholder string   `json:"placeholder"`

	// text
	MaxLength int    `json:"maxLength,omitempty"`
	Counter   string `json:"counter,omitempty"`
}

// RenderControls builds one control per question in schema order. Titles are
// numbered from 1.
func RenderControls(questions []model.Question, enabled bool) ([]Control, error) {
	controls := make([]Control, 0, len(questions))
	for i, q := range questions {
		c := Control{
			QuestionID: q.ID,
			Title:      fmt.Sprintf("%d) %s", i+1, q.Text),
			Type:       q.Type,
			Required:   q.Required,
			Disabled:   !enabled,
		}
		switch q.Type {
		case model.QuestionTypeRating:
			scaleMax := q.EffectiveScaleMax()
			c.Placeholder = "Selecciona un número"
			c.Choices = make([]Choice, 0, scaleMax)
			for v := 1; v <= scaleMax; v++ {
				c.Choices = append(c.Choices, Choice{Value: v, Label: strconv.Itoa(v)})
			}
		case model.QuestionTypeText:
			c.Placeholder = "Escribe tu respuesta"
			c.MaxLength = q.EffectiveMaxLength()
			c.Counter = CharCounter("", c.MaxLength)
		default:
			return nil, fmt.Errorf("render %s: %w", q.ID, q.Type.Validate())
		}
		controls = append(controls, c)
	}
	return controls, nil
}

// CharCounter formats the "len/max" counter shown under text controls.
func CharCounter(value string, maxLength int) string {
	return fmt.Sprintf("%d/%d", utf8.RuneCountInString(value), maxLength)
}

// SanitizeNumber returns the rating value when raw coerces to an integer in
// [1, scaleMax]; otherwise ok is false.
func SanitizeNumber(raw interface{}, scaleMax int) (value int, ok bool) {
	f, ok := toNumber(raw)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	if f < 1 || f > float64(scaleMax) {
		return 0, false
	}
	return int(f), true
}

// NormalizeText trims raw and truncates it to maxLength runes.
func NormalizeText(raw interface{}, maxLength int) string {
	var s string
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		s = v
	default:
		s = fmt.Sprint(v)
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLength])
}

// Collect validates raw control values against the ordered questions and
// builds the answer map. It stops at the first required question left empty.
// Optional ratings left blank are stored as nil.
func Collect(questions []model.Question, raw map[string]interface{}) (model.AnswerMap, error) {
	answers := make(model.AnswerMap, len(questions))
	for _, q := range questions {
		value, present := raw[q.ID]
		if !present {
			return nil, fmt.Errorf("%w: %s", ErrMissingControl, q.ID)
		}

		var normalized interface{}
		empty := false
		switch q.Type {
		case model.QuestionTypeRating:
			if n, ok := SanitizeNumber(value, q.EffectiveScaleMax()); ok {
				normalized = n
			} else {
				empty = true
			}
		case model.QuestionTypeText:
			text := NormalizeText(value, q.EffectiveMaxLength())
			normalized = text
			empty = text == ""
		default:
			return nil, fmt.Errorf("collect %s: %w", q.ID, q.Type.Validate())
		}

		if q.Required && empty {
			return nil, &ValidationError{QuestionID: q.ID}
		}
		answers[q.ID] = normalized
	}
	return answers, nil
}

// toNumber coerces stored or submitted values to float64. Booleans, nil and
// blank or non-numeric strings are not numbers.
func toNumber(raw interface{}) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case float32:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
