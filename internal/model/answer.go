package model

import "time"

// AnswerMap maps a question ID to its normalized value: int (or nil) for
// rating questions, string for text questions. Values read back from storage
// may carry other numeric types.
type AnswerMap map[string]interface{}

// Response is one persisted survey submission
type Response struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Answers   AnswerMap `json:"answers" bson:"answers"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`

	// Legacy holds answers stored as top-level fields by older clients
	// (e.g. {"q1": 9}); it is never written.
	Legacy map[string]interface{} `json:"-" bson:"-"`
}

// Answer returns the stored value for a question. The answers map wins when it
// has the key, even if the value is nil; otherwise the legacy top-level field
// is used.
func (r *Response) Answer(questionID string) (interface{}, bool) {
	if r.Answers != nil {
		if v, ok := r.Answers[questionID]; ok {
			return v, true
		}
	}
	if r.Legacy != nil {
		if v, ok := r.Legacy[questionID]; ok {
			return v, true
		}
	}
	return nil, false
}
