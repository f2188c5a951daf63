package model

// DefaultQuestions returns the built-in question set used whenever the
// question store is empty. A fresh slice is returned on every call.
func DefaultQuestions() []Question {
	return []Question{
		{
			ID:       "q1",
			Text:     "¿Cómo evalúa la fiesta navideña proporcionada por la empresa? (1 - 10)",
			Type:     QuestionTypeRating,
			Required: true,
			ScaleMax: 10,
			Order:    1,
		},
		{ID: "q2", Text: "¿Cómo evalúa la animación (Banda y DJ)? (1 - 10)", Type: QuestionTypeRating, Required: true, ScaleMax: 10, Order: 2},
		{ID: "q3", Text: "¿Cómo evalúa la comida? (1 - 10)", Type: QuestionTypeRating, Required: true, ScaleMax: 10, Order: 3},
		{ID: "q4", Text: "¿Cómo evalúa el salón? (1 - 10)", Type: QuestionTypeRating, Required: true, ScaleMax: 10, Order: 4},
		{
			ID:        "q5",
			Text:      "¿En qué podríamos mejorar? (máximo 500 caracteres)",
			Type:      QuestionTypeText,
			Required:  true,
			MaxLength: 500,
			Order:     5,
		},
	}
}

// DefaultAccessPIN is used when no access secret has been stored.
const DefaultAccessPIN = "FCHN2025"

// AccessSettings is the settings/access document
type AccessSettings struct {
	ID  string `json:"-" bson:"_id"`
	PIN string `json:"-" bson:"pin"` // Never serialize
}
