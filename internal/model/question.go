package model

// QuestionKind classifies how a question is answered.
type QuestionKind string

const (
	KindSingle   QuestionKind = "single"
	KindMultiple QuestionKind = "multiple"
	KindText     QuestionKind = "text"
)

// Marks holds the positive/negative marking scheme for a question.
type Marks struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
}

// Question is a single exam question as seen by the client. Immutable once
// ingested, except for the derived Section tag.
type Question struct {
	ID string `json:"id" validate:"required"`
	// ExternalID is the backend's question id, used only in save payloads.
	ExternalID string       `json:"qid"`
	Text       string       `json:"question"`
	Options    []string     `json:"options"`
	Kind       QuestionKind `json:"kind"`
	Marks      Marks        `json:"marks"`
	// Images holds src URLs of figures embedded in the original markup;
	// the text itself is stored stripped.
	Images  []string `json:"images,omitempty"`
	Section string   `json:"section,omitempty"`
}

// DeriveKind resolves a question's kind from its type hint, its options and
// the number of correct answers declared by the backend. Text iff there are
// no options; multiple iff an explicit multi/checkbox marker or a
// multi-valued correct set; single otherwise.
func DeriveKind(typeHint string, options []string, correctCount int) QuestionKind {
	if len(options) == 0 {
		return KindText
	}
	switch typeHint {
	case "multiple", "multi", "checkbox":
		return KindMultiple
	}
	if correctCount > 1 {
		return KindMultiple
	}
	return KindSingle
}
