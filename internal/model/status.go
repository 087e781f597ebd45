package model

// QuestionStatus tracks a question's answer/review state in the palette.
// Every question has exactly one status at all times.
type QuestionStatus string

const (
	StatusNotVisited     QuestionStatus = "not-visited"
	StatusNotAnswered    QuestionStatus = "not-answered"
	StatusAnswered       QuestionStatus = "answered"
	StatusMarked         QuestionStatus = "marked"
	StatusAnsweredMarked QuestionStatus = "answered-marked"
)

// Valid reports whether s is one of the five known statuses.
func (s QuestionStatus) Valid() bool {
	switch s {
	case StatusNotVisited, StatusNotAnswered, StatusAnswered, StatusMarked, StatusAnsweredMarked:
		return true
	}
	return false
}

// IsMarked reports whether the question is flagged for review.
func (s QuestionStatus) IsMarked() bool {
	return s == StatusMarked || s == StatusAnsweredMarked
}
