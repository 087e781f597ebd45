package model

// TestPaper is the exam metadata fetched at session start.
type TestPaper struct {
	ID              string `json:"id"`
	Name            string `json:"name" validate:"required"`
	Details         string `json:"details"`
	DurationMinutes int    `json:"duration" validate:"gte=0"`
	QuestionCount   int    `json:"questions" validate:"gte=0"`
	TotalMarks      int    `json:"marks"`
	// Sections is the compact descriptor string, e.g.
	// "Math#@#1#@#25@@@English#@#26#@#50".
	Sections string `json:"sections"`
}

// Section is a named, 1-based inclusive range of question numbers.
type Section struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Contains reports whether the 1-based question number n falls in the section.
func (s Section) Contains(n int) bool {
	return n >= s.Start && n <= s.End
}
