package answers

import "github.com/gradeplus/gradeplus-client/internal/model"

// Action is a user/navigation event that can change a question's status.
type Action string

const (
	// ActionNavigateAway fires on the outgoing question when the current
	// index changes.
	ActionNavigateAway Action = "navigate-away"
	// ActionNavigateInto fires on the incoming question.
	ActionNavigateInto Action = "navigate-into"
	ActionSelect       Action = "select"
	ActionClear        Action = "clear"
	ActionMark         Action = "mark"
)

// NextStatus is the pure status transition function. hasAnswer is the
// question's answer presence after the action has been applied to the
// answer map.
func NextStatus(current model.QuestionStatus, hasAnswer bool, action Action) model.QuestionStatus {
	switch action {
	case ActionNavigateAway:
		if hasAnswer {
			if current.IsMarked() {
				return model.StatusAnsweredMarked
			}
			return model.StatusAnswered
		}
		if current.IsMarked() {
			return model.StatusMarked
		}
		return model.StatusNotAnswered

	case ActionNavigateInto:
		if current == model.StatusNotVisited {
			return model.StatusNotAnswered
		}
		return current

	case ActionSelect:
		if current.IsMarked() {
			return model.StatusAnsweredMarked
		}
		return model.StatusAnswered

	case ActionClear:
		if current == model.StatusAnsweredMarked {
			return model.StatusMarked
		}
		return model.StatusNotAnswered

	case ActionMark:
		if hasAnswer {
			return model.StatusAnsweredMarked
		}
		return model.StatusMarked
	}

	return current
}
