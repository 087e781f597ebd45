package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gradeplus/gradeplus-client/internal/htmltext"
	"github.com/gradeplus/gradeplus-client/internal/model"
)

// WireValue tolerates the backend's heterogeneous answer encodings: a
// plain string, a bare number, or an array of either, normalized to a
// comma-joined string for the reconciler to canonicalize.
type WireValue string

func (w *WireValue) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		*w = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = WireValue(strings.TrimSpace(s))
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parts := make([]string, 0, len(raw))
		for _, r := range raw {
			var elem WireValue
			if err := elem.UnmarshalJSON(r); err != nil {
				return err
			}
			if elem != "" {
				parts = append(parts, string(elem))
			}
		}
		*w = WireValue(strings.Join(parts, ","))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported wire value %s", data)
		}
		*w = WireValue(n.String())
	}
	return nil
}

// questionRecord is the backend's raw question payload, HTML and all.
type questionRecord struct {
	ID          string      `json:"id" validate:"required"`
	QID         string      `json:"qid"`
	Question    string      `json:"question"`
	Options     []string    `json:"options"`
	Type        string      `json:"type"`
	Marks       model.Marks `json:"marks"`
	Selected    WireValue   `json:"selectedAnswers"`
	Correct     WireValue   `json:"answers"`
	Explanation string      `json:"explanation"`
}

// ResultRecord is one question of a completed attempt: the clean question
// plus the raw selected/correct encodings for the reconciler.
type ResultRecord struct {
	Question    model.Question
	Selected    string
	Correct     string
	Explanation string
}

// toQuestion converts a raw record into the clean internal representation:
// markup stripped, empty options dropped, kind derived.
func (r questionRecord) toQuestion() model.Question {
	options := htmltext.StripOptions(r.Options)
	correctCount := 0
	if r.Correct != "" {
		correctCount = len(strings.Split(string(r.Correct), ","))
	}
	return model.Question{
		ID:         r.ID,
		ExternalID: r.QID,
		Text:       htmltext.Strip(r.Question),
		Options:    options,
		Kind:       model.DeriveKind(r.Type, options, correctCount),
		Marks:      r.Marks,
		Images:     htmltext.ImageSources(r.Question),
	}
}

// savePayload is the body of the per-question save/submit endpoint.
type savePayload struct {
	Data     string `json:"data"`
	Response string `json:"response"`
}
