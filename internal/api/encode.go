package api

import (
	"strconv"
	"strings"

	"github.com/gradeplus/gradeplus-client/internal/model"
)

// EncodeAnswer canonicalizes a typed answer into the backend's wire form:
// single → stringified option index, multiple → sorted unique indices
// joined by comma, text → trimmed raw string. No answer encodes as "".
func EncodeAnswer(a model.Answer, present bool) string {
	if !present || !a.HasValue() {
		return ""
	}
	switch a.Kind {
	case model.KindSingle:
		return strconv.Itoa(a.Index)
	case model.KindMultiple:
		parts := make([]string, len(a.Indices))
		for i, idx := range a.Indices {
			parts[i] = strconv.Itoa(idx)
		}
		return strings.Join(parts, ",")
	case model.KindText:
		return strings.TrimSpace(a.Text)
	}
	return ""
}
