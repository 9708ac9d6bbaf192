package model

import (
	"strings"
	"time"
	"unicode"
)

// AIRespondentName is the display name substituted when an answer has no
// answering student and is_ai is set.
const AIRespondentName = "AI"

// Answer is a response to a doubt, authored by a peer or generated by the AI
// provider. Immutable once created.
type Answer struct {
	ID      string `json:"id" bson:"_id,omitempty"`
	DoubtID string `json:"doubt" bson:"doubt"`
	Content string `json:"content" bson:"content"`

	// AnsweredBy is empty for AI-generated answers.
	AnsweredBy string `json:"answered_by,omitempty" bson:"answered_by,omitempty"`
	IsAI       bool   `json:"is_ai" bson:"is_ai"`
	IsAccepted bool   `json:"is_accepted" bson:"is_accepted"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// AnswerView is an answer annotated for display: the respondent's name (or
// "AI") and their initials.
type AnswerView struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	RespondentName string    `json:"respondentName"`
	Initials       string    `json:"initials"`
	IsAI           bool      `json:"is_ai"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Initials derives up to two initials from a display name, e.g. "jane doe"
// -> "JD".
func Initials(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range fields {
		if i == 2 {
			break
		}
		b.WriteRune(unicode.ToUpper([]rune(f)[0]))
	}
	return b.String()
}
