package model

import "time"

// Preferences holds how a student likes material explained. Used to
// personalize AI prompts.
type Preferences struct {
	Style string `json:"style,omitempty" bson:"style,omitempty"`
}

// Student is the principal consumed from the identity provider plus the
// profile fields the AI prompt builder needs.
type Student struct {
	ID          string      `json:"id" bson:"_id,omitempty"`
	Username    string      `json:"username" bson:"username"`
	Class       string      `json:"class" bson:"class"`
	School      string      `json:"school,omitempty" bson:"school,omitempty"`
	WeakSubject string      `json:"weakSubject,omitempty" bson:"weakSubject,omitempty"`
	Preferences Preferences `json:"preferences,omitempty" bson:"preferences,omitempty"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
}
