package model

import "time"

// Doubt is a student question scoped to a class. The class string doubles as
// the fan-out room id.
type Doubt struct {
	ID       string `json:"id" bson:"_id,omitempty"`
	Title    string `json:"title" bson:"title"`
	Body     string `json:"body" bson:"body"`
	Subject  string `json:"subject" bson:"subject"`
	Topic    string `json:"topic" bson:"topic"`
	AuthorID string `json:"author" bson:"author"`
	Class    string `json:"class" bson:"class"`

	// HasAIResponse flips false->true at most once, when an AI answer is
	// committed. ProcessingByAI is the transient lock flag; it must only be
	// set through DoubtRepo.TryAcquireAILock.
	HasAIResponse  bool `json:"hasAiResponse" bson:"hasAiResponse"`
	ProcessingByAI bool `json:"isProcessingByAI" bson:"isProcessingByAI"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Age returns how long ago the doubt was created.
func (d *Doubt) Age(now time.Time) time.Duration {
	return now.Sub(d.CreatedAt)
}

// DoubtFeedItem is a doubt shaped for the read paths: author display name and
// the resolved answer list in creation order.
type DoubtFeedItem struct {
	Doubt      `bson:",inline"`
	AuthorName string       `json:"authorName"`
	Answers    []AnswerView `json:"answers"`
}
