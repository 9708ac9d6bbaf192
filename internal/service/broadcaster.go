package service

// Broadcaster publishes real-time events to a class room (avoids import
// cycle with the ws transport). Delivery is best effort: no persistence, no
// replay, disconnected clients reconcile through the query API.
type Broadcaster interface {
	PublishNewDoubt(class string, doubt interface{})
	PublishNewAnswer(class, doubtID string, answer interface{})
}
