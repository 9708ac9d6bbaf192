package service

import "errors"

var (
	ErrDoubtNotFound   = errors.New("doubt not found")
	ErrStudentNotFound = errors.New("student not found")

	ErrEmptyContent      = errors.New("answer content is required")
	ErrSubmitterRequired = errors.New("studentId is required for non-AI answers")

	// ErrNotYetEligible means the grace period has not elapsed; clients show
	// a countdown rather than an error.
	ErrNotYetEligible = errors.New("doubt is not yet eligible for an AI answer")

	// ErrAlreadyAnswered means an AI answer exists; terminal for the AI path.
	ErrAlreadyAnswered = errors.New("doubt already has an AI answer")

	// ErrHumanAnswered means a student answered first, so the AI stood down.
	// Also terminal: hasAiResponse stays false and no AI answer will come.
	ErrHumanAnswered = errors.New("doubt already has a student answer")

	// ErrAlreadyProcessing means another worker holds the AI lock; retry the
	// read path shortly.
	ErrAlreadyProcessing = errors.New("doubt is already being answered")

	ErrNotAuthor = errors.New("only the doubt author can request an AI answer")
)
