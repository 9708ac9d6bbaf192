package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"doubtdesk/internal/config"
	"doubtdesk/internal/model"
	"doubtdesk/internal/repository"
)

// AIResponder generates AI answers for doubts. Both the background dispatcher
// and the on-demand trigger run the same lock -> recheck -> generate ->
// commit -> release sequence through it.
type AIResponder struct {
	doubtRepo   repository.DoubtRepo
	answerRepo  repository.AnswerRepo
	studentRepo repository.StudentRepo
	answerSvc   *AnswerService
	generator   Generator
	config      *config.AIConfig
	log         *zap.Logger
	now         func() time.Time
}

// NewAIResponder creates a new AI responder.
func NewAIResponder(
	doubtRepo repository.DoubtRepo,
	answerRepo repository.AnswerRepo,
	studentRepo repository.StudentRepo,
	answerSvc *AnswerService,
	generator Generator,
	cfg *config.AIConfig,
	log *zap.Logger,
) *AIResponder {
	return &AIResponder{
		doubtRepo:   doubtRepo,
		answerRepo:  answerRepo,
		studentRepo: studentRepo,
		answerSvc:   answerSvc,
		generator:   generator,
		config:      cfg,
		log:         log,
		now:         time.Now,
	}
}

// RequestAnswer is the synchronous, author-triggered path. Authorship is
// enforced by the HTTP layer; eligibility (grace period elapsed, no AI answer
// yet) is enforced here. Returns the generated text so the client can render
// it immediately.
func (r *AIResponder) RequestAnswer(ctx context.Context, doubt *model.Doubt) (string, error) {
	if doubt.HasAIResponse {
		return "", ErrAlreadyAnswered
	}
	if doubt.Age(r.now()) <= r.config.GracePeriod {
		return "", ErrNotYetEligible
	}

	locked, err := r.doubtRepo.TryAcquireAILock(ctx, doubt.ID)
	if err != nil {
		return "", fmt.Errorf("failed to acquire AI lock: %w", err)
	}
	if !locked {
		return "", ErrAlreadyProcessing
	}

	answer, err := r.answerLocked(ctx, doubt)
	if err != nil {
		return "", err
	}
	if answer == nil {
		// A human got there between the eligibility check and the lock.
		return "", ErrHumanAnswered
	}

	return answer.Content, nil
}

// answerLocked runs with the AI lock held and always releases it. A nil
// answer with nil error means a human answer already existed, so the AI
// stands down and hasAiResponse stays false.
func (r *AIResponder) answerLocked(ctx context.Context, doubt *model.Doubt) (*model.Answer, error) {
	defer func() {
		// ctx may already be cancelled here (client disconnected during
		// generation, or shutdown). The release must still reach the store
		// or the doubt stays locked and ineligible forever.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := r.doubtRepo.ReleaseAILock(releaseCtx, doubt.ID); err != nil {
			r.log.Error("failed to release AI lock",
				zap.String("doubtId", doubt.ID), zap.Error(err))
		}
	}()

	exists, err := r.answerRepo.ExistsForDoubt(ctx, doubt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing answers: %w", err)
	}
	if exists {
		return nil, nil
	}

	student, err := r.studentRepo.GetByID(ctx, doubt.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author: %w", err)
	}

	text, err := r.generator.Generate(ctx, r.buildDoubtPrompt(doubt, student))
	if err != nil {
		return nil, fmt.Errorf("ai generation failed: %w", err)
	}
	text = truncate(text, r.config.MaxAnswerLen)

	answer, err := r.answerSvc.Submit(ctx, doubt.ID, text, "", true)
	if err != nil {
		return nil, fmt.Errorf("failed to submit AI answer: %w", err)
	}

	return answer, nil
}

// Chat answers a free-form question for a student, personalized with their
// stored preferences. No lock or doubt involved.
func (r *AIResponder) Chat(ctx context.Context, studentID, prompt string) (string, error) {
	student, err := r.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return "", fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return "", ErrStudentNotFound
	}

	text, err := r.generator.Generate(ctx, buildChatPrompt(student, prompt))
	if err != nil {
		return "", fmt.Errorf("ai generation failed: %w", err)
	}

	return text, nil
}

func (r *AIResponder) buildDoubtPrompt(doubt *model.Doubt, student *model.Student) string {
	name := "the student"
	style := "in a simple way"
	if student != nil {
		if student.Username != "" {
			name = student.Username
		}
		if student.Preferences.Style != "" {
			style = student.Preferences.Style
		}
	}

	return fmt.Sprintf(`You're a friendly AI buddy who chats like a close friend. The student's name is %s,
likes learning explained %s.

Limit response to 100 characters.

Student's Question: "%s"
"%s"
"%s"
"%s"`, name, style, doubt.Title, doubt.Body, doubt.Subject, doubt.Topic)
}

func buildChatPrompt(student *model.Student, prompt string) string {
	style := "in a simple way"
	if student.Preferences.Style != "" {
		style = student.Preferences.Style
	}

	return fmt.Sprintf(`You're a friendly AI buddy who chats like a close friend. The student's name is %s, and they sometimes struggle with %s.
They like learning explained %s.

Just answer the question clearly and casually like you're chatting.

Student's Question: "%s"`, student.Username, student.WeakSubject, style, prompt)
}

// truncate caps text at max runes.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
