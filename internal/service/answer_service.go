package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"doubtdesk/internal/cache"
	"doubtdesk/internal/model"
	"doubtdesk/internal/repository"
)

// AnswerService validates and persists human and AI answers and fans out the
// newAnswer event to the doubt's class room.
type AnswerService struct {
	answerRepo  repository.AnswerRepo
	doubtRepo   repository.DoubtRepo
	feedCache   cache.FeedCache
	broadcaster Broadcaster
	log         *zap.Logger
}

// NewAnswerService creates a new answer service.
func NewAnswerService(
	answerRepo repository.AnswerRepo,
	doubtRepo repository.DoubtRepo,
	feedCache cache.FeedCache,
	log *zap.Logger,
) *AnswerService {
	return &AnswerService{
		answerRepo: answerRepo,
		doubtRepo:  doubtRepo,
		feedCache:  feedCache,
		log:        log,
	}
}

// SetBroadcaster sets the broadcaster for real-time events.
func (s *AnswerService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Submit persists an answer. For AI answers the caller must already hold the
// AI lock; the doubt is marked AI-answered here and the caller releases the
// lock afterwards. For human answers studentID is required and there is no
// lock interaction.
func (s *AnswerService) Submit(ctx context.Context, doubtID, content, studentID string, isAI bool) (*model.Answer, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if !isAI && studentID == "" {
		return nil, ErrSubmitterRequired
	}

	doubt, err := s.doubtRepo.GetByID(ctx, doubtID)
	if err != nil {
		return nil, fmt.Errorf("failed to load doubt: %w", err)
	}
	if doubt == nil {
		return nil, ErrDoubtNotFound
	}

	answer := &model.Answer{
		DoubtID: doubtID,
		Content: content,
		IsAI:    isAI,
	}
	if !isAI {
		answer.AnsweredBy = studentID
	}

	if err := s.answerRepo.Create(ctx, answer); err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	if isAI {
		if err := s.doubtRepo.MarkAIAnswered(ctx, doubtID); err != nil {
			return nil, fmt.Errorf("failed to mark doubt AI-answered: %w", err)
		}
	}

	if s.feedCache != nil {
		if err := s.feedCache.Invalidate(ctx, doubt.Class); err != nil {
			s.log.Warn("feed cache invalidation failed",
				zap.String("class", doubt.Class), zap.Error(err))
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.PublishNewAnswer(doubt.Class, doubtID, answer)
	}

	return answer, nil
}
