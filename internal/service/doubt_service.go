package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"doubtdesk/internal/cache"
	"doubtdesk/internal/model"
	"doubtdesk/internal/repository"
)

// DoubtService handles asking doubts and the read paths over the class and
// author feeds.
type DoubtService struct {
	doubtRepo    repository.DoubtRepo
	answerRepo   repository.AnswerRepo
	studentRepo  repository.StudentRepo
	feedCache    cache.FeedCache
	studentCache cache.StudentCache
	broadcaster  Broadcaster
	log          *zap.Logger
}

// NewDoubtService creates a new doubt service.
func NewDoubtService(
	doubtRepo repository.DoubtRepo,
	answerRepo repository.AnswerRepo,
	studentRepo repository.StudentRepo,
	feedCache cache.FeedCache,
	studentCache cache.StudentCache,
	log *zap.Logger,
) *DoubtService {
	return &DoubtService{
		doubtRepo:    doubtRepo,
		answerRepo:   answerRepo,
		studentRepo:  studentRepo,
		feedCache:    feedCache,
		studentCache: studentCache,
		log:          log,
	}
}

// SetBroadcaster sets the broadcaster for real-time events.
func (s *DoubtService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Ask creates a doubt in the author's class and fans out newDoubt to the
// class room.
func (s *DoubtService) Ask(ctx context.Context, title, body, subject, topic, studentID string) (*model.Doubt, error) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	doubt := &model.Doubt{
		Title:    title,
		Body:     body,
		Subject:  subject,
		Topic:    topic,
		AuthorID: student.ID,
		Class:    student.Class,
	}
	if err := s.doubtRepo.Create(ctx, doubt); err != nil {
		return nil, fmt.Errorf("failed to save doubt: %w", err)
	}

	if s.feedCache != nil {
		if err := s.feedCache.Invalidate(ctx, doubt.Class); err != nil {
			s.log.Warn("feed cache invalidation failed",
				zap.String("class", doubt.Class), zap.Error(err))
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.PublishNewDoubt(doubt.Class, doubt)
	}

	return doubt, nil
}

// GetDoubt loads a single doubt.
func (s *DoubtService) GetDoubt(ctx context.Context, id string) (*model.Doubt, error) {
	doubt, err := s.doubtRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load doubt: %w", err)
	}
	if doubt == nil {
		return nil, ErrDoubtNotFound
	}
	return doubt, nil
}

// GetClassFeed returns all doubts in a class, newest first, each with its
// resolved answers. Served from the feed cache when warm.
func (s *DoubtService) GetClassFeed(ctx context.Context, class string) ([]*model.DoubtFeedItem, error) {
	if s.feedCache != nil {
		feed, err := s.feedCache.Get(ctx, class)
		if err != nil {
			s.log.Warn("feed cache read failed", zap.String("class", class), zap.Error(err))
		} else if feed != nil {
			return feed, nil
		}
	}

	doubts, err := s.doubtRepo.GetByClass(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("failed to load class doubts: %w", err)
	}

	feed, err := s.compose(ctx, doubts)
	if err != nil {
		return nil, err
	}

	if s.feedCache != nil {
		if err := s.feedCache.Set(ctx, class, feed); err != nil {
			s.log.Warn("feed cache write failed", zap.String("class", class), zap.Error(err))
		}
	}

	return feed, nil
}

// GetStudentFeed returns a student's own doubts, newest first, with answers.
func (s *DoubtService) GetStudentFeed(ctx context.Context, studentID string) ([]*model.DoubtFeedItem, error) {
	doubts, err := s.doubtRepo.GetByAuthor(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student doubts: %w", err)
	}
	return s.compose(ctx, doubts)
}

// compose resolves answers and display names for a page of doubts.
func (s *DoubtService) compose(ctx context.Context, doubts []*model.Doubt) ([]*model.DoubtFeedItem, error) {
	feed := make([]*model.DoubtFeedItem, 0, len(doubts))
	if len(doubts) == 0 {
		return feed, nil
	}

	doubtIDs := make([]string, 0, len(doubts))
	for _, d := range doubts {
		doubtIDs = append(doubtIDs, d.ID)
	}

	answersByDoubt, err := s.answerRepo.GetByDoubtIDs(ctx, doubtIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	names, err := s.resolveNames(ctx, doubts, answersByDoubt)
	if err != nil {
		return nil, err
	}

	for _, d := range doubts {
		item := &model.DoubtFeedItem{
			Doubt:      *d,
			AuthorName: names[d.AuthorID],
			Answers:    make([]model.AnswerView, 0, len(answersByDoubt[d.ID])),
		}
		for _, a := range answersByDoubt[d.ID] {
			item.Answers = append(item.Answers, answerView(a, names))
		}
		feed = append(feed, item)
	}

	return feed, nil
}

// answerView annotates an answer for display. Answers with no answering
// student and is_ai set get the "AI" label.
func answerView(a *model.Answer, names map[string]string) model.AnswerView {
	view := model.AnswerView{
		ID:        a.ID,
		Content:   a.Content,
		IsAI:      a.IsAI,
		CreatedAt: a.CreatedAt,
	}
	if a.AnsweredBy == "" && a.IsAI {
		view.RespondentName = model.AIRespondentName
		view.Initials = model.AIRespondentName
		return view
	}

	name := names[a.AnsweredBy]
	if name == "" {
		name = "Unknown"
	}
	view.RespondentName = name
	view.Initials = model.Initials(name)
	return view
}

// resolveNames maps every referenced student id to a display name, going
// through the name cache before the store.
func (s *DoubtService) resolveNames(ctx context.Context, doubts []*model.Doubt, answersByDoubt map[string][]*model.Answer) (map[string]string, error) {
	idSet := make(map[string]bool)
	for _, d := range doubts {
		idSet[d.AuthorID] = true
	}
	for _, answers := range answersByDoubt {
		for _, a := range answers {
			if a.AnsweredBy != "" {
				idSet[a.AnsweredBy] = true
			}
		}
	}

	names := make(map[string]string, len(idSet))
	var missing []string
	for id := range idSet {
		if s.studentCache != nil {
			name, err := s.studentCache.GetName(ctx, id)
			if err != nil {
				s.log.Warn("student cache read failed", zap.String("studentId", id), zap.Error(err))
			} else if name != "" {
				names[id] = name
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		students, err := s.studentRepo.GetByIDs(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("failed to load students: %w", err)
		}
		for id, st := range students {
			names[id] = st.Username
			if s.studentCache != nil {
				if err := s.studentCache.SetName(ctx, id, st.Username); err != nil {
					s.log.Warn("student cache write failed", zap.String("studentId", id), zap.Error(err))
				}
			}
		}
	}

	return names, nil
}
