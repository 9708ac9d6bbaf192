package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"doubtdesk/internal/config"
	"doubtdesk/internal/model"
)

// fixture wires the AI pipeline over in-memory fakes.
type fixture struct {
	doubts      *memDoubtRepo
	answers     *memAnswerRepo
	students    *memStudentRepo
	generator   *fakeGenerator
	broadcaster *fakeBroadcaster
	answerSvc   *AnswerService
	doubtSvc    *DoubtService
	responder   *AIResponder
	dispatcher  *Dispatcher
	cfg         *config.AIConfig
}

func newFixture() *fixture {
	f := &fixture{
		doubts:      newMemDoubtRepo(),
		answers:     newMemAnswerRepo(),
		students:    newMemStudentRepo(),
		generator:   &fakeGenerator{},
		broadcaster: &fakeBroadcaster{},
		cfg: &config.AIConfig{
			Model:        "llama3",
			PollInterval: 10 * time.Second,
			GracePeriod:  10 * time.Second,
			MaxAnswerLen: 300,
			Timeout:      time.Minute,
		},
	}

	log := zap.NewNop()
	f.answerSvc = NewAnswerService(f.answers, f.doubts, nil, log)
	f.answerSvc.SetBroadcaster(f.broadcaster)
	f.doubtSvc = NewDoubtService(f.doubts, f.answers, f.students, nil, nil, log)
	f.doubtSvc.SetBroadcaster(f.broadcaster)
	f.responder = NewAIResponder(f.doubts, f.answers, f.students, f.answerSvc, f.generator, f.cfg, log)
	f.dispatcher = NewDispatcher(f.doubts, f.responder, f.cfg, log)
	return f
}

// setNow pins the clock for both the responder and the dispatcher.
func (f *fixture) setNow(now time.Time) {
	f.responder.now = func() time.Time { return now }
	f.dispatcher.now = func() time.Time { return now }
}

func (f *fixture) seedStudent(username, class string) *model.Student {
	s := &model.Student{Username: username, Class: class}
	f.students.Create(context.Background(), s)
	return s
}

func (f *fixture) seedDoubt(author *model.Student, title string, createdAt time.Time) *model.Doubt {
	d := &model.Doubt{
		Title:     title,
		Body:      "body of " + title,
		Subject:   "Physics",
		Topic:     "Waves",
		AuthorID:  author.ID,
		Class:     author.Class,
		CreatedAt: createdAt,
	}
	f.doubts.Create(context.Background(), d)
	return d
}

// In-memory repository fakes. TryAcquireAILock mirrors the store contract:
// one conditional check-and-set under a single lock.

type memDoubtRepo struct {
	mu     sync.Mutex
	doubts map[string]*model.Doubt
	seq    int
}

func newMemDoubtRepo() *memDoubtRepo {
	return &memDoubtRepo{doubts: make(map[string]*model.Doubt)}
}

// The repo stores and returns copies, like a real store: callers never share
// struct memory with it.
func (r *memDoubtRepo) Create(_ context.Context, doubt *model.Doubt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doubt.ID == "" {
		r.seq++
		doubt.ID = fmt.Sprintf("doubt-%d", r.seq)
	}
	if doubt.CreatedAt.IsZero() {
		doubt.CreatedAt = time.Now()
	}
	stored := *doubt
	r.doubts[doubt.ID] = &stored
	return nil
}

func (r *memDoubtRepo) GetByID(_ context.Context, id string) (*model.Doubt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doubts[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *memDoubtRepo) GetByClass(_ context.Context, class string) ([]*model.Doubt, error) {
	return r.filter(func(d *model.Doubt) bool { return d.Class == class }), nil
}

func (r *memDoubtRepo) GetByAuthor(_ context.Context, authorID string) ([]*model.Doubt, error) {
	return r.filter(func(d *model.Doubt) bool { return d.AuthorID == authorID }), nil
}

func (r *memDoubtRepo) FindAwaitingAI(_ context.Context, createdBefore time.Time) ([]*model.Doubt, error) {
	return r.filter(func(d *model.Doubt) bool {
		return !d.HasAIResponse && !d.ProcessingByAI && d.CreatedAt.Before(createdBefore)
	}), nil
}

func (r *memDoubtRepo) filter(keep func(*model.Doubt) bool) []*model.Doubt {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Doubt
	for _, d := range r.doubts {
		if keep(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// The lock-path methods fail on a cancelled context the way a real driver
// round trip would.
func (r *memDoubtRepo) TryAcquireAILock(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doubts[id]
	if !ok || d.ProcessingByAI || d.HasAIResponse {
		return false, nil
	}
	d.ProcessingByAI = true
	return true, nil
}

func (r *memDoubtRepo) ReleaseAILock(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.doubts[id]; ok {
		d.ProcessingByAI = false
	}
	return nil
}

func (r *memDoubtRepo) MarkAIAnswered(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.doubts[id]; ok {
		d.HasAIResponse = true
	}
	return nil
}

type memAnswerRepo struct {
	mu      sync.Mutex
	answers []*model.Answer
	seq     int
}

func newMemAnswerRepo() *memAnswerRepo {
	return &memAnswerRepo{}
}

func (r *memAnswerRepo) Create(_ context.Context, answer *model.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if answer.ID == "" {
		answer.ID = fmt.Sprintf("answer-%d", r.seq)
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now()
	}
	r.answers = append(r.answers, answer)
	return nil
}

func (r *memAnswerRepo) GetByDoubtIDs(_ context.Context, doubtIDs []string) (map[string][]*model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(doubtIDs))
	for _, id := range doubtIDs {
		wanted[id] = true
	}
	out := make(map[string][]*model.Answer)
	for _, a := range r.answers {
		if wanted[a.DoubtID] {
			out[a.DoubtID] = append(out[a.DoubtID], a)
		}
	}
	return out, nil
}

func (r *memAnswerRepo) ExistsForDoubt(_ context.Context, doubtID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers {
		if a.DoubtID == doubtID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memAnswerRepo) aiCount(doubtID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.answers {
		if a.DoubtID == doubtID && a.IsAI {
			n++
		}
	}
	return n
}

type memStudentRepo struct {
	mu       sync.Mutex
	students map[string]*model.Student
	seq      int
}

func newMemStudentRepo() *memStudentRepo {
	return &memStudentRepo{students: make(map[string]*model.Student)}
}

func (r *memStudentRepo) Create(_ context.Context, student *model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if student.ID == "" {
		r.seq++
		student.ID = fmt.Sprintf("student-%d", r.seq)
	}
	r.students[student.ID] = student
	return nil
}

func (r *memStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.students[id], nil
}

func (r *memStudentRepo) GetByIDs(_ context.Context, ids []string) (map[string]*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*model.Student)
	for _, id := range ids {
		if s, ok := r.students[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

// fakeGenerator replays a scripted sequence of results.
type fakeGenerator struct {
	mu      sync.Mutex
	results []generateResult
	calls   int
}

type generateResult struct {
	text string
	err  error
}

func (g *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if len(g.results) == 0 {
		return "generated answer", nil
	}
	res := g.results[0]
	if len(g.results) > 1 {
		g.results = g.results[1:]
	}
	return res.text, res.err
}

// fakeBroadcaster records published events.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

type broadcastEvent struct {
	eventType string
	class     string
	doubtID   string
	payload   interface{}
}

func (b *fakeBroadcaster) PublishNewDoubt(class string, doubt interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{eventType: "newDoubt", class: class, payload: doubt})
}

func (b *fakeBroadcaster) PublishNewAnswer(class, doubtID string, answer interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{eventType: "newAnswer", class: class, doubtID: doubtID, payload: answer})
}

func (b *fakeBroadcaster) byType(eventType string) []broadcastEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcastEvent
	for _, e := range b.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
