package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitkpi/challenge-app/internal/domain"
	"fitkpi/challenge-app/internal/repository"
)

// In-memory repositories backing the service tests. They honor the same
// error contract as the mongo implementations.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	stored := *user
	stored.ID = id
	r.users[id] = &stored
	return id, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *memUserRepo) ListAthletes(_ context.Context, status domain.ApprovalStatus) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.Role == domain.RoleAthlete && u.Status == status {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUserRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.ApprovalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = status
	return nil
}

func (r *memUserRepo) UpdateStrava(_ context.Context, id primitive.ObjectID, conn *domain.StravaConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Strava = conn
	return nil
}

func (r *memUserRepo) SetNotify(_ context.Context, id primitive.ObjectID, notify bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Notify = notify
	return nil
}

type memActivityRepo struct {
	mu         sync.Mutex
	activities map[primitive.ObjectID]*domain.Activity
}

func newMemActivityRepo() *memActivityRepo {
	return &memActivityRepo{activities: make(map[primitive.ObjectID]*domain.Activity)}
}

func (r *memActivityRepo) Upsert(_ context.Context, activity *domain.Activity) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.activities {
		if a.UserID == activity.UserID && a.SourceID == activity.SourceID {
			id := a.ID
			stored := *activity
			stored.ID = id
			r.activities[id] = &stored
			return false, nil
		}
	}
	id := primitive.NewObjectID()
	stored := *activity
	stored.ID = id
	r.activities[id] = &stored
	activity.ID = id
	return true, nil
}

func (r *memActivityRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.activities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *a
	return &copy, nil
}

func (r *memActivityRepo) ListByUserInRange(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Activity
	for _, a := range r.activities {
		if a.UserID == userID && !a.StartTime.Before(from) && a.StartTime.Before(to) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memActivityRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Activity
	for _, a := range r.activities {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events map[primitive.ObjectID]*domain.SpecialEvent
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[primitive.ObjectID]*domain.SpecialEvent)}
}

func (r *memEventRepo) Create(_ context.Context, event *domain.SpecialEvent) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	stored := *event
	stored.ID = id
	r.events[id] = &stored
	return id, nil
}

func (r *memEventRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.SpecialEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *e
	return &copy, nil
}

func (r *memEventRepo) List(_ context.Context) ([]domain.SpecialEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SpecialEvent
	for _, e := range r.events {
		out = append(out, *e)
	}
	return out, nil
}

func (r *memEventRepo) Update(_ context.Context, event *domain.SpecialEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *event
	r.events[event.ID] = &stored
	return nil
}

func (r *memEventRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

type memParticipationRepo struct {
	mu    sync.Mutex
	links map[primitive.ObjectID]*domain.EventParticipation
}

func newMemParticipationRepo() *memParticipationRepo {
	return &memParticipationRepo{links: make(map[primitive.ObjectID]*domain.EventParticipation)}
}

func (r *memParticipationRepo) Create(_ context.Context, p *domain.EventParticipation) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.UserID == p.UserID && l.EventID == p.EventID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	stored := *p
	stored.ID = id
	r.links[id] = &stored
	return id, nil
}

func (r *memParticipationRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.EventParticipation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.EventParticipation
	for _, l := range r.links {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

type memConfigRepo struct {
	mu  sync.Mutex
	cfg *domain.ChallengeConfig
}

func (r *memConfigRepo) Get(_ context.Context) (*domain.ChallengeConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg == nil {
		return nil, repository.ErrNotFound
	}
	copy := *r.cfg
	return &copy, nil
}

func (r *memConfigRepo) Upsert(_ context.Context, cfg *domain.ChallengeConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *cfg
	stored.Version++
	r.cfg = &stored
	cfg.Version = stored.Version
	return nil
}

type memSummaryRepo struct {
	mu      sync.Mutex
	docs    map[string]*domain.MonthlySummary
	upserts int
}

func newMemSummaryRepo() *memSummaryRepo {
	return &memSummaryRepo{docs: make(map[string]*domain.MonthlySummary)}
}

func summaryKey(userID primitive.ObjectID, monthKey string) string {
	return userID.Hex() + "/" + monthKey
}

func (r *memSummaryRepo) Get(_ context.Context, userID primitive.ObjectID, monthKey string) (*domain.MonthlySummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[summaryKey(userID, monthKey)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *doc
	return &copy, nil
}

func (r *memSummaryRepo) Upsert(_ context.Context, summary *domain.MonthlySummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *summary
	r.docs[summaryKey(summary.UserID, summary.MonthKey)] = &stored
	r.upserts++
	return nil
}

func (r *memSummaryRepo) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upserts
}

type memReportRepo struct {
	mu      sync.Mutex
	reports map[primitive.ObjectID]*domain.SeasonReport
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: make(map[primitive.ObjectID]*domain.SeasonReport)}
}

func (r *memReportRepo) Create(_ context.Context, report *domain.SeasonReport) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	stored := *report
	stored.ID = id
	r.reports[id] = &stored
	return id, nil
}

func (r *memReportRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.SeasonReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *rep
	return &copy, nil
}

func (r *memReportRepo) ListRecent(_ context.Context, limit int64) ([]domain.SeasonReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SeasonReport
	for _, rep := range r.reports {
		out = append(out, *rep)
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) PutObject(_ context.Context, objectKey, _ string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(body))
	copy(buf, body)
	s.objects[objectKey] = buf
	return nil
}

func (s *memStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/" + objectKey, nil
}

func (s *memStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectKey)
	return nil
}
