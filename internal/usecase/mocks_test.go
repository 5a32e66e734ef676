//go:build !integration

package usecase_test

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-commerce/internal/domain"
	"course-commerce/internal/domain/model"
	"course-commerce/internal/domain/ports/adapter"
	"course-commerce/internal/domain/ports/repository"
)

//
// ---------------- in-memory infra mocks (repos/tx) ----------------
//

type noTx struct{}

type mockTxManager struct {
	// beginErr makes WithTx fail before running fn
	beginErr error
	calls    int
}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.calls++
	if m.beginErr != nil {
		return m.beginErr
	}
	return fn(ctx, noTx{})
}

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// ---- users ----

type memUserRepo struct {
	byID map[string]*model.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{byID: map[string]*model.User{}} }

func (m *memUserRepo) Save(_ context.Context, _ repository.Tx, u *model.User) error {
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(_ context.Context, _ repository.Tx, email string) (*model.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ---- courses / lessons / completions ----

type memCourseRepo struct {
	byID map[string]*model.Course
}

func newMemCourseRepo() *memCourseRepo { return &memCourseRepo{byID: map[string]*model.Course{}} }

func (m *memCourseRepo) Save(_ context.Context, _ repository.Tx, c *model.Course) error {
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCourseRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Course, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCourseRepo) ListAll(_ context.Context, _ repository.Tx) ([]*model.Course, error) {
	out := make([]*model.Course, 0, len(m.byID))
	for _, c := range m.byID {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

type memLessonRepo struct {
	byID map[string]*model.Lesson
}

func newMemLessonRepo() *memLessonRepo { return &memLessonRepo{byID: map[string]*model.Lesson{}} }

func (m *memLessonRepo) Save(_ context.Context, _ repository.Tx, l *model.Lesson) error {
	cp := *l
	m.byID[l.ID] = &cp
	return nil
}

func (m *memLessonRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Lesson, error) {
	l, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLessonRepo) ListByCourse(_ context.Context, _ repository.Tx, courseID string) ([]*model.Lesson, error) {
	var out []*model.Lesson
	for _, l := range m.byID {
		if l.CourseID == courseID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memLessonRepo) CountByCourse(_ context.Context, _ repository.Tx, courseID string) (int, error) {
	n := 0
	for _, l := range m.byID {
		if l.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

type completionKey struct{ userID, lessonID string }

type memCompletionRepo struct {
	done map[completionKey]*model.LessonCompletion
}

func newMemCompletionRepo() *memCompletionRepo {
	return &memCompletionRepo{done: map[completionKey]*model.LessonCompletion{}}
}

func (m *memCompletionRepo) MarkComplete(_ context.Context, _ repository.Tx, c *model.LessonCompletion) (bool, error) {
	k := completionKey{c.UserID, c.LessonID}
	if _, ok := m.done[k]; ok {
		return false, nil
	}
	cp := *c
	m.done[k] = &cp
	return true, nil
}

func (m *memCompletionRepo) CountByUserAndCourse(_ context.Context, _ repository.Tx, userID, courseID string) (int, error) {
	n := 0
	for _, c := range m.done {
		if c.UserID == userID && c.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

// ---- enrollments / groups ----

type memEnrollmentRepo struct {
	byID map[string]*model.Enrollment
	// saveErr fails every write, exercising rollback paths
	saveErr error
}

func newMemEnrollmentRepo() *memEnrollmentRepo {
	return &memEnrollmentRepo{byID: map[string]*model.Enrollment{}}
}

func (m *memEnrollmentRepo) Save(_ context.Context, _ repository.Tx, e *model.Enrollment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, cur := range m.byID {
		if cur.UserID == e.UserID && cur.CourseID == e.CourseID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *e
	m.byID[e.ID] = &cp
	return nil
}

func (m *memEnrollmentRepo) SaveBatch(ctx context.Context, tx repository.Tx, es []*model.Enrollment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, e := range es {
		if err := m.Save(ctx, tx, e); err != nil {
			return err
		}
	}
	return nil
}

func (m *memEnrollmentRepo) FindByUserAndCourse(_ context.Context, _ repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	for _, e := range m.byID {
		if e.UserID == userID && e.CourseID == courseID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memEnrollmentRepo) ListByUsersAndCourse(_ context.Context, _ repository.Tx, userIDs []string, courseID string) ([]*model.Enrollment, error) {
	want := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*model.Enrollment
	for _, e := range m.byID {
		if e.CourseID == courseID && want[e.UserID] {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memEnrollmentRepo) UpdateStatus(_ context.Context, _ repository.Tx, id string, status model.EnrollmentStatus) error {
	e, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	return nil
}

type memGroupRepo struct {
	byID    map[string]*model.StudyGroup
	members map[string][]string
}

func newMemGroupRepo() *memGroupRepo {
	return &memGroupRepo{byID: map[string]*model.StudyGroup{}, members: map[string][]string{}}
}

func (m *memGroupRepo) Save(_ context.Context, _ repository.Tx, g *model.StudyGroup) error {
	cp := *g
	m.byID[g.ID] = &cp
	return nil
}

func (m *memGroupRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.StudyGroup, error) {
	g, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memGroupRepo) ListMemberIDs(_ context.Context, _ repository.Tx, groupID string) ([]string, error) {
	return append([]string(nil), m.members[groupID]...), nil
}

func (m *memGroupRepo) AddMember(_ context.Context, _ repository.Tx, groupID, userID string) error {
	m.members[groupID] = append(m.members[groupID], userID)
	return nil
}

// ---- payments / plans / subscriptions ----

type memPaymentRepo struct {
	byID map[string]*model.Payment
	// saveErr fails Save, exercising the all-or-nothing initialize contract
	saveErr error
}

func newMemPaymentRepo() *memPaymentRepo { return &memPaymentRepo{byID: map[string]*model.Payment{}} }

func (m *memPaymentRepo) Save(_ context.Context, _ repository.Tx, p *model.Payment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Payment, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindByReference(_ context.Context, _ repository.Tx, reference string) (*model.Payment, error) {
	for _, p := range m.byID {
		if p.Reference == reference {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) UpdateStatusIfPending(_ context.Context, _ repository.Tx, id string, status model.PaymentStatus, paidAt *time.Time) (bool, error) {
	p, ok := m.byID[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	if paidAt != nil {
		t := *paidAt
		p.PaidAt = &t
	}
	return true, nil
}

func (m *memPaymentRepo) ListPendingOlderThan(_ context.Context, _ repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	var out []*model.Payment
	for _, p := range m.byID {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memPlanRepo struct {
	byName map[string]*model.Plan
}

func newMemPlanRepo() *memPlanRepo { return &memPlanRepo{byName: map[string]*model.Plan{}} }

func (m *memPlanRepo) Save(_ context.Context, _ repository.Tx, p *model.Plan) error {
	cp := *p
	m.byName[p.Name] = &cp
	return nil
}

func (m *memPlanRepo) FindByName(_ context.Context, _ repository.Tx, name string) (*model.Plan, error) {
	p, ok := m.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) ListAll(_ context.Context, _ repository.Tx) ([]*model.Plan, error) {
	out := make([]*model.Plan, 0, len(m.byName))
	for _, p := range m.byName {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type memSubscriptionRepo struct {
	byID map[string]*model.Subscription
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{byID: map[string]*model.Subscription{}}
}

func (m *memSubscriptionRepo) Save(_ context.Context, _ repository.Tx, s *model.Subscription) error {
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *memSubscriptionRepo) FindCurrentByOrganization(_ context.Context, _ repository.Tx, organizationID string, now time.Time) (*model.Subscription, error) {
	var cur *model.Subscription
	for _, s := range m.byID {
		if s.OrganizationID != organizationID || s.Status != model.SubscriptionStatusActive || !s.PeriodEnd.After(now) {
			continue
		}
		if cur == nil || s.CreatedAt.After(cur.CreatedAt) {
			cur = s
		}
	}
	if cur == nil {
		return nil, domain.ErrNotFound
	}
	cp := *cur
	return &cp, nil
}

func (m *memSubscriptionRepo) ExpireDue(_ context.Context, _ repository.Tx, now time.Time) (int, error) {
	n := 0
	for _, s := range m.byID {
		if s.Status == model.SubscriptionStatusActive && !s.PeriodEnd.After(now) {
			s.Status = model.SubscriptionStatusExpired
			n++
		}
	}
	return n, nil
}

// ---- quizzes / attempts / progress ----

type memQuizRepo struct {
	byID map[string]*model.Quiz
}

func newMemQuizRepo() *memQuizRepo { return &memQuizRepo{byID: map[string]*model.Quiz{}} }

func (m *memQuizRepo) Save(_ context.Context, _ repository.Tx, q *model.Quiz) error {
	cp := *q
	cp.Questions = append([]model.Question(nil), q.Questions...)
	m.byID[q.ID] = &cp
	return nil
}

func (m *memQuizRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Quiz, error) {
	q, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *q
	cp.Questions = append([]model.Question(nil), q.Questions...)
	return &cp, nil
}

func (m *memQuizRepo) ListByCourse(_ context.Context, _ repository.Tx, courseID string) ([]*model.Quiz, error) {
	var out []*model.Quiz
	for _, q := range m.byID {
		if q.CourseID == courseID {
			cp := *q
			cp.Questions = append([]model.Question(nil), q.Questions...)
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memAttemptRepo struct {
	items []*model.QuizAttempt
	// saveErr exercises the grade-then-store failure path
	saveErr error
}

func newMemAttemptRepo() *memAttemptRepo { return &memAttemptRepo{} }

func (m *memAttemptRepo) Save(_ context.Context, _ repository.Tx, a *model.QuizAttempt) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *a
	m.items = append(m.items, &cp)
	return nil
}

func (m *memAttemptRepo) ListByUserAndCourse(_ context.Context, _ repository.Tx, userID, courseID string) ([]*model.QuizAttempt, error) {
	var out []*model.QuizAttempt
	for _, a := range m.items {
		if a.UserID == userID && a.CourseID == courseID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type progressKey struct{ userID, courseID string }

type memProgressRepo struct {
	byKey   map[progressKey]*model.Progress
	upserts int
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{byKey: map[progressKey]*model.Progress{}}
}

func (m *memProgressRepo) Upsert(_ context.Context, _ repository.Tx, p *model.Progress) error {
	m.upserts++
	cp := *p
	m.byKey[progressKey{p.UserID, p.CourseID}] = &cp
	return nil
}

func (m *memProgressRepo) FindByUserAndCourse(_ context.Context, _ repository.Tx, userID, courseID string) (*model.Progress, error) {
	p, ok := m.byKey[progressKey{userID, courseID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ---- tokens ----

type memTokenRepo struct {
	byID map[string]*model.ActionToken
}

func newMemTokenRepo() *memTokenRepo { return &memTokenRepo{byID: map[string]*model.ActionToken{}} }

func (m *memTokenRepo) Save(_ context.Context, _ repository.Tx, t *model.ActionToken) error {
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTokenRepo) FindUsable(_ context.Context, _ repository.Tx, subjectID string, purpose model.TokenPurpose) (*model.ActionToken, error) {
	var newest *model.ActionToken
	for _, t := range m.byID {
		if t.SubjectID != subjectID || t.Purpose != purpose || t.UsedAt != nil {
			continue
		}
		if newest == nil || t.CreatedAt.After(newest.CreatedAt) {
			newest = t
		}
	}
	if newest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (m *memTokenRepo) MarkUsed(_ context.Context, _ repository.Tx, id string) error {
	t, ok := m.byID[id]
	if !ok || t.UsedAt != nil {
		return domain.ErrTokenInvalid
	}
	now := time.Now()
	t.UsedAt = &now
	return nil
}

func (m *memTokenRepo) DeleteExpired(_ context.Context, _ repository.Tx) (int, error) {
	n := 0
	for id, t := range m.byID {
		if !t.ExpiresAt.After(time.Now()) || t.UsedAt != nil {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

//
// ---------------- adapter fakes ----------------
//

type fakeGateway struct {
	initRes   adapter.InitializeResult
	initErr   error
	verifyRes adapter.VerifyResult
	verifyErr error

	initCalls   int
	verifyCalls int
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) InitializeCharge(_ context.Context, _ string, _ int64, _, reference, _ string, _ map[string]string) (adapter.InitializeResult, error) {
	g.initCalls++
	if g.initErr != nil {
		return adapter.InitializeResult{}, g.initErr
	}
	res := g.initRes
	if res.Reference == "" {
		res.Reference = reference
	}
	return res, nil
}

func (g *fakeGateway) VerifyCharge(_ context.Context, _ string) (adapter.VerifyResult, error) {
	g.verifyCalls++
	if g.verifyErr != nil {
		return adapter.VerifyResult{}, g.verifyErr
	}
	return g.verifyRes, nil
}

type fakeGenerator struct {
	lessonText string
	lessonErr  error
	questions  []adapter.GeneratedQuestion
	quizErr    error
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) GenerateLessonText(_ context.Context, _, _, _ string, _ []string) (string, error) {
	return f.lessonText, f.lessonErr
}

func (f *fakeGenerator) GenerateQuizQuestions(_ context.Context, _ string, _ int) ([]adapter.GeneratedQuestion, error) {
	return f.questions, f.quizErr
}

type fakeIndex struct {
	indexed map[string]string
	err     error
	matches []adapter.SearchMatch
}

func newFakeIndex() *fakeIndex { return &fakeIndex{indexed: map[string]string{}} }

func (f *fakeIndex) IndexText(_ context.Context, docID, text string, _ []string) error {
	if f.err != nil {
		return f.err
	}
	f.indexed[docID] = text
	return nil
}

func (f *fakeIndex) SearchSimilar(_ context.Context, _ string, _ int, _ []string) ([]adapter.SearchMatch, error) {
	return f.matches, f.err
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "digest:" + password, nil }
func (fakeHasher) Verify(password, digest string) bool  { return digest == "digest:"+password }
