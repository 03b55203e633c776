package command

import (
	"context"
	"errors"

	"github.com/xxt-hub/xxt-signin/internal/domain/activity"
	"github.com/xxt-hub/xxt-signin/internal/domain/course"
	"github.com/xxt-hub/xxt-signin/internal/domain/shared"
	"github.com/xxt-hub/xxt-signin/internal/domain/user"
	"github.com/xxt-hub/xxt-signin/internal/infrastructure/external/chaoxing"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKE REPOSITORIES
// ══════════════════════════════════════════════════════════════════════════════

type fakeUsers struct {
	byID        map[int64]*user.User
	links       map[int64][]*course.Course
	nextID      int64
	nextCourse  int64
	saveCalls   int
	updateCalls int
	saveErr     error
}

func newFakeUsers(seed ...*user.User) *fakeUsers {
	f := &fakeUsers{
		byID:       make(map[int64]*user.User),
		links:      make(map[int64][]*course.Course),
		nextID:     100,
		nextCourse: 500,
	}
	for _, u := range seed {
		cp := *u
		f.byID[u.ID] = &cp
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByPhone(_ context.Context, phone string) (*user.User, error) {
	for _, u := range f.byID {
		if u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (f *fakeUsers) GetByChatID(_ context.Context, chatID string) (*user.User, error) {
	for _, u := range f.byID {
		if chatID != "" && u.ChatID == chatID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (f *fakeUsers) Save(_ context.Context, u *user.User, courses []*course.Course) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	if u.ID == 0 {
		f.nextID++
		u.ID = f.nextID
	}
	for _, c := range courses {
		if c.ID == 0 {
			f.nextCourse++
			c.ID = f.nextCourse
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	f.links[u.ID] = courses
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *user.User) error {
	f.updateCalls++
	if _, ok := f.byID[u.ID]; !ok {
		return shared.ErrUserNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

type fakeActivities struct {
	byID map[int64]*activity.Activity

	// owners maps activity ID to the user IDs whose lists contain it.
	owners    map[int64]map[int64]bool
	unlinkErr error
}

func newFakeActivities() *fakeActivities {
	return &fakeActivities{
		byID:   make(map[int64]*activity.Activity),
		owners: make(map[int64]map[int64]bool),
	}
}

func (f *fakeActivities) add(a *activity.Activity, userIDs ...int64) {
	f.byID[a.ID] = a
	if f.owners[a.ID] == nil {
		f.owners[a.ID] = make(map[int64]bool)
	}
	for _, id := range userIDs {
		f.owners[a.ID][id] = true
	}
}

func (f *fakeActivities) GetByID(_ context.Context, id int64) (*activity.Activity, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, shared.ErrActivityNotFound
	}
	return a, nil
}

func (f *fakeActivities) GetForUser(_ context.Context, userID, activityID int64) (*activity.Activity, error) {
	a, ok := f.byID[activityID]
	if !ok || !f.owners[activityID][userID] {
		return nil, shared.ErrActivityNotFound
	}
	return a, nil
}

func (f *fakeActivities) Unlink(_ context.Context, userID, activityID int64) error {
	if f.unlinkErr != nil {
		return f.unlinkErr
	}
	delete(f.owners[activityID], userID)
	return nil
}

func (f *fakeActivities) GetByActiveID(_ context.Context, activeID string) (*activity.Activity, error) {
	for _, a := range f.byID {
		if a.ActiveID == activeID {
			return a, nil
		}
	}
	return nil, shared.ErrActivityNotFound
}

func (f *fakeActivities) Upsert(_ context.Context, a *activity.Activity, _, _ int64) error {
	return errors.New("not used")
}

func (f *fakeActivities) ListByUser(_ context.Context, _ int64) ([]*activity.Activity, error) {
	return nil, errors.New("not used")
}

// ══════════════════════════════════════════════════════════════════════════════
// FAKE PLATFORM
// ══════════════════════════════════════════════════════════════════════════════

type signInAnswer struct {
	ok  bool
	err error
}

type fakePlatform struct {
	session    chaoxing.Session
	resolveErr error
	courses    []*course.Course
	coursesErr error
	name       string
	nameErr    error

	// answers are replayed in order; the last one repeats.
	answers []signInAnswer

	resolveCalls int
	signInCalls  int
	signedIDs    []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		session: chaoxing.Session{"UID": "42", "_d": "1"},
		courses: []*course.Course{
			{CourseID: "c1", ClassID: "k1", CPI: "p1", Name: "高等数学", TeacherName: "李老师"},
			{CourseID: "c2", ClassID: "k2", CPI: "p2", Name: "大学英语"},
		},
		name:    "张三",
		answers: []signInAnswer{{ok: true}},
	}
}

func (p *fakePlatform) ResolveSession(_ context.Context, _ chaoxing.Credentials, _ chaoxing.Session) (chaoxing.Session, error) {
	p.resolveCalls++
	if p.resolveErr != nil {
		return nil, p.resolveErr
	}
	return p.session, nil
}

func (p *fakePlatform) FetchCourses(_ context.Context, _ chaoxing.Session) ([]*course.Course, error) {
	return p.courses, p.coursesErr
}

func (p *fakePlatform) FetchDisplayName(_ context.Context, _ chaoxing.Session) (string, error) {
	return p.name, p.nameErr
}

func (p *fakePlatform) SignIn(_ context.Context, activeID string, _ chaoxing.Credentials) (bool, error) {
	idx := p.signInCalls
	if idx >= len(p.answers) {
		idx = len(p.answers) - 1
	}
	p.signInCalls++
	p.signedIDs = append(p.signedIDs, activeID)
	return p.answers[idx].ok, p.answers[idx].err
}

func platformError(kind error) error {
	return shared.WrapError(chaoxing.Domain, "test", kind, "platform said no", nil)
}

func boundUser() *user.User {
	return &user.User{
		ID:       7,
		ChatID:   "chat-1",
		Name:     "张三",
		Phone:    "18212345678",
		Password: "secret-pass",
		Session:  `{"UID":"42"}`,
	}
}
