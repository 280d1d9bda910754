package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coursehub/course-online-server/internal/config"
	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/repository/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.CourseEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt model.CourseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []model.CourseEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.CourseEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store   *memory.Store
	tokens  *TokenService
	auth    *AuthService
	users   *UserService
	courses *CourseService
	lessons *LessonService
	events  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: bcrypt.MinCost}
	log := zerolog.Nop()
	store := memory.New()
	events := &recordingPublisher{}
	tokens := NewTokenService(cfg)

	return &fixture{
		store:   store,
		tokens:  tokens,
		auth:    NewAuthService(cfg, store.Users(), tokens, log),
		users:   NewUserService(store.Users(), log),
		courses: NewCourseService(store.Courses(), store.Enrollments(), events, log),
		lessons: NewLessonService(store.Lessons(), events, log),
		events:  events,
	}
}

func (f *fixture) register(t *testing.T, email string, role model.Role) *model.AuthResponse {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), model.RegisterRequest{
		Name: "User", Email: email, Password: "password1", Role: role,
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg := f.register(t, "Teacher@Example.test ", model.RoleTeacher)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, model.RoleTeacher, reg.Role)

	login, err := f.auth.Login(ctx, model.LoginRequest{Email: "teacher@example.test", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, login.UserID)

	id, err := f.tokens.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, CanonicalSubject(reg.UserID), id.SubjectID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.test", model.RoleStudent)

	_, err := f.auth.Register(context.Background(), model.RegisterRequest{
		Name: "Again", Email: "a@x.test", Password: "password1", Role: model.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRejectsAdmin(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), model.RegisterRequest{
		Name: "Root", Email: "root@x.test", Password: "password1", Role: model.RoleAdmin,
	})
	assert.Error(t, err)
}

func TestRegisterPasswordOverBcryptLimit(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), model.RegisterRequest{
		Name: "Long", Email: "long@x.test", Password: strings.Repeat("é", 40), Role: model.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = f.store.Users().GetByEmail(context.Background(), "long@x.test")
	assert.Error(t, err, "no user is created")
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.test", model.RoleStudent)
	ctx := context.Background()

	_, err := f.auth.Login(ctx, model.LoginRequest{Email: "a@x.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, model.LoginRequest{Email: "nobody@x.test", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCurrentRoleReflectsStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "t@x.test", model.RoleTeacher)
	subject := CanonicalSubject(reg.UserID)

	role, err := f.users.CurrentRole(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, role)

	require.NoError(t, f.store.Users().UpdateRole(ctx, reg.UserID, model.RoleStudent))
	role, err = f.users.CurrentRole(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, role, "role change applies without a new token")

	_, err = f.users.CurrentRole(ctx, "999")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.users.CurrentRole(ctx, "not-a-number")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCurrentRoleLookupError(t *testing.T) {
	f := newFixture(t)
	f.store.Fail = errors.New("connection refused")

	_, err := f.users.CurrentRole(context.Background(), "1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUserNotFound))
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.register(t, "s@x.test", model.RoleStudent)

	_, err := f.users.UpdateRole(ctx, student.UserID, student.UserID, model.RoleTeacher)
	assert.ErrorIs(t, err, ErrCannotChangeOwnRole)

	u, err := f.users.UpdateRole(ctx, 1000, student.UserID, model.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, u.Role)

	_, err = f.users.UpdateRole(ctx, 1000, 555, model.RoleTeacher)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.users.UpdateRole(ctx, 1000, student.UserID, model.Role("root"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestCourseLifecyclePublishesEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	course, err := f.courses.Create(ctx, 42, model.CourseRequest{Title: " Go basics ", Description: "intro"})
	require.NoError(t, err)
	assert.Equal(t, "Go basics", course.Title)
	assert.Equal(t, 42, course.TeacherID)

	updated, err := f.courses.Update(ctx, "42", course.ID, model.CourseRequest{Title: "Go advanced"})
	require.NoError(t, err)
	assert.Equal(t, 42, updated.TeacherID)

	lesson, err := f.lessons.Create(ctx, "42", course.ID, model.LessonRequest{Title: "L1", Content: "..."})
	require.NoError(t, err)
	_, err = f.lessons.Update(ctx, "42", course.ID, lesson.ID, model.LessonRequest{Title: "L1b", Content: "..."})
	require.NoError(t, err)
	require.NoError(t, f.lessons.Delete(ctx, "42", course.ID, lesson.ID))
	require.NoError(t, f.courses.Delete(ctx, "42", course.ID))

	assert.Equal(t, []model.CourseEventType{
		model.EventCourseUpdated,
		model.EventLessonCreated,
		model.EventLessonUpdated,
		model.EventLessonDeleted,
		model.EventCourseDeleted,
	}, f.events.types())

	_, err = f.courses.Get(ctx, course.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("redis down")
	ctx := context.Background()

	course, err := f.courses.Create(ctx, 1, model.CourseRequest{Title: "Go"})
	require.NoError(t, err)
	_, err = f.courses.Update(ctx, "1", course.ID, model.CourseRequest{Title: "Go 2"})
	assert.NoError(t, err)
}

func TestLessonOfAnotherCourseIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.courses.Create(ctx, 1, model.CourseRequest{Title: "A course"})
	require.NoError(t, err)
	b, err := f.courses.Create(ctx, 1, model.CourseRequest{Title: "B course"})
	require.NoError(t, err)
	lesson, err := f.lessons.Create(ctx, "1", a.ID, model.LessonRequest{Title: "L", Content: "c"})
	require.NoError(t, err)

	_, err = f.lessons.Update(ctx, "1", b.ID, lesson.ID, model.LessonRequest{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, ErrLessonNotFound)
	assert.ErrorIs(t, f.lessons.Delete(ctx, "1", b.ID, lesson.ID), ErrLessonNotFound)
}

func TestEnrollment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	course, err := f.courses.Create(ctx, 42, model.CourseRequest{Title: "Go"})
	require.NoError(t, err)

	require.NoError(t, f.courses.Enroll(ctx, 7, course.ID))
	assert.ErrorIs(t, f.courses.Enroll(ctx, 7, course.ID), ErrAlreadyEnrolled)
	assert.ErrorIs(t, f.courses.Enroll(ctx, 7, 999), ErrCourseNotFound)

	mine, err := f.courses.ListByStudent(ctx, 7)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, course.ID, mine[0].ID)

	ok, err := f.courses.CanFollow(ctx, "7", course.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.courses.CanFollow(ctx, "042", course.ID)
	require.NoError(t, err)
	assert.True(t, ok, "owner may follow")
	ok, err = f.courses.CanFollow(ctx, "8", course.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.courses.Unenroll(ctx, 7, course.ID))
	assert.ErrorIs(t, f.courses.Unenroll(ctx, 7, course.ID), ErrNotEnrolled)
}

func TestListsAreNeverNil(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	courses, err := f.courses.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, courses)

	lessons, err := f.lessons.ListByCourse(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, lessons)
}
