package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coursehub/course-online-server/internal/config"
	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/repository"
	"github.com/coursehub/course-online-server/internal/response"
	"github.com/coursehub/course-online-server/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var nopLog = zerolog.Nop()

func testTokens() *service.TokenService {
	return service.NewTokenService(&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour})
}

func issue(t *testing.T, tokens *service.TokenService, subject string, role model.Role) string {
	t.Helper()
	tok, _, err := tokens.Issue(subject, role)
	require.NoError(t, err)
	return tok
}

type fakeRoles struct {
	roles map[string]model.Role
	err   error
	calls int
}

func (f *fakeRoles) CurrentRole(_ context.Context, subjectID string) (model.Role, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	role, ok := f.roles[subjectID]
	if !ok {
		return "", service.ErrUserNotFound
	}
	return role, nil
}

type fakeCourses struct {
	courses map[int]*model.Course
	err     error
	calls   int
}

func (f *fakeCourses) GetByID(_ context.Context, id int) (*model.Course, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) response.ErrCode {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	if body.Error == nil {
		return ""
	}
	return body.Error.Code
}

func ok(c *gin.Context) { c.String(http.StatusOK, "ok") }

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ─── Authenticator ─────────────────────────────────────────────────────

func TestRequireAuth(t *testing.T) {
	tokens := testTokens()
	valid := issue(t, tokens, "42", model.RoleTeacher)
	expired, _, err := tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		Issue("42", model.RoleTeacher)
	require.NoError(t, err)
	forged := issue(t, service.NewTokenService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}), "42", model.RoleTeacher)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  response.ErrCode
	}{
		{"no header", "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, response.ErrTokenRequired},
		{"blank bearer", "Bearer    ", http.StatusUnauthorized, response.ErrTokenRequired},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, response.ErrTokenRequired},
		{"lowercase scheme", "bearer " + valid, http.StatusUnauthorized, response.ErrTokenRequired},
		{"bare token", valid, http.StatusUnauthorized, response.ErrTokenRequired},
		{"malformed", "Bearer not.a.jwt", http.StatusUnauthorized, response.ErrTokenInvalid},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, response.ErrTokenInvalid},
		{"wrong signature", "Bearer " + forged, http.StatusUnauthorized, response.ErrTokenInvalid},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}

	r := gin.New()
	r.GET("/p", RequireAuth(tokens, nopLog), func(c *gin.Context) {
		id := GetIdentity(c)
		require.NotNil(t, id)
		assert.Equal(t, "42", id.SubjectID)
		assert.Equal(t, model.RoleTeacher, id.Role)
		ok(c)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, "/p", tt.header)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorCode(t, w))
			}
		})
	}
}

func TestRequireAuthFailuresAreIndistinguishable(t *testing.T) {
	tokens := testTokens()
	expired, _, err := tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		Issue("42", model.RoleTeacher)
	require.NoError(t, err)
	forged := issue(t, service.NewTokenService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}), "42", model.RoleTeacher)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(response.ContextKeyRequestID, "fixed") })
	r.GET("/p", RequireAuth(tokens, nopLog), ok)

	strip := func(w *httptest.ResponseRecorder) response.ErrorBody {
		var body response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return *body.Error
	}

	a := serve(r, http.MethodGet, "/p", "Bearer "+expired)
	b := serve(r, http.MethodGet, "/p", "Bearer "+forged)
	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, strip(a), strip(b))
}

func TestRequireWSAuth(t *testing.T) {
	tokens := testTokens()
	r := gin.New()
	r.GET("/ws", RequireWSAuth(tokens, nopLog), ok)

	w := serve(r, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrTokenRequired, errorCode(t, w))

	w = serve(r, http.MethodGet, "/ws?token=garbage", "")
	assert.Equal(t, response.ErrTokenInvalid, errorCode(t, w))

	w = serve(r, http.MethodGet, "/ws?token="+issue(t, tokens, "1", model.RoleStudent), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

// ─── Role authorizer ───────────────────────────────────────────────────

func TestRequireTeacherUsesStoreRole(t *testing.T) {
	tokens := testTokens()
	roles := &fakeRoles{roles: map[string]model.Role{"42": model.RoleTeacher, "7": model.RoleStudent}}

	r := gin.New()
	r.GET("/t", RequireAuth(tokens, nopLog), RequireTeacher(roles, nopLog), ok)

	w := serve(r, http.MethodGet, "/t", "Bearer "+issue(t, tokens, "42", model.RoleTeacher))
	assert.Equal(t, http.StatusOK, w.Code)

	// Token claims teacher, store says student.
	w = serve(r, http.MethodGet, "/t", "Bearer "+issue(t, tokens, "7", model.RoleTeacher))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.ErrTeacherAccessOnly, errorCode(t, w))

	// Token claims student, store says teacher.
	w = serve(r, http.MethodGet, "/t", "Bearer "+issue(t, tokens, "42", model.RoleStudent))
	assert.Equal(t, http.StatusOK, w.Code)

	// Unknown user.
	w = serve(r, http.MethodGet, "/t", "Bearer "+issue(t, tokens, "99", model.RoleTeacher))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	tokens := testTokens()
	roles := &fakeRoles{roles: map[string]model.Role{"1": model.RoleAdmin, "42": model.RoleTeacher}}

	r := gin.New()
	r.GET("/a", RequireAuth(tokens, nopLog), RequireAdmin(roles, nopLog), ok)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/a", "Bearer "+issue(t, tokens, "1", model.RoleAdmin)).Code)

	w := serve(r, http.MethodGet, "/a", "Bearer "+issue(t, tokens, "42", model.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.ErrAdminAccessOnly, errorCode(t, w))
}

func TestRequireRoleLookupError(t *testing.T) {
	tokens := testTokens()
	roles := &fakeRoles{err: errors.New("db down")}

	r := gin.New()
	r.GET("/t", RequireAuth(tokens, nopLog), RequireTeacher(roles, nopLog), ok)

	w := serve(r, http.MethodGet, "/t", "Bearer "+issue(t, tokens, "42", model.RoleTeacher))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, response.ErrInternal, errorCode(t, w))
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/t", RequireTeacher(&fakeRoles{}, nopLog), ok)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/t", "").Code)
}

// ─── Ownership authorizer ──────────────────────────────────────────────

func ownershipRouter(tokens *service.TokenService, courses *fakeCourses) *gin.Engine {
	r := gin.New()
	guard := Chain(RequireAuth(tokens, nopLog), RequireCourseOwnership(courses, nopLog))
	r.DELETE("/courses/:id", guard.Then(func(c *gin.Context) {
		if GetCourse(c) == nil {
			c.Status(http.StatusTeapot)
			return
		}
		ok(c)
	})...)
	r.PUT("/courses/:courseId/lessons/:id", guard.Then(ok)...)
	r.POST("/plain", guard.Then(ok)...)
	return r
}

func TestOwnership(t *testing.T) {
	tokens := testTokens()
	courses := &fakeCourses{courses: map[int]*model.Course{
		1: {ID: 1, TeacherID: 42},
		2: {ID: 2, TeacherID: 7},
	}}
	r := ownershipRouter(tokens, courses)
	owner := "Bearer " + issue(t, tokens, "42", model.RoleTeacher)
	other := "Bearer " + issue(t, tokens, "7", model.RoleTeacher)
	admin := "Bearer " + issue(t, tokens, "1", model.RoleAdmin)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodDelete, "/courses/1", owner).Code)

	w := serve(r, http.MethodDelete, "/courses/1", other)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.ErrNotCourseOwner, errorCode(t, w))

	w = serve(r, http.MethodDelete, "/courses/1", admin)
	assert.Equal(t, http.StatusForbidden, w.Code, "admins are not exempt")
}

func TestOwnershipNotFoundBeforeComparison(t *testing.T) {
	tokens := testTokens()
	courses := &fakeCourses{courses: map[int]*model.Course{}}
	r := ownershipRouter(tokens, courses)
	auth := "Bearer " + issue(t, tokens, "42", model.RoleTeacher)

	w := serve(r, http.MethodDelete, "/courses/999", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrCourseNotFound, errorCode(t, w))

	calls := courses.calls
	w = serve(r, http.MethodDelete, "/courses/abc", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, calls, courses.calls, "non-numeric id never reaches the store")
}

func TestOwnershipPrefersCourseIDParam(t *testing.T) {
	tokens := testTokens()
	courses := &fakeCourses{courses: map[int]*model.Course{
		5: {ID: 5, TeacherID: 42},
		9: {ID: 9, TeacherID: 7},
	}}
	r := ownershipRouter(tokens, courses)

	// :courseId=5 is owned by 42, :id=9 is a lesson id and must be ignored.
	w := serve(r, http.MethodPut, "/courses/5/lessons/9", "Bearer "+issue(t, tokens, "42", model.RoleTeacher))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPut, "/courses/5/lessons/9", "Bearer "+issue(t, tokens, "7", model.RoleTeacher))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOwnershipMissingIdentifier(t *testing.T) {
	tokens := testTokens()
	r := ownershipRouter(tokens, &fakeCourses{})

	w := serve(r, http.MethodPost, "/plain", "Bearer "+issue(t, tokens, "42", model.RoleTeacher))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrCourseIDRequired, errorCode(t, w))
}

func TestOwnershipLookupError(t *testing.T) {
	tokens := testTokens()
	r := ownershipRouter(tokens, &fakeCourses{err: errors.New("db down")})

	w := serve(r, http.MethodDelete, "/courses/1", "Bearer "+issue(t, tokens, "42", model.RoleTeacher))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, response.ErrOwnershipCheck, errorCode(t, w))
}

func TestOwnershipNormalisesSubject(t *testing.T) {
	tokens := testTokens()
	courses := &fakeCourses{courses: map[int]*model.Course{1: {ID: 1, TeacherID: 42}}}
	r := ownershipRouter(tokens, courses)

	for _, sub := range []string{"42", "042", " 42"} {
		w := serve(r, http.MethodDelete, "/courses/1", "Bearer "+issue(t, tokens, sub, model.RoleTeacher))
		assert.Equal(t, http.StatusOK, w.Code, "subject %q", sub)
	}
}

// ─── Chain ─────────────────────────────────────────────────────────────

func TestChainShortCircuits(t *testing.T) {
	tokens := testTokens()
	roles := &fakeRoles{roles: map[string]model.Role{"7": model.RoleStudent}}
	courses := &fakeCourses{courses: map[int]*model.Course{1: {ID: 1, TeacherID: 42}}}
	handlerRan := false

	r := gin.New()
	r.DELETE("/courses/:id", Chain(
		RequireAuth(tokens, nopLog),
		RequireTeacher(roles, nopLog),
		RequireCourseOwnership(courses, nopLog),
	).Then(func(c *gin.Context) { handlerRan = true })...)

	// Authentication fails: no guard runs.
	w := serve(r, http.MethodDelete, "/courses/1", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, roles.calls)
	assert.Zero(t, courses.calls)

	// Role fails: ownership never runs.
	w = serve(r, http.MethodDelete, "/courses/1", "Bearer "+issue(t, tokens, "7", model.RoleTeacher))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.ErrTeacherAccessOnly, errorCode(t, w))
	assert.Equal(t, 1, roles.calls)
	assert.Zero(t, courses.calls)
	assert.False(t, handlerRan)
}

func TestChainOrderAndThen(t *testing.T) {
	var order []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) { order = append(order, name); c.Next() }
	}

	p := Chain(mark("auth"), mark("a"), mark("b"))
	h1 := p.Then(mark("h1"))
	h2 := p.Then(mark("h2"))
	require.Len(t, h1, 4)
	require.Len(t, h2, 4)
	assert.Len(t, p, 3, "Then must not grow the shared pipeline")

	r := gin.New()
	r.GET("/x", h1...)
	serve(r, http.MethodGet, "/x", "")
	assert.Equal(t, []string{"auth", "a", "b", "h1"}, order)

	assert.Panics(t, func() { Chain(nil) })
}

// ─── Rate limiter ──────────────────────────────────────────────────────

func TestRateLimiterLocal(t *testing.T) {
	rl := NewRateLimiter(nil, 2, time.Minute, nopLog)
	now := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", rl.Middleware(), ok)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/login", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/login", "").Code)
	w := serve(r, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, response.ErrRateLimitExceeded, errorCode(t, w))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/login", "").Code, "next window resets")
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(nil, 0, time.Minute, nopLog)
	r := gin.New()
	r.POST("/login", rl.Middleware(), ok)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/login", "").Code)
	}
}

// ─── Brotli ────────────────────────────────────────────────────────────

func TestBrotliCompressesLargeBodies(t *testing.T) {
	r := gin.New()
	r.Use(Brotli())
	big := bytes.Repeat([]byte("course "), 500)
	r.GET("/big", func(c *gin.Context) { c.Data(http.StatusOK, "text/plain", big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "tiny") })

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=0.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	assert.Less(t, w.Body.Len(), len(big))

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "tiny", w.Body.String())
}
