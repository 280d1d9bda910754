// Package memory is an in-process implementation of the repositories. It
// backs the handler and service tests and mirrors the PostgreSQL semantics
// the services rely on: unique emails, unique enrollments and cascading
// course deletes.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/repository"
)

type enrollmentKey struct{ userID, courseID int }

// Store holds every table behind one mutex.
type Store struct {
	mu          sync.RWMutex
	seq         int
	users       map[int]model.User
	courses     map[int]model.Course
	lessons     map[int]model.Lesson
	enrollments map[enrollmentKey]time.Time

	// Fail, when set, is returned by every call. It simulates a broken
	// database connection.
	Fail error
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:       make(map[int]model.User),
		courses:     make(map[int]model.Course),
		lessons:     make(map[int]model.Lesson),
		enrollments: make(map[enrollmentKey]time.Time),
	}
}

func (s *Store) nextID() int {
	s.seq++
	return s.seq
}

// Users returns a view of s implementing service.UserStore.
func (s *Store) Users() *Users { return &Users{s} }

// Courses returns a view of s implementing service.CourseStore.
func (s *Store) Courses() *Courses { return &Courses{s} }

// Lessons returns a view of s implementing service.LessonStore.
func (s *Store) Lessons() *Lessons { return &Lessons{s} }

// Enrollments returns a view of s implementing service.EnrollmentStore.
func (s *Store) Enrollments() *Enrollments { return &Enrollments{s} }

// ─── Users ─────────────────────────────────────────────────────────────

type Users struct{ s *Store }

func (r *Users) GetByID(_ context.Context, id int) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) List(_ context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	out := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Users) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	u.ID = r.s.nextID()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *Users) UpdateRole(_ context.Context, id int, role model.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return nil
}

func (r *Users) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	for k := range r.s.enrollments {
		if k.userID == id {
			delete(r.s.enrollments, k)
		}
	}
	for cid, c := range r.s.courses {
		if c.TeacherID == id {
			r.s.deleteCourseLocked(cid)
		}
	}
	return nil
}

// ─── Courses ───────────────────────────────────────────────────────────

type Courses struct{ s *Store }

func (r *Courses) GetByID(_ context.Context, id int) (*model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	c, ok := r.s.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *Courses) List(_ context.Context) ([]model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	out := make([]model.Course, 0, len(r.s.courses))
	for _, c := range r.s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Courses) ListByStudent(_ context.Context, userID int) ([]model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	var out []model.Course
	for k := range r.s.enrollments {
		if k.userID != userID {
			continue
		}
		if c, ok := r.s.courses[k.courseID]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Courses) Create(_ context.Context, c *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	now := time.Now().UTC()
	c.ID = r.s.nextID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.courses[c.ID] = *c
	return nil
}

func (r *Courses) Update(_ context.Context, c *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	existing, ok := r.s.courses[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Title = c.Title
	existing.Description = c.Description
	existing.UpdatedAt = time.Now().UTC()
	r.s.courses[c.ID] = existing
	*c = existing
	return nil
}

func (r *Courses) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	if _, ok := r.s.courses[id]; !ok {
		return repository.ErrNotFound
	}
	r.s.deleteCourseLocked(id)
	return nil
}

func (s *Store) deleteCourseLocked(id int) {
	delete(s.courses, id)
	for lid, l := range s.lessons {
		if l.CourseID == id {
			delete(s.lessons, lid)
		}
	}
	for k := range s.enrollments {
		if k.courseID == id {
			delete(s.enrollments, k)
		}
	}
}

// ─── Lessons ───────────────────────────────────────────────────────────

type Lessons struct{ s *Store }

func (r *Lessons) GetByID(_ context.Context, id int) (*model.Lesson, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	l, ok := r.s.lessons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (r *Lessons) ListByCourse(_ context.Context, courseID int) ([]model.Lesson, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	var out []model.Lesson
	for _, l := range r.s.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Lessons) Create(_ context.Context, l *model.Lesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	if _, ok := r.s.courses[l.CourseID]; !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	l.ID = r.s.nextID()
	l.CreatedAt, l.UpdatedAt = now, now
	r.s.lessons[l.ID] = *l
	return nil
}

func (r *Lessons) Update(_ context.Context, l *model.Lesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	existing, ok := r.s.lessons[l.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Title = l.Title
	existing.Content = l.Content
	existing.UpdatedAt = time.Now().UTC()
	r.s.lessons[l.ID] = existing
	*l = existing
	return nil
}

func (r *Lessons) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	if _, ok := r.s.lessons[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.lessons, id)
	return nil
}

// ─── Enrollments ───────────────────────────────────────────────────────

type Enrollments struct{ s *Store }

func (r *Enrollments) Enroll(_ context.Context, userID, courseID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	k := enrollmentKey{userID, courseID}
	if _, ok := r.s.enrollments[k]; ok {
		return repository.ErrDuplicate
	}
	r.s.enrollments[k] = time.Now().UTC()
	return nil
}

func (r *Enrollments) Unenroll(_ context.Context, userID, courseID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	k := enrollmentKey{userID, courseID}
	if _, ok := r.s.enrollments[k]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.enrollments, k)
	return nil
}

func (r *Enrollments) IsEnrolled(_ context.Context, userID, courseID int) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.Fail != nil {
		return false, r.s.Fail
	}
	_, ok := r.s.enrollments[enrollmentKey{userID, courseID}]
	return ok, nil
}
