package repository

import (
	"context"

	"github.com/coursehub/course-online-server/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CourseRepository handles course data access.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// GetByID retrieves a course by ID.
func (r *CourseRepository) GetByID(ctx context.Context, id int) (*model.Course, error) {
	c := &model.Course{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, teacher_id, created_at, updated_at
		 FROM courses WHERE id = $1`, id,
	).Scan(&c.ID, &c.Title, &c.Description, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// List retrieves all courses, newest first.
func (r *CourseRepository) List(ctx context.Context) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, teacher_id, created_at, updated_at
		 FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCourses(rows)
}

// ListByStudent retrieves the courses a user is enrolled in.
func (r *CourseRepository) ListByStudent(ctx context.Context, userID int) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.title, c.description, c.teacher_id, c.created_at, c.updated_at
		 FROM courses c JOIN enrollments e ON e.course_id = c.id
		 WHERE e.user_id = $1
		 ORDER BY e.enrolled_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCourses(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanCourses(rows rowScanner) ([]model.Course, error) {
	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, c *model.Course) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO courses (title, description, teacher_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		c.Title, c.Description, c.TeacherID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err)
}

// Update modifies title and description. teacher_id is never updated.
func (r *CourseRepository) Update(ctx context.Context, c *model.Course) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE courses SET title = $1, description = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3
		 RETURNING teacher_id, created_at, updated_at`,
		c.Title, c.Description, c.ID,
	).Scan(&c.TeacherID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err)
}

// Delete removes a course; lessons and enrollments cascade.
func (r *CourseRepository) Delete(ctx context.Context, id int) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id))
}
