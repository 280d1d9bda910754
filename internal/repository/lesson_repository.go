package repository

import (
	"context"

	"github.com/coursehub/course-online-server/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LessonRepository handles lesson data access.
type LessonRepository struct {
	pool *pgxpool.Pool
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

// GetByID retrieves a lesson by ID.
func (r *LessonRepository) GetByID(ctx context.Context, id int) (*model.Lesson, error) {
	l := &model.Lesson{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, title, content, created_at, updated_at
		 FROM lessons WHERE id = $1`, id,
	).Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return l, nil
}

// ListByCourse retrieves the lessons of a course in creation order.
func (r *LessonRepository) ListByCourse(ctx context.Context, courseID int) ([]model.Lesson, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, title, content, created_at, updated_at
		 FROM lessons WHERE course_id = $1 ORDER BY id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// Create inserts a new lesson.
func (r *LessonRepository) Create(ctx context.Context, l *model.Lesson) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO lessons (course_id, title, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		l.CourseID, l.Title, l.Content,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	return translate(err)
}

// Update modifies title and content of a lesson.
func (r *LessonRepository) Update(ctx context.Context, l *model.Lesson) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE lessons SET title = $1, content = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3
		 RETURNING course_id, created_at, updated_at`,
		l.Title, l.Content, l.ID,
	).Scan(&l.CourseID, &l.CreatedAt, &l.UpdatedAt)
	return translate(err)
}

// Delete removes a lesson by ID.
func (r *LessonRepository) Delete(ctx context.Context, id int) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id))
}
