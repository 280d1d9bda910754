package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentRepository handles enrollment data access.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// Enroll records that userID follows courseID. A second enrollment of the
// same pair returns ErrDuplicate.
func (r *EnrollmentRepository) Enroll(ctx context.Context, userID, courseID int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO enrollments (user_id, course_id) VALUES ($1, $2)`,
		userID, courseID,
	)
	return translate(err)
}

// Unenroll removes the enrollment; ErrNotFound if there was none.
func (r *EnrollmentRepository) Unenroll(ctx context.Context, userID, courseID int) error {
	return affected(r.pool.Exec(ctx,
		`DELETE FROM enrollments WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	))
}

// IsEnrolled reports whether userID is enrolled in courseID.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, userID, courseID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`,
		userID, courseID,
	).Scan(&exists)
	return exists, err
}
