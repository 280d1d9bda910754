package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"
	ErrForbidden         ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound  ErrCode = "NOT_FOUND"
	ErrConflict  ErrCode = "CONFLICT"
	ErrUserGone  ErrCode = "USER_NOT_FOUND"
	ErrSelfRoles ErrCode = "CANNOT_CHANGE_OWN_ROLE"

	// ─── Course-specific ───────────────────────────────────────────────
	ErrCourseIDRequired   ErrCode = "COURSE_ID_REQUIRED"
	ErrCourseNotFound     ErrCode = "COURSE_NOT_FOUND"
	ErrNotCourseOwner     ErrCode = "NOT_COURSE_OWNER"
	ErrOwnershipCheck     ErrCode = "OWNERSHIP_CHECK_FAILED"
	ErrLessonNotFound     ErrCode = "LESSON_NOT_FOUND"
	ErrAlreadyEnrolled    ErrCode = "ALREADY_ENROLLED"
	ErrNotEnrolled        ErrCode = "NOT_ENROLLED"
	ErrStreamAccessDenied ErrCode = "STREAM_ACCESS_DENIED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrTokenRequired:
		return "No token provided."
	case ErrTokenInvalid:
		return "Invalid token."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrTeacherAccessOnly:
		return "Access forbidden: Teachers only."
	case ErrAdminAccessOnly:
		return "Access forbidden: Admins only."
	case ErrForbidden:
		return "You do not have permission to access this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrUserGone:
		return "User not found."
	case ErrSelfRoles:
		return "You cannot change your own role."

	// ─── Course-specific ───────────────────────────────────────────────
	case ErrCourseIDRequired:
		return "Course ID missing from request."
	case ErrCourseNotFound:
		return "Course not found."
	case ErrNotCourseOwner:
		return "Access forbidden: You do not own this course."
	case ErrOwnershipCheck:
		return "Error verifying course ownership."
	case ErrLessonNotFound:
		return "Lesson not found."
	case ErrAlreadyEnrolled:
		return "Already enrolled in this course."
	case ErrNotEnrolled:
		return "Not enrolled in this course."
	case ErrStreamAccessDenied:
		return "Only the course owner or enrolled users can follow this course."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
