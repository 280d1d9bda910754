package service

import (
	"fmt"
	"strconv"
	"strings"
)

// CanonicalSubject brings a subject identifier to canonical decimal form so
// that 42, "42", "042" and " 42" compare equal. Values that are not integers
// come back trimmed but otherwise unchanged and only equal themselves.
func CanonicalSubject(v any) string {
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
		return s
	case nil:
		return ""
	case fmt.Stringer:
		return CanonicalSubject(x.String())
	default:
		return CanonicalSubject(fmt.Sprint(x))
	}
}

// SameSubject reports whether a and b name the same subject after
// canonicalisation. Empty identifiers never match.
func SameSubject(a, b any) bool {
	ca, cb := CanonicalSubject(a), CanonicalSubject(b)
	return ca != "" && ca == cb
}
