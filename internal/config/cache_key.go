package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AuthRateKey returns the counter key for auth attempts from one client IP
// within the given fixed window.
func (r *CacheKeyStruct) AuthRateKey(ip string, window int64) string {
	return fmt.Sprintf("ratelimit:auth:%s:%d", ip, window)
}

// CourseEventsChannel returns the Redis PubSub channel carrying change
// events for one course.
func (r *CacheKeyStruct) CourseEventsChannel(courseID int) string {
	return fmt.Sprintf("course:%d:events", courseID)
}

var CacheKey = NewCacheKeyStruct()
