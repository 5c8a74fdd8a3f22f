package storage

import "context"

// RecordRepository is the record half of the persistence gateway.
type RecordRepository interface {
	SaveRecord(ctx context.Context, major string, courses []Course) (id string, existed bool, err error)
	GetRecord(ctx context.Context, id string) (*LearningPathRecord, error)
	ListTopRecords(ctx context.Context, limit int) ([]LearningPathRecord, error)
	IncrementVotes(ctx context.Context, id string) (int, error)
	CountRecords(ctx context.Context) (int, error)
}

// CacheRepository is the course-cache half of the persistence gateway.
type CacheRepository interface {
	GetCourseCache(ctx context.Context, courseName, major, language string) (*CourseCache, error)
	UpsertCourseCache(ctx context.Context, cache *CourseCache) (*CourseCache, error)
	CountCourseCaches(ctx context.Context) (int, error)
}

var (
	_ RecordRepository = (*DB)(nil)
	_ CacheRepository  = (*DB)(nil)
)
