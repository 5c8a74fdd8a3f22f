package mooc

import (
	"context"
	"errors"
	"strings"

	domerrors "github.com/garyellow/uonline/internal/errors"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/storage"
)

// GetCache returns the cache row for the key, or nil when there is none.
func (s *Service) GetCache(ctx context.Context, course, major string, lang i18n.Language) (*storage.CourseCache, error) {
	wrap := domerrors.NewWrapper(ModuleName, "get_cache")

	course = strings.TrimSpace(course)
	major = strings.TrimSpace(major)
	if course == "" || major == "" {
		return nil, wrap.Wrap(domerrors.NewValidationError("courseName/major", "required"), i18n.T(lang, i18n.MsgMissingParameters))
	}

	cached, err := s.cache.GetCourseCache(ctx, course, major, lang.String())
	if errors.Is(err, domerrors.ErrNotFound) {
		s.metrics.RecordCacheMiss(ModuleName)
		return nil, nil //nolint:nilnil // A miss is not an error for callers.
	}
	if err != nil {
		return nil, wrap.Wrap(err, i18n.T(lang, i18n.MsgGetCacheFailed))
	}
	s.metrics.RecordCacheHit(ModuleName)
	return cached, nil
}

// SaveCache upserts a client-supplied cache row. The last write wins.
func (s *Service) SaveCache(ctx context.Context, entry *storage.CourseCache, lang i18n.Language) (*storage.CourseCache, error) {
	wrap := domerrors.NewWrapper(ModuleName, "save_cache")

	if entry == nil || strings.TrimSpace(entry.CourseName) == "" || strings.TrimSpace(entry.Major) == "" {
		return nil, wrap.Wrap(domerrors.NewValidationError("courseName/major", "required"), i18n.T(lang, i18n.MsgMissingParameters))
	}
	entry.CourseName = strings.TrimSpace(entry.CourseName)
	entry.Major = strings.TrimSpace(entry.Major)
	entry.Language = lang.String()

	saved, err := s.cache.UpsertCourseCache(ctx, entry)
	if err != nil {
		return nil, wrap.Wrap(err, i18n.T(lang, i18n.MsgSaveCacheFailed))
	}
	return saved, nil
}
