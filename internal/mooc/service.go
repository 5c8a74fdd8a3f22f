// Package mooc finds free online courses and textbook documents for a
// course, backed by the course cache.
package mooc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/garyellow/uonline/internal/classify"
	"github.com/garyellow/uonline/internal/config"
	"github.com/garyellow/uonline/internal/ctxutil"
	domerrors "github.com/garyellow/uonline/internal/errors"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/query"
	"github.com/garyellow/uonline/internal/search"
	"github.com/garyellow/uonline/internal/storage"
)

// MOOC service constants.
const (
	ModuleName = "mooc"

	MOOCResultsPerQuery     = 8
	TextbookResultsPerQuery = 5
	MaxMOOCs                = 8
	MaxTextbooks            = 5
)

// Searcher runs a batch of web searches.
type Searcher interface {
	Configured() bool
	SearchAll(ctx context.Context, queries []string, count int) ([]search.Result, error)
}

// Result is a MOOC search response.
type Result struct {
	CourseName string               `json:"courseName"`
	Courses    []storage.MOOCCourse `json:"courses"`
	Textbooks  []storage.Textbook   `json:"textbooks"`
	FromCache  bool                 `json:"fromCache"`
}

// Service searches MOOCs and textbooks.
type Service struct {
	searcher Searcher
	cache    storage.CacheRepository
	metrics  *metrics.Metrics
	timeout  time.Duration
	group    singleflight.Group
}

// NewService creates a MOOC service.
func NewService(searcher Searcher, cache storage.CacheRepository, m *metrics.Metrics) *Service {
	return &Service{
		searcher: searcher,
		cache:    cache,
		metrics:  m,
		timeout:  config.MOOCSearch,
	}
}

type fetched struct {
	courses   []storage.MOOCCourse
	textbooks []storage.Textbook
}

// Search returns cached resources for (course, major, lang) when present,
// otherwise searches and caches them. When no MOOC page is found the
// response carries provider search links instead and nothing is cached.
//
// Concurrent calls with the same key share one upstream search.
func (s *Service) Search(ctx context.Context, course, major string, lang i18n.Language) (*Result, error) {
	course = strings.TrimSpace(course)
	major = strings.TrimSpace(major)
	wrap := domerrors.NewWrapper(ModuleName, "search")

	if course == "" {
		return nil, wrap.Wrap(domerrors.NewValidationError("courseName", "empty"), i18n.T(lang, i18n.MsgCourseNameRequired))
	}

	if cached, ok := s.lookupCache(ctx, course, major, lang); ok {
		return &Result{
			CourseName: course,
			Courses:    cached.MOOCCourses,
			Textbooks:  cached.Textbooks,
			FromCache:  true,
		}, nil
	}

	if s.searcher == nil || !s.searcher.Configured() {
		return nil, wrap.Wrap(domerrors.NewConfigError(config.EnvBraveAPIKey), i18n.T(lang, i18n.MsgAPIKeyMissing))
	}

	key := course + "\x00" + major + "\x00" + lang.String()
	ch := s.group.DoChan(key, func() (any, error) {
		// Detached so one caller leaving does not cancel the shared search.
		searchCtx, cancel := context.WithTimeout(ctxutil.PreserveTracing(ctx), s.timeout)
		defer cancel()
		return s.fetch(searchCtx, course, major, lang)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.metrics.RecordSingleflightDedup(ModuleName)
		}
		if res.Err != nil {
			return nil, wrap.Wrap(res.Err, i18n.T(lang, i18n.MsgInternalError))
		}
		f, _ := res.Val.(*fetched)
		courses := f.courses
		if len(courses) == 0 {
			courses = classify.SearchLinks(course, major)
		}
		return &Result{
			CourseName: course,
			Courses:    courses,
			Textbooks:  f.textbooks,
		}, nil
	}
}

func (s *Service) lookupCache(ctx context.Context, course, major string, lang i18n.Language) (*storage.CourseCache, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, err := s.cache.GetCourseCache(ctx, course, major, lang.String())
	switch {
	case err == nil:
		s.metrics.RecordCacheHit(ModuleName)
		slog.DebugContext(ctx, "Course cache hit", "course", course, "major", major)
		return cached, true
	case errors.Is(err, domerrors.ErrNotFound):
		s.metrics.RecordCacheMiss(ModuleName)
	default:
		s.metrics.RecordCacheMiss(ModuleName)
		slog.WarnContext(ctx, "Course cache lookup failed, searching instead",
			"course", course,
			"error", err)
	}
	return nil, false
}

// fetch runs the MOOC and textbook batches and caches a non-empty result.
// ctx carries the search budget; a batch cut short by it counts as empty
// and the result is not cached.
func (s *Service) fetch(ctx context.Context, course, major string, lang i18n.Language) (*fetched, error) {
	start := time.Now()

	moocResults, err := s.searcher.SearchAll(ctx, query.MOOC(course, major), MOOCResultsPerQuery)
	if err != nil && !softFailure(err) {
		return nil, err
	}
	courses := classify.MOOCs(moocResults, course)
	if len(courses) > MaxMOOCs {
		courses = courses[:MaxMOOCs]
	}

	bookResults, err := s.searcher.SearchAll(ctx, query.Textbook(course, major), TextbookResultsPerQuery)
	if err != nil && !softFailure(err) {
		return nil, err
	}
	textbooks := classify.Textbooks(bookResults, course)
	if len(textbooks) > MaxTextbooks {
		textbooks = textbooks[:MaxTextbooks]
	}
	if textbooks == nil {
		textbooks = []storage.Textbook{}
	}

	slog.InfoContext(ctx, "MOOC search completed",
		"course", course,
		"major", major,
		"moocs", len(courses),
		"textbooks", len(textbooks),
		"duration", time.Since(start))

	if ctx.Err() != nil {
		slog.WarnContext(ctx, "MOOC search budget exhausted, result not cached",
			"course", course,
			"major", major)
	} else if len(courses) > 0 && s.cache != nil {
		_, err := s.cache.UpsertCourseCache(ctx, &storage.CourseCache{
			CourseName:  course,
			Major:       major,
			Language:    lang.String(),
			MOOCCourses: courses,
			Textbooks:   textbooks,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to save course cache",
				"course", course,
				"error", err)
		}
	}

	return &fetched{courses: courses, textbooks: textbooks}, nil
}

func softFailure(err error) bool {
	return errors.Is(err, domerrors.ErrNoResults) || errors.Is(err, context.DeadlineExceeded)
}
