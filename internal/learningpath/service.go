// Package learningpath builds a study plan for a major: core courses found
// with the regex extractor, each paired with matching MOOCs.
package learningpath

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/uonline/internal/classify"
	"github.com/garyellow/uonline/internal/config"
	domerrors "github.com/garyellow/uonline/internal/errors"
	"github.com/garyellow/uonline/internal/extract"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/query"
	"github.com/garyellow/uonline/internal/search"
	"github.com/garyellow/uonline/internal/sliceutil"
	"github.com/garyellow/uonline/internal/storage"
)

// Learning path constants.
const (
	ModuleName = "learningpath"

	CurriculumResultsPerQuery = 10
	MOOCResultsPerQuery       = 6
	MinCourses                = 5
	MaxCourses                = 8
	MaxMOOCsPerCourse         = 3
	courseConcurrency         = 3
)

// Searcher runs a batch of web searches.
type Searcher interface {
	Configured() bool
	SearchAll(ctx context.Context, queries []string, count int) ([]search.Result, error)
}

// Course is one step of a learning path.
type Course struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	MOOCCourses []storage.MOOCCourse `json:"moocCourses"`
}

// Path is a generated learning path.
type Path struct {
	Major       string   `json:"major"`
	Description string   `json:"description"`
	Courses     []Course `json:"courses"`
}

// Service generates learning paths.
type Service struct {
	searcher Searcher
	metrics  *metrics.Metrics
	timeout  time.Duration // Budget for all searches of one path
}

// NewService creates a learning path service.
func NewService(searcher Searcher, m *metrics.Metrics) *Service {
	return &Service{searcher: searcher, metrics: m, timeout: config.LearningPathRequest}
}

// Generate builds the learning path for major. Search failures degrade to
// the default course list and provider search links rather than an error,
// and so does running out of the search budget.
func (s *Service) Generate(ctx context.Context, major string, lang i18n.Language) (*Path, error) {
	major = strings.TrimSpace(major)
	wrap := domerrors.NewWrapper(ModuleName, "generate")
	if major == "" {
		return nil, wrap.Wrap(domerrors.NewValidationError("major", "empty"), i18n.T(lang, i18n.MsgInvalidMajor))
	}

	start := time.Now()
	searchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := s.courseNames(searchCtx, major)

	courses := make([]Course, len(names))
	var g errgroup.Group
	g.SetLimit(courseConcurrency)
	for i, name := range names {
		g.Go(func() error {
			courses[i] = Course{
				Name:        name,
				Description: i18n.Tf(lang, i18n.MsgCourseDescription, name, major),
				MOOCCourses: s.moocs(searchCtx, name, major),
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Learning path generated",
		"major", major,
		"courses", len(courses),
		"duration", time.Since(start))

	return &Path{
		Major:       major,
		Description: i18n.Tf(lang, i18n.MsgLearningPathDescription, major),
		Courses:     courses,
	}, nil
}

// courseNames extracts course names per search result, topping up with
// the defaults for major when fewer than MinCourses were found.
func (s *Service) courseNames(ctx context.Context, major string) []string {
	var names []string

	if s.searcher != nil && s.searcher.Configured() {
		results, err := s.searcher.SearchAll(ctx, query.LearningPathCurriculum(major), CurriculumResultsPerQuery)
		if err != nil && !errors.Is(err, domerrors.ErrNoResults) {
			slog.WarnContext(ctx, "Curriculum search failed, using defaults",
				"major", major,
				"error", err)
		}
		for _, r := range results {
			names = append(names, extract.CourseNames(r.Title+" "+r.Description, major)...)
		}
		names = sliceutil.Deduplicate(names, func(n string) string { return n })
	} else {
		slog.WarnContext(ctx, "Search is not configured, using default courses", "major", major)
	}

	found := len(names)
	if found < MinCourses {
		names = sliceutil.Deduplicate(append(names, extract.DefaultCourses(major)...), func(n string) string { return n })
	}
	s.metrics.RecordExtraction("regex", found)

	if len(names) > MaxCourses {
		names = names[:MaxCourses]
	}
	return names
}

// moocs returns up to MaxMOOCsPerCourse course pages, or provider search
// links when none were found.
func (s *Service) moocs(ctx context.Context, course, major string) []storage.MOOCCourse {
	subject := query.Clean(course)

	if s.searcher != nil && s.searcher.Configured() && ctx.Err() == nil {
		results, err := s.searcher.SearchAll(ctx, query.MOOCSites(course, major), MOOCResultsPerQuery)
		if err != nil && !errors.Is(err, domerrors.ErrNoResults) && ctx.Err() == nil {
			slog.WarnContext(ctx, "MOOC search failed for learning path course",
				"course", course,
				"error", err)
		}
		if found := classify.MOOCs(results, subject); len(found) > 0 {
			if len(found) > MaxMOOCsPerCourse {
				found = found[:MaxMOOCsPerCourse]
			}
			return found
		}
	}

	return classify.SearchLinks(subject, major)
}
