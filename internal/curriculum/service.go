// Package curriculum implements the major curriculum search: web search,
// LLM course extraction and the learning-path record written on success.
package curriculum

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/garyellow/uonline/internal/config"
	domerrors "github.com/garyellow/uonline/internal/errors"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/query"
	"github.com/garyellow/uonline/internal/search"
	"github.com/garyellow/uonline/internal/storage"
	"github.com/garyellow/uonline/internal/stringutil"
)

// Curriculum service constants.
const (
	ModuleName = "curriculum"

	ResultsPerQuery     = 8
	MaxCourses          = 15
	descriptionMinRunes = 20
	descriptionMaxRunes = 200
)

// Searcher runs a batch of web searches.
type Searcher interface {
	Configured() bool
	SearchAll(ctx context.Context, queries []string, count int) ([]search.Result, error)
}

// Extractor turns search text into courses.
type Extractor interface {
	Extract(ctx context.Context, text, major string, lang i18n.Language) ([]storage.Course, error)
}

// RecordSaver persists learning-path records.
type RecordSaver interface {
	SaveRecord(ctx context.Context, major string, courses []storage.Course) (string, bool, error)
}

// Result is a curriculum search response.
type Result struct {
	Major       string           `json:"major"`
	Description string           `json:"description"`
	Courses     []storage.Course `json:"courses"`
	RecordID    string           `json:"recordId,omitempty"`
}

// Service searches curricula.
type Service struct {
	searcher  Searcher
	extractor Extractor
	records   RecordSaver
	metrics   *metrics.Metrics
	timeout   time.Duration // Budget for search plus extraction
}

// NewService creates a curriculum service. A nil extractor means no LLM
// key is configured; searches then fail with a configuration error.
func NewService(searcher Searcher, extractor Extractor, records RecordSaver, m *metrics.Metrics) *Service {
	return &Service{
		searcher:  searcher,
		extractor: extractor,
		records:   records,
		metrics:   m,
		timeout:   config.CurriculumRequest,
	}
}

// Search finds the core courses of major and records the result.
//
// Errors carry a localized user message and wrap, in order of checking:
// ErrInvalidInput for an empty major, a ConfigError for a missing search or
// LLM key, ErrNoResults when every query failed or the request budget ran
// out while searching, ErrTimeout when it ran out during extraction, and
// ErrNoCourses when extraction came back empty.
func (s *Service) Search(ctx context.Context, major string, lang i18n.Language) (*Result, error) {
	major = strings.TrimSpace(major)
	wrap := domerrors.NewWrapper(ModuleName, "search")

	if major == "" {
		return nil, wrap.Wrap(domerrors.NewValidationError("major", "empty"), i18n.T(lang, i18n.MsgMajorRequired))
	}
	if s.searcher == nil || !s.searcher.Configured() {
		return nil, wrap.Wrap(domerrors.NewConfigError(config.EnvBraveAPIKey), i18n.T(lang, i18n.MsgBraveKeyMissing))
	}
	if s.extractor == nil {
		return nil, wrap.Wrap(domerrors.NewConfigError(config.EnvSiliconFlowAPIKey), i18n.T(lang, i18n.MsgLLMKeyMissing))
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := s.searcher.SearchAll(reqCtx, query.Curriculum(major, lang), ResultsPerQuery)
	if err != nil {
		if budgetExpired(ctx, reqCtx) {
			err = domerrors.ErrNoResults
		}
		if errors.Is(err, domerrors.ErrNoResults) {
			return nil, wrap.Wrap(err, i18n.Tf(lang, i18n.MsgSearchRateLimited, major))
		}
		return nil, wrap.Wrap(err, i18n.T(lang, i18n.MsgInternalError))
	}

	text := search.Aggregate(results)
	if strings.TrimSpace(text) == "" {
		return nil, wrap.Wrap(domerrors.ErrNoResults, i18n.Tf(lang, i18n.MsgSearchRateLimited, major))
	}

	slog.InfoContext(ctx, "Curriculum search results collected",
		"major", major,
		"results", len(results),
		"text_runes", stringutil.RuneLen(text))

	courses, err := s.extractor.Extract(reqCtx, text, major, lang)
	if err != nil {
		if budgetExpired(ctx, reqCtx) {
			return nil, wrap.Wrap(domerrors.ErrTimeout, i18n.T(lang, i18n.MsgRecordTimeout))
		}
		return nil, wrap.Wrap(err, i18n.T(lang, i18n.MsgInternalError))
	}
	if len(courses) == 0 {
		return nil, wrap.Wrap(domerrors.ErrNoCourses, i18n.Tf(lang, i18n.MsgNoCoursesExtracted, major))
	}
	if len(courses) > MaxCourses {
		courses = courses[:MaxCourses]
	}

	description := MajorDescription(results, major)
	if description == "" {
		description = i18n.Tf(lang, i18n.MsgCurriculumDescription, major)
	}

	return &Result{
		Major:       major,
		Description: description,
		Courses:     courses,
		RecordID:    s.saveRecord(ctx, major, courses),
	}, nil
}

// budgetExpired reports whether reqCtx ran out of time while the caller's
// ctx is still live.
func budgetExpired(ctx, reqCtx context.Context) bool {
	return ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded)
}

// saveRecord stores the search as a learning-path record. Failures are
// logged and do not fail the search.
func (s *Service) saveRecord(ctx context.Context, major string, courses []storage.Course) string {
	if s.records == nil {
		return ""
	}
	id, existed, err := s.records.SaveRecord(ctx, major, courses)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to save curriculum record",
			"major", major,
			"error", err)
		s.metrics.RecordSave("error")
		return ""
	}
	if existed {
		s.metrics.RecordSave("existing")
	} else {
		s.metrics.RecordSave("created")
	}
	slog.DebugContext(ctx, "Curriculum record saved",
		"record_id", id,
		"existed", existed)
	return id
}

// MajorDescription returns the first result description (or title) that
// mentions major and is longer than 20 runes, truncated to 200 runes.
func MajorDescription(results []search.Result, major string) string {
	for _, r := range results {
		text := r.Description
		if text == "" {
			text = r.Title
		}
		n := stringutil.RuneLen(text)
		if !strings.Contains(text, major) || n <= descriptionMinRunes {
			continue
		}
		if n > descriptionMaxRunes {
			return stringutil.TruncateRunes(text, descriptionMaxRunes) + "..."
		}
		return text
	}
	return ""
}
