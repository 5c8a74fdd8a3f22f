// Package records manages shareable learning-path records: saving,
// lookup, the top list and votes.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garyellow/uonline/internal/config"
	domerrors "github.com/garyellow/uonline/internal/errors"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/retry"
	"github.com/garyellow/uonline/internal/storage"
	"github.com/garyellow/uonline/internal/stringutil"
)

// Records service constants.
const (
	ModuleName = "records"

	TopLimit = 20

	MinCourseNameRunes = 2
	MaxCourseNameRunes = 50
)

// SaveResult reports the stored record id and whether it already existed.
type SaveResult struct {
	RecordID string
	Existed  bool
}

// Service wraps the record repository with validation, lookup retries and
// localized errors.
type Service struct {
	repo          storage.RecordRepository
	metrics       *metrics.Metrics
	lookupTimeout time.Duration
	lookupPolicy  retry.Policy
}

// NewService creates a records service.
func NewService(repo storage.RecordRepository, m *metrics.Metrics) *Service {
	return &Service{
		repo:          repo,
		metrics:       m,
		lookupTimeout: config.RecordLookup,
		lookupPolicy:  LookupRetryPolicy(config.RecordLookupAttempts, config.RecordLookupRetryDelay),
	}
}

// LookupRetryPolicy retries timed-out reads with a fixed delay.
func LookupRetryPolicy(attempts int, delay time.Duration) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   delay,
		MaxDelay:    delay,
		Multiplier:  1,
		Classify: func(err error) retry.Decision {
			if errors.Is(err, domerrors.ErrTimeout) {
				return retry.Retry
			}
			return retry.Stop
		},
	}
}

// Save stores a learning path, reusing the id of an identical one.
// Blank course names are dropped; any other name must be 2 to 50 runes
// after trimming or the whole record is rejected.
func (s *Service) Save(ctx context.Context, major string, courses []storage.Course, lang i18n.Language) (*SaveResult, error) {
	wrap := domerrors.NewWrapper(ModuleName, "save")

	major = strings.TrimSpace(major)
	cleaned := make([]storage.Course, 0, len(courses))
	for _, c := range courses {
		c.Name = strings.TrimSpace(c.Name)
		c.Description = strings.TrimSpace(c.Description)
		if c.Name == "" {
			continue
		}
		if n := stringutil.RuneLen(c.Name); n < MinCourseNameRunes || n > MaxCourseNameRunes {
			return nil, wrap.Wrap(domerrors.NewValidationError("courses", fmt.Sprintf("name %q has %d runes", c.Name, n)),
				i18n.T(lang, i18n.MsgSaveRecordInvalid))
		}
		cleaned = append(cleaned, c)
	}
	if major == "" || len(cleaned) == 0 {
		return nil, wrap.Wrap(domerrors.NewValidationError("major/courses", "required"), i18n.T(lang, i18n.MsgSaveRecordInvalid))
	}

	id, existed, err := s.repo.SaveRecord(ctx, major, cleaned)
	if err != nil {
		s.metrics.RecordSave("error")
		return nil, wrap.Wrap(err, i18n.T(lang, i18n.MsgSaveRecordFailed))
	}
	if existed {
		s.metrics.RecordSave("existing")
	} else {
		s.metrics.RecordSave("created")
	}

	slog.InfoContext(ctx, "Learning path record saved",
		"record_id", id,
		"major", major,
		"existed", existed)

	return &SaveResult{RecordID: id, Existed: existed}, nil
}

// Get loads one record. Each read is bounded by its own timeout, and timed
// out reads are retried before the lookup reports ErrTimeout.
func (s *Service) Get(ctx context.Context, id string, lang i18n.Language) (*storage.LearningPathRecord, error) {
	wrap := domerrors.NewWrapper(ModuleName, "get")

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, wrap.Wrap(domerrors.NewValidationError("id", "required"), i18n.T(lang, i18n.MsgRecordIDRequired))
	}

	var record *storage.LearningPathRecord
	policy := s.lookupPolicy
	policy.OnRetry = func(attempt int, err error, _ time.Duration) {
		slog.WarnContext(ctx, "Record lookup timed out, retrying",
			"record_id", id,
			"attempt", attempt,
			"error", err)
	}
	err := policy.Do(ctx, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()

		r, err := s.repo.GetRecord(attemptCtx, id)
		if err != nil {
			if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: record lookup after %v", domerrors.ErrTimeout, s.lookupTimeout)
			}
			return err
		}
		record = r
		return nil
	})

	switch {
	case err == nil:
		return record, nil
	case errors.Is(err, domerrors.ErrNotFound):
		slog.DebugContext(ctx, "Record not found", "record_id", id)
		return nil, wrap.Wrap(err, i18n.T(lang, i18n.MsgRecordNotFound))
	case errors.Is(err, domerrors.ErrTimeout):
		return nil, wrap.Wrap(err, i18n.T(lang, i18n.MsgRecordTimeout))
	default:
		return nil, wrap.Wrap(err, i18n.T(lang, i18n.MsgRecordNetworkError))
	}
}

// Top returns the most voted records, newest first among equal votes.
func (s *Service) Top(ctx context.Context, lang i18n.Language) ([]storage.LearningPathRecord, error) {
	records, err := s.repo.ListTopRecords(ctx, TopLimit)
	if err != nil {
		return nil, domerrors.NewWrapper(ModuleName, "top").Wrap(err, i18n.T(lang, i18n.MsgGetRecordsFailed))
	}
	if records == nil {
		records = []storage.LearningPathRecord{}
	}
	return records, nil
}

// Vote adds one vote and returns the new total.
func (s *Service) Vote(ctx context.Context, id string, lang i18n.Language) (int, error) {
	wrap := domerrors.NewWrapper(ModuleName, "vote")

	id = strings.TrimSpace(id)
	if id == "" {
		return 0, wrap.Wrap(domerrors.NewValidationError("recordId", "required"), i18n.T(lang, i18n.MsgRecordIDRequired))
	}

	votes, err := s.repo.IncrementVotes(ctx, id)
	if err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			return 0, wrap.Wrap(err, i18n.T(lang, i18n.MsgRecordNotFound))
		}
		return 0, wrap.Wrap(err, i18n.T(lang, i18n.MsgVoteFailed))
	}
	s.metrics.RecordVote()
	return votes, nil
}
