package records

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/uonline/internal/errors"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, nil), db
}

// slowRepo times out the first slowCalls lookups.
type slowRepo struct {
	storage.RecordRepository
	slowCalls int32
	calls     atomic.Int32
	err       error
}

func (r *slowRepo) GetRecord(ctx context.Context, id string) (*storage.LearningPathRecord, error) {
	if r.calls.Add(1) <= r.slowCalls {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	return &storage.LearningPathRecord{ID: id, Major: "数学"}, nil
}

func fastLookups(s *Service) *Service {
	s.lookupTimeout = 20 * time.Millisecond
	s.lookupPolicy = LookupRetryPolicy(3, time.Millisecond)
	return s
}

func TestSave(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	courses := []storage.Course{{Name: " 数据结构 ", Description: "树"}, {Name: "操作系统", Description: "进程"}}

	first, err := svc.Save(ctx, "计算机", courses, i18n.Chinese)
	require.NoError(t, err)
	assert.False(t, first.Existed)

	reordered := []storage.Course{courses[1], {Name: "数据结构", Description: "树"}}
	second, err := svc.Save(ctx, "计算机", reordered, i18n.Chinese)
	require.NoError(t, err)
	assert.True(t, second.Existed)
	assert.Equal(t, first.RecordID, second.RecordID)

	rec, err := svc.Get(ctx, first.RecordID, i18n.Chinese)
	require.NoError(t, err)
	assert.Equal(t, "数据结构", rec.Courses[0].Name)
}

func TestSave_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	for _, tc := range []struct {
		major   string
		courses []storage.Course
	}{
		{"", []storage.Course{{Name: "数据结构"}}},
		{"计算机", nil},
		{"计算机", []storage.Course{{Name: "  "}}},
		{"计算机", []storage.Course{{Name: "A"}}},
		{"计算机", []storage.Course{{Name: " 数 "}}},
		{"计算机", []storage.Course{{Name: "数据结构"}, {Name: strings.Repeat("长", 51)}}},
	} {
		_, err := svc.Save(context.Background(), tc.major, tc.courses, i18n.Chinese)
		require.ErrorIs(t, err, domerrors.ErrInvalidInput)
		assert.Equal(t, "专业名称和课程列表是必需的", domerrors.GetUserMessage(err, ""))
	}
}

func TestSave_NameLengthBounds(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "计算机", []storage.Course{{Name: "AI"}}, i18n.Chinese)
	require.NoError(t, err)
	_, err = svc.Save(ctx, "计算机", []storage.Course{{Name: strings.Repeat("长", 50)}}, i18n.Chinese)
	require.NoError(t, err)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), "00000000-0000-0000-0000-000000000000", i18n.Chinese)
	require.ErrorIs(t, err, domerrors.ErrNotFound)
	assert.Equal(t, "学习路径不存在", domerrors.GetUserMessage(err, ""))

	_, err = svc.Get(context.Background(), " ", i18n.English)
	require.ErrorIs(t, err, domerrors.ErrInvalidInput)
	assert.Equal(t, "Record ID is required", domerrors.GetUserMessage(err, ""))
}

func TestGet_RetriesTimedOutLookups(t *testing.T) {
	t.Parallel()

	repo := &slowRepo{slowCalls: 2}
	svc := fastLookups(NewService(repo, nil))

	rec, err := svc.Get(context.Background(), "abc", i18n.Chinese)
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.ID)
	assert.Equal(t, int32(3), repo.calls.Load())
}

func TestGet_TimeoutAfterThreeAttempts(t *testing.T) {
	t.Parallel()

	repo := &slowRepo{slowCalls: 10}
	svc := fastLookups(NewService(repo, nil))

	_, err := svc.Get(context.Background(), "abc", i18n.Chinese)
	require.ErrorIs(t, err, domerrors.ErrTimeout)
	assert.Equal(t, "网络连接超时，请稍后重试", domerrors.GetUserMessage(err, ""))
	assert.Equal(t, int32(3), repo.calls.Load())
}

func TestGet_OtherErrorsNotRetried(t *testing.T) {
	t.Parallel()

	repo := &slowRepo{err: errors.New("connection refused")}
	svc := fastLookups(NewService(repo, nil))

	_, err := svc.Get(context.Background(), "abc", i18n.Chinese)
	require.Error(t, err)
	assert.Equal(t, "网络连接失败，请稍后重试", domerrors.GetUserMessage(err, ""))
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestVoteAndTop(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Save(ctx, "数学", []storage.Course{{Name: "高等数学", Description: "x"}}, i18n.Chinese)
	require.NoError(t, err)
	b, err := svc.Save(ctx, "物理", []storage.Course{{Name: "力学基础", Description: "x"}}, i18n.Chinese)
	require.NoError(t, err)

	votes, err := svc.Vote(ctx, b.RecordID, i18n.Chinese)
	require.NoError(t, err)
	assert.Equal(t, 1, votes)
	votes, err = svc.Vote(ctx, b.RecordID, i18n.Chinese)
	require.NoError(t, err)
	assert.Equal(t, 2, votes)

	top, err := svc.Top(ctx, i18n.Chinese)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, b.RecordID, top[0].ID)
	assert.Equal(t, a.RecordID, top[1].ID)

	_, err = svc.Vote(ctx, "missing", i18n.English)
	require.ErrorIs(t, err, domerrors.ErrNotFound)
	assert.Equal(t, "Learning path not found", domerrors.GetUserMessage(err, ""))

	_, err = svc.Vote(ctx, "", i18n.Chinese)
	require.ErrorIs(t, err, domerrors.ErrInvalidInput)
}

func TestTop_Empty(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	top, err := svc.Top(context.Background(), i18n.Chinese)
	require.NoError(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)
}
