package main

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/logger"
	"github.com/garyellow/uonline/internal/mooc"
	"github.com/garyellow/uonline/internal/storage"
)

func TestParseLanguages(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []i18n.Language
	}{
		{"both languages", "zh,en", []i18n.Language{i18n.Chinese, i18n.English}},
		{"single language", "en", []i18n.Language{i18n.English}},
		{"with spaces", " en , zh ", []i18n.Language{i18n.English, i18n.Chinese}},
		{"regional tags", "en-US,zh-TW", []i18n.Language{i18n.English, i18n.Chinese}},
		{"duplicates", "zh,zh-CN,en,en-GB", []i18n.Language{i18n.Chinese, i18n.English}},
		{"empty string", "", []i18n.Language{}},
		{"only commas", ",,,", []i18n.Language{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseLanguages(tt.input)
			assert.ElementsMatch(t, tt.want, got)
			assert.Len(t, got, len(tt.want))
		})
	}
}

func TestCollectTargets(t *testing.T) {
	records := []storage.LearningPathRecord{
		{Major: "软件工程", Courses: []storage.Course{{Name: "软件测试"}, {Name: " 数据结构 "}, {Name: ""}}},
		{Major: "软件工程", Courses: []storage.Course{{Name: "软件测试"}}},
		{Major: "数据科学", Courses: []storage.Course{{Name: "数据结构"}}},
	}

	got := collectTargets(records, []i18n.Language{i18n.Chinese, i18n.English})

	assert.Equal(t, []target{
		{Course: "软件测试", Major: "软件工程", Lang: i18n.Chinese},
		{Course: "数据结构", Major: "软件工程", Lang: i18n.Chinese},
		{Course: "数据结构", Major: "数据科学", Lang: i18n.Chinese},
		{Course: "软件测试", Major: "软件工程", Lang: i18n.English},
		{Course: "数据结构", Major: "软件工程", Lang: i18n.English},
		{Course: "数据结构", Major: "数据科学", Lang: i18n.English},
	}, got)
}

type fakeSearcher struct {
	mu     sync.Mutex
	calls  []string
	cached map[string]bool
	fail   map[string]bool
}

func (f *fakeSearcher) Search(_ context.Context, course, _ string, _ i18n.Language) (*mooc.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, course)
	f.mu.Unlock()

	if f.fail[course] {
		return nil, errors.New("search failed")
	}
	return &mooc.Result{CourseName: course, FromCache: f.cached[course]}, nil
}

func TestWarm(t *testing.T) {
	s := &fakeSearcher{
		cached: map[string]bool{"软件测试": true},
		fail:   map[string]bool{"编译原理": true},
	}
	targets := []target{
		{Course: "软件测试", Major: "软件工程", Lang: i18n.Chinese},
		{Course: "数据结构", Major: "软件工程", Lang: i18n.Chinese},
		{Course: "编译原理", Major: "软件工程", Lang: i18n.Chinese},
		{Course: "操作系统", Major: "软件工程", Lang: i18n.Chinese},
	}

	stats := warm(context.Background(), s, targets, 2, logger.NewWithWriter("error", io.Discard))

	assert.Len(t, s.calls, 4)
	assert.Equal(t, int64(2), stats.searched)
	assert.Equal(t, int64(1), stats.cached)
	assert.Equal(t, int64(1), stats.failed)
}

func TestWarm_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &fakeSearcher{}
	stats := warm(ctx, s, []target{{Course: "软件测试", Lang: i18n.Chinese}}, 1, logger.NewWithWriter("error", io.Discard))

	assert.Empty(t, s.calls)
	assert.Equal(t, int64(0), stats.searched)
}
