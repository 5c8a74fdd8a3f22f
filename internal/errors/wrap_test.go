package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapper(t *testing.T) {
	wrapper := NewWrapper("records", "get_record")

	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, wrapper.Wrap(nil, "获取记录失败"))
	})

	t.Run("wraps with module and operation", func(t *testing.T) {
		baseErr := errors.New("database is locked")
		wrapped := wrapper.Wrap(baseErr, "获取记录失败")

		var wrappedErr *WrappedError
		require.ErrorAs(t, wrapped, &wrappedErr)
		assert.Equal(t, "records", wrappedErr.Module)
		assert.Equal(t, "get_record", wrappedErr.Operation)
		assert.Equal(t, "获取记录失败", wrappedErr.UserMessage)
		assert.ErrorIs(t, wrapped, baseErr)
		assert.Equal(t, "records.get_record: database is locked", wrapped.Error())
	})

	t.Run("sentinels survive wrapping", func(t *testing.T) {
		wrapped := wrapper.Wrap(ErrNotFound, "record missing")
		assert.True(t, IsNotFound(wrapped))
	})
}

func TestGetUserMessage(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Empty(t, GetUserMessage(nil, "fallback"))
	})

	t.Run("plain error uses fallback", func(t *testing.T) {
		assert.Equal(t, "服务器内部错误", GetUserMessage(errors.New("boom"), "服务器内部错误"))
	})

	t.Run("message found through outer wrapping", func(t *testing.T) {
		inner := NewWrapper("records", "vote").Wrap(errors.New("boom"), "投票失败")
		outer := fmt.Errorf("handler: %w", inner)
		assert.Equal(t, "投票失败", GetUserMessage(outer, "fallback"))
	})

	t.Run("outermost message wins", func(t *testing.T) {
		inner := NewWrapper("search", "search_all").Wrap(ErrNoResults, "搜索失败")
		outer := NewWrapper("curriculum", "search").Wrap(inner, "未找到课程")
		assert.Equal(t, "未找到课程", GetUserMessage(outer, "fallback"))
	})
}

func TestOrigin(t *testing.T) {
	module, op, ok := Origin(fmt.Errorf("api: %w", NewWrapper("mooc", "search").Wrap(errors.New("boom"), "失败")))
	require.True(t, ok)
	assert.Equal(t, "mooc", module)
	assert.Equal(t, "search", op)

	_, _, ok = Origin(errors.New("plain"))
	assert.False(t, ok)
}
