package group

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byLength(s string) (int, bool) { return len(s), true }

func TestBy_GroupsByKeyInFirstSeenOrder(t *testing.T) {
	items := []string{"aa", "b", "cc", "ddd", "e", "fff", "g"}

	got := By(items, byLength)

	assert.Equal(t, [][]string{
		{"aa", "cc"},
		{"b", "e", "g"},
		{"ddd", "fff"},
	}, got)
}

func TestBy_DropsSingletons(t *testing.T) {
	got := By([]string{"a", "bb", "ccc"}, byLength)
	assert.Empty(t, got)
}

func TestBy_EmptyInput(t *testing.T) {
	assert.Empty(t, By([]string{}, byLength))
	assert.Empty(t, By[string, int](nil, byLength))
}

func TestBy_ExcludesItemsWithoutKey(t *testing.T) {
	key := func(s string) (string, bool) {
		if strings.HasPrefix(s, "x") {
			return "", false
		}
		return s[:1], true
	}

	got := By([]string{"a1", "x1", "a2", "x2", "b1"}, key)

	assert.Equal(t, [][]string{{"a1", "a2"}}, got)
}

func TestBy_ZeroKeyIsAValidKey(t *testing.T) {
	// A zero value is a real key, unlike "no key".
	got := By([]int{0, 5, 0}, func(n int) (int, bool) { return n, true })
	assert.Equal(t, [][]int{{0, 0}}, got)
}

func TestByParallel_MatchesBy(t *testing.T) {
	items := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		items = append(items, strings.Repeat("x", i%7))
	}

	for _, workers := range []int{0, 1, 3, 64, 1000} {
		got, err := ByParallel(context.Background(), items, byLength, workers)
		require.NoError(t, err)
		assert.Equal(t, By(items, byLength), got, "workers=%d", workers)
	}
}

func TestByParallel_CallsKeyOncePerItem(t *testing.T) {
	var calls atomic.Int64
	key := func(n int) (int, bool) {
		calls.Add(1)
		return n % 3, true
	}
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	_, err := ByParallel(context.Background(), items, key, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 50, calls.Load())
}

func TestByParallel_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := ByParallel(ctx, []string{"a", "b", "c"}, byLength, 2)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, got)
}

func TestByParallel_EmptyInput(t *testing.T) {
	got, err := ByParallel(context.Background(), []string{}, byLength, 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestByParallel_RespectsWorkerLimit(t *testing.T) {
	var running, peak atomic.Int64
	key := func(n int) (int, bool) {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return n % 2, true
	}
	items := make([]int, 40)
	for i := range items {
		items[i] = i
	}

	got, err := ByParallel(context.Background(), items, key, 3)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.LessOrEqual(t, peak.Load(), int64(3))
}
