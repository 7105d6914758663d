package decorator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/architeacher/workpackages/pkg/decorator"
	"github.com/stretchr/testify/require"
)

type projectValuesQuery struct {
	ViewerID int64
}

type projectValuesResult struct {
	Labels []string
}

type mockCache struct {
	mu     sync.RWMutex
	data   map[int64]projectValuesResult
	getCnt int
	setCnt int
	getErr error
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[int64]projectValuesResult)}
}

func (m *mockCache) Get(_ context.Context, query projectValuesQuery) (projectValuesResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCnt++

	if m.getErr != nil {
		return projectValuesResult{}, false, m.getErr
	}

	result, ok := m.data[query.ViewerID]

	return result, ok, nil
}

func (m *mockCache) Set(_ context.Context, query projectValuesQuery, result projectValuesResult, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setCnt++
	m.data[query.ViewerID] = result

	return nil
}

func (m *mockCache) SetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.setCnt
}

type mockQueryHandler struct {
	mu        sync.Mutex
	callCount int
	result    projectValuesResult
	err       error
}

func (h *mockQueryHandler) Execute(_ context.Context, _ projectValuesQuery) (projectValuesResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.callCount++

	return h.result, h.err
}

func (h *mockQueryHandler) CallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.callCount
}

func TestQueryCachingDecorator(t *testing.T) {
	t.Parallel()

	fresh := projectValuesResult{Labels: []string{"Parent", "-- Child"}}
	cached := projectValuesResult{Labels: []string{"Cached"}}

	cases := []struct {
		name           string
		seed           bool
		enabled        bool
		nilCache       bool
		getErr         error
		handlerErr     error
		expected       projectValuesResult
		expectedCalls  int
		expectedStatus decorator.CacheStatus
		expectSet      bool
	}{
		{
			name:           "serves hit from cache",
			seed:           true,
			enabled:        true,
			expected:       cached,
			expectedCalls:  0,
			expectedStatus: decorator.CacheStatusHit,
		},
		{
			name:           "executes and stores on miss",
			enabled:        true,
			expected:       fresh,
			expectedCalls:  1,
			expectedStatus: decorator.CacheStatusMiss,
			expectSet:      true,
		},
		{
			name:           "bypasses when disabled",
			seed:           true,
			expected:       fresh,
			expectedCalls:  1,
			expectedStatus: decorator.CacheStatusBypass,
		},
		{
			name:           "bypasses nil cache",
			enabled:        true,
			nilCache:       true,
			expected:       fresh,
			expectedCalls:  1,
			expectedStatus: decorator.CacheStatusBypass,
		},
		{
			name:           "falls through on cache read error",
			enabled:        true,
			getErr:         errors.New("keydb unavailable"),
			expected:       fresh,
			expectedCalls:  1,
			expectedStatus: decorator.CacheStatusError,
			expectSet:      true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cache := newMockCache()
			cache.getErr = tc.getErr

			if tc.seed {
				cache.data[7] = cached
			}

			handler := &mockQueryHandler{result: fresh, err: tc.handlerErr}

			var store decorator.Cache[projectValuesQuery, projectValuesResult] = cache
			if tc.nilCache {
				store = nil
			}

			decorated := decorator.NewQueryCachingDecorator[projectValuesQuery, projectValuesResult](
				handler,
				store,
				decorator.CacheConfig{Enabled: tc.enabled, TTL: time.Minute},
			)

			ctx := decorator.WithCacheStatus(context.Background())

			result, err := decorated.Execute(ctx, projectValuesQuery{ViewerID: 7})
			require.NoError(t, err)
			require.Equal(t, tc.expected, result)
			require.Equal(t, tc.expectedCalls, handler.CallCount())
			require.Equal(t, tc.expectedStatus, decorator.GetCacheStatus(ctx))

			if tc.expectSet {
				require.Eventually(t, func() bool { return cache.SetCount() == 1 }, time.Second, 5*time.Millisecond)
			}
		})
	}
}

func TestQueryCachingDecorator_HandlerErrorIsNotCached(t *testing.T) {
	t.Parallel()

	cache := newMockCache()
	expectedErr := errors.New("repository unavailable")

	decorated := decorator.NewQueryCachingDecorator[projectValuesQuery, projectValuesResult](
		&mockQueryHandler{err: expectedErr},
		cache,
		decorator.CacheConfig{Enabled: true, TTL: time.Minute},
	)

	_, err := decorated.Execute(context.Background(), projectValuesQuery{ViewerID: 7})
	require.ErrorIs(t, err, expectedErr)

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 0, cache.SetCount())
}

func TestGetCacheStatus_DefaultsToBypass(t *testing.T) {
	t.Parallel()

	require.Equal(t, decorator.CacheStatusBypass, decorator.GetCacheStatus(context.Background()))
}
