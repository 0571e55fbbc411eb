package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/five82/looper/internal/errors"
	"github.com/five82/looper/internal/loop"
)

func TestRunSearchesEveryPath(t *testing.T) {
	paths := make([]string, 9)
	for i := range paths {
		paths[i] = fmt.Sprintf("clip%d.json", i)
	}

	var built atomic.Int32
	newSearch := func() SearchFunc {
		built.Add(1)
		return func(_ context.Context, path string) (string, loop.Result, error) {
			if path == "clip4.json" {
				return "", loop.Result{}, errors.New("bad clip")
			}
			return path, loop.Result{Success: path != "clip7.json"}, nil
		}
	}

	var got []Result
	var last Progress
	err := Run(context.Background(), paths, 3, newSearch, func(r Result, p Progress) {
		got = append(got, r)
		last = p
	})
	require.NoError(t, err)

	assert.EqualValues(t, 3, built.Load())
	require.Len(t, got, len(paths))
	sort.Slice(got, func(i, j int) bool { return got[i].Idx < got[j].Idx })
	for i, r := range got {
		assert.Equal(t, paths[i], r.Path)
	}
	assert.Error(t, got[4].Err)
	assert.Equal(t, "clip2.json", got[2].Clip)

	assert.Equal(t, Progress{FilesComplete: 9, FilesTotal: 9, Succeeded: 7}, last)
	assert.Equal(t, 100.0, last.Percent())
}

func TestRunCapsWorkersAtPathCount(t *testing.T) {
	var built int
	newSearch := func() SearchFunc {
		built++
		return func(context.Context, string) (string, loop.Result, error) { return "", loop.Result{}, nil }
	}

	require.NoError(t, Run(context.Background(), []string{"a", "b"}, 8, newSearch, nil))
	assert.Equal(t, 2, built)

	built = 0
	require.NoError(t, Run(context.Background(), nil, 4, newSearch, nil))
	assert.Zero(t, built)
}

func TestRunWorkersOwnTheirSearch(t *testing.T) {
	// Each search function must only ever run on one goroutine at a time.
	var mu sync.Mutex
	active := map[int]bool{}
	id := 0

	newSearch := func() SearchFunc {
		id++
		me := id
		return func(context.Context, string) (string, loop.Result, error) {
			mu.Lock()
			assert.False(t, active[me], "search %d used concurrently", me)
			active[me] = true
			mu.Unlock()

			mu.Lock()
			active[me] = false
			mu.Unlock()
			return "", loop.Result{}, nil
		}
	}

	paths := make([]string, 50)
	require.NoError(t, Run(context.Background(), paths, 4, newSearch, nil))
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	paths := make([]string, 20)

	var calls atomic.Int32
	newSearch := func() SearchFunc {
		return func(context.Context, string) (string, loop.Result, error) {
			if calls.Add(1) == 2 {
				cancel()
			}
			return "", loop.Result{}, nil
		}
	}

	err := Run(ctx, paths, 1, newSearch, nil)
	assert.True(t, coreerrors.IsCancelled(err))
	assert.Less(t, calls.Load(), int32(len(paths)))
}

func TestProgressPercentEmpty(t *testing.T) {
	assert.Zero(t, Progress{}.Percent())
}
