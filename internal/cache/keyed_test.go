package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/dash/internal/models"
)

func TestKeyed_CachesPerKey(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	k := NewKeyed(func(ctx context.Context, id int64) ([]string, error) {
		calls.Add(1)
		if id == 1 {
			return []string{"ADMIN"}, nil
		}
		return []string{"USER"}, nil
	})

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() { defer wg.Done(); _, _ = k.Load(context.Background(), 1) }()
		go func() { defer wg.Done(); _, _ = k.Load(context.Background(), 2) }()
	}
	wg.Wait()
	assert.Equal(t, int32(2), calls.Load())

	v, err := k.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN"}, v)

	k.Clear(context.Background(), 1)
	_, err = k.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestKeyed_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	k := NewKeyed(func(ctx context.Context, id int64) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("down")
		}
		return "ok", nil
	})

	_, err := k.Load(context.Background(), 7)
	require.Error(t, err)

	v, err := k.Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestResolveTag(t *testing.T) {
	t.Parallel()

	idx := IndexTags([]models.ActivityTag{{ID: 1, Name: "Work", Color: "#ff0000"}})

	assert.Equal(t, models.ActivityTag{ID: 1, Name: "Work", Color: "#ff0000"}, ResolveTag(1, idx))
	assert.Equal(t, models.ActivityTag{ID: 9, Name: "unknown", Color: "#cccccc"}, ResolveTag(9, idx))
	assert.Equal(t, "unknown", ResolveTag(1, nil).Name)
}

func TestJoinBlocks(t *testing.T) {
	t.Parallel()

	detail := "standup"
	records := []models.ActivityBlockRecord{
		{ID: 10, TagID: 1, StartTime: "09:00", EndTime: "09:15", Detail: &detail},
		{ID: 11, TagID: 2, StartTime: "10:00", EndTime: "11:00"},
	}
	blocks := JoinBlocks(records, IndexTags([]models.ActivityTag{{ID: 1, Name: "Work", Color: "#00ff00"}}))

	require.Len(t, blocks, 2)
	assert.Equal(t, "Work", blocks[0].Tag.Name)
	assert.Equal(t, "standup", blocks[0].Detail)
	assert.Equal(t, "unknown", blocks[1].Tag.Name)
	assert.Equal(t, int64(2), blocks[1].Tag.ID)
	assert.Empty(t, blocks[1].Detail)
}
