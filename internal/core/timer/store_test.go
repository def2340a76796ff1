package timer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/countdown/internal/testutil"
)

var testKeys = Keys{Timers: "timers", History: "history"}

func newTestStore(t *testing.T) (*Store, *testutil.FaultyKV) {
	t.Helper()

	backend := testutil.NewFaultyKV()
	n := 0
	nop := zerolog.Nop()
	store := NewStore(backend, StoreOptions{
		Keys: testKeys,
		IDs: IDFunc(func() (string, error) {
			n++
			return fmt.Sprintf("id-%d", n), nil
		}),
		Logger: &nop,
		Now:    func() time.Time { return fixedNow },
	})
	return store, backend
}

func TestStore_LoadTimers_Empty(t *testing.T) {
	store, _ := newTestStore(t)

	timers, err := store.LoadTimers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, timers)
}

func TestStore_AddTimer(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	tm, err := store.AddTimer(ctx, "Tea", 5, "Kitchen")
	require.NoError(t, err)
	assert.Equal(t, Timer{ID: "id-1", Name: "Tea", Category: "Kitchen", Duration: 5, Remaining: 5}, tm)

	assert.Equal(t,
		`[{"id":"id-1","name":"Tea","category":"Kitchen","duration":5,"remaining":5,"running":false}]`,
		backend.MustGet("timers"))

	loaded, err := store.LoadTimers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Timer{tm}, loaded)
}

func TestStore_AddTimer_Validation(t *testing.T) {
	tests := []struct {
		name       string
		timerName  string
		duration   int
		category   string
		wantFields []string
	}{
		{name: "empty name", timerName: "", duration: 10, category: "X", wantFields: []string{"name"}},
		{name: "blank name", timerName: "   ", duration: 10, category: "X", wantFields: []string{"name"}},
		{name: "zero duration", timerName: "a", duration: 0, category: "X", wantFields: []string{"duration"}},
		{name: "negative duration", timerName: "a", duration: -3, category: "X", wantFields: []string{"duration"}},
		{name: "empty category", timerName: "a", duration: 1, category: "", wantFields: []string{"category"}},
		{name: "everything", timerName: "", duration: 0, category: "", wantFields: []string{"name", "duration", "category"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, backend := newTestStore(t)

			_, err := store.AddTimer(ctx, "Existing", 30, "X")
			require.NoError(t, err)
			before := backend.MustGet("timers")

			_, err = store.AddTimer(ctx, tt.timerName, tt.duration, tt.category)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			require.Len(t, fieldErrs, len(tt.wantFields))
			for i, field := range tt.wantFields {
				assert.Equal(t, field, fieldErrs[i].Field)
			}

			assert.Equal(t, before, backend.MustGet("timers"), "storage unchanged")
			loaded, err := store.LoadTimers(ctx)
			require.NoError(t, err)
			assert.Len(t, loaded, 1)
		})
	}
}

func TestStore_AddTimer_RegeneratesCollidingID(t *testing.T) {
	ctx := context.Background()
	nop := zerolog.Nop()
	ids := []string{"same", "same", "other"}
	store := NewStore(testutil.NewFaultyKV(), StoreOptions{
		Logger: &nop,
		IDs: IDFunc(func() (string, error) {
			id := ids[0]
			ids = ids[1:]
			return id, nil
		}),
	})

	first, err := store.AddTimer(ctx, "a", 1, "c")
	require.NoError(t, err)
	second, err := store.AddTimer(ctx, "b", 1, "c")
	require.NoError(t, err)

	assert.Equal(t, "same", first.ID)
	assert.Equal(t, "other", second.ID)
}

func TestStore_AddTimer_DefaultIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	nop := zerolog.Nop()
	store := NewStore(testutil.NewFaultyKV(), StoreOptions{Logger: &nop})

	seen := make(map[string]bool)
	for i := range 100 {
		tm, err := store.AddTimer(ctx, fmt.Sprintf("t%d", i), 1, "c")
		require.NoError(t, err)
		assert.False(t, seen[tm.ID], "duplicate id %s", tm.ID)
		seen[tm.ID] = true
	}
}

func TestStore_UpdateTimer(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	tm, err := store.AddTimer(ctx, "Tea", 5, "Kitchen")
	require.NoError(t, err)

	tm.Remaining = 2
	tm.Running = true
	require.NoError(t, store.UpdateTimer(ctx, tm))

	got, err := store.Get(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, tm, got)
}

func TestStore_UpdateTimer_NotFound(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	_, err := store.AddTimer(ctx, "Tea", 5, "Kitchen")
	require.NoError(t, err)
	writes := backend.Sets()

	err = store.UpdateTimer(ctx, Timer{ID: "missing", Name: "x", Duration: 1, Remaining: 1})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, writes, backend.Sets(), "no write for unknown id")
}

func TestStore_UpdateTimer_RejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	tm, err := store.AddTimer(ctx, "Tea", 5, "Kitchen")
	require.NoError(t, err)

	changed := tm
	changed.Duration = 10
	assert.True(t, IsValidation(store.UpdateTimer(ctx, changed)), "duration is immutable")

	over := tm
	over.Remaining = 6
	assert.True(t, IsValidation(store.UpdateTimer(ctx, over)))

	finishedRunning := tm
	finishedRunning.Remaining = 0
	finishedRunning.Running = true
	assert.True(t, IsValidation(store.UpdateTimer(ctx, finishedRunning)))
}

func TestStore_DeleteTimer(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	a, err := store.AddTimer(ctx, "a", 1, "c")
	require.NoError(t, err)
	b, err := store.AddTimer(ctx, "b", 1, "c")
	require.NoError(t, err)

	require.NoError(t, store.DeleteTimer(ctx, a.ID))
	require.ErrorIs(t, store.DeleteTimer(ctx, a.ID), ErrNotFound)

	loaded, err := store.LoadTimers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Timer{b}, loaded)
}

func TestStore_SaveTimers_RoundTripIsByteExact(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	stored := `[{"id":"a","name":"Tea <3","category":"Kitchen","duration":5,"remaining":2,"running":true},` +
		`{"id":"b","name":"Run","category":"","duration":60,"remaining":0,"running":false}]`
	require.NoError(t, backend.Set(ctx, "timers", stored))

	timers, err := store.LoadTimers(ctx)
	require.NoError(t, err)
	require.NoError(t, store.SaveTimers(ctx, timers))

	assert.Equal(t, stored, backend.MustGet("timers"))
}

func TestStore_SaveTimers_InvalidCollectionNotWritten(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	err := store.SaveTimers(ctx, []Timer{{ID: "a", Name: "x", Duration: 0}})
	assert.True(t, IsValidation(err))
	assert.Zero(t, backend.Sets())
}

func TestStore_LoadTimers_Corrupt(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{name: "not json", stored: "{{{"},
		{name: "object instead of array", stored: `{"id":"a"}`},
		{name: "unknown field", stored: `[{"id":"a","name":"x","category":"","duration":5,"remaining":5,"running":false,"extra":1}]`},
		{name: "float duration", stored: `[{"id":"a","name":"x","category":"","duration":5.5,"remaining":5,"running":false}]`},
		{name: "remaining out of range", stored: `[{"id":"a","name":"x","category":"","duration":5,"remaining":9,"running":false}]`},
		{name: "trailing data", stored: `[] []`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, backend := newTestStore(t)
			require.NoError(t, backend.Set(ctx, "timers", tt.stored))

			timers, err := store.LoadTimers(ctx)
			assert.Empty(t, timers)

			var corrupt *StorageCorruptError
			require.ErrorAs(t, err, &corrupt)
			assert.Equal(t, "timers", corrupt.Key)
			assert.Equal(t, tt.stored, backend.MustGet("timers"), "corrupt bytes untouched by reading")
		})
	}
}

func TestStore_CorruptDataIsBackedUpBeforeOverwrite(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)
	require.NoError(t, backend.Set(ctx, "timers", "garbage"))

	_, err := store.LoadTimers(ctx)
	require.True(t, IsCorrupt(err))

	_, err = store.AddTimer(ctx, "Tea", 5, "Kitchen")
	require.NoError(t, err)

	assert.Equal(t, "garbage", backend.MustGet("timers.corrupt.20260314-092653"))

	loaded, err := store.LoadTimers(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Tea", loaded[0].Name)
}

func TestStore_CorruptBytesSurviveFailedBackup(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)
	require.NoError(t, backend.Set(ctx, "timers", "garbage"))

	_, err := store.LoadTimers(ctx)
	require.True(t, IsCorrupt(err))

	backend.FailSets(errors.New("disk full"))
	_, err = store.AddTimer(ctx, "Tea", 5, "Kitchen")

	var werr *StorageWriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "garbage", backend.MustGet("timers"))
}

func TestStore_LoadTimers_ReadError(t *testing.T) {
	store, backend := newTestStore(t)
	backend.FailGets(errors.New("io failure"))

	_, err := store.LoadTimers(context.Background())

	var rerr *StorageReadError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "timers", rerr.Key)
}

func TestStore_WriteFailureKeepsMemoryAndRetries(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	backend.FailSets(errors.New("disk full"))

	tm, err := store.AddTimer(ctx, "Tea", 5, "Kitchen")
	var werr *StorageWriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "Tea", tm.Name)
	assert.True(t, store.Unpersisted())

	loaded, err := store.LoadTimers(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1, "in-memory state is the source of truth")
	assert.Empty(t, backend.MustGet("timers"))

	backend.FailSets(nil)
	_, err = store.AddTimer(ctx, "Coffee", 3, "Kitchen")
	require.NoError(t, err)
	assert.False(t, store.Unpersisted())

	stored, err := DecodeTimers(backend.MustGet("timers"))
	require.NoError(t, err)
	assert.Len(t, stored, 2, "retry wrote the earlier timer too")
}

func TestStore_AppendHistory(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	existing := "[{\"id\":\"old\",\"name\":\"Old\",\"time\":\"2026-01-01 10:00:00\"},\n  {\"time\":\"x\",\"id\":\"older\",\"name\":\"Reordered\"}]"
	require.NoError(t, backend.Set(ctx, "history", existing))

	require.NoError(t, store.AppendHistory(ctx, HistoryEntry{ID: "t-1", Name: "Tea", Time: "2026-03-14 09:26:53"}))

	stored := backend.MustGet("history")
	assert.True(t, strings.HasPrefix(stored, `[{"id":"old","name":"Old","time":"2026-01-01 10:00:00"},{"time":"x","id":"older","name":"Reordered"}`),
		"existing records kept byte-for-byte: %s", stored)

	entries, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Old", entries[0].Name)
	assert.Equal(t, "Reordered", entries[1].Name)
	assert.Equal(t, HistoryEntry{ID: "t-1", Name: "Tea", Time: "2026-03-14 09:26:53"}, entries[2])
}

func TestStore_AppendHistory_WriteFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	backend.FailSets(errors.New("disk full"))
	err := store.AppendHistory(ctx, HistoryEntry{ID: "a", Name: "First", Time: "t1"})
	var werr *StorageWriteError
	require.ErrorAs(t, err, &werr)
	assert.True(t, store.Unpersisted())

	entries, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "pending entry visible")

	backend.FailSets(nil)
	require.NoError(t, store.AppendHistory(ctx, HistoryEntry{ID: "b", Name: "Second", Time: "t2"}))
	assert.False(t, store.Unpersisted())

	entries, err = DecodeHistory(backend.MustGet("history"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "First", entries[0].Name)
	assert.Equal(t, "Second", entries[1].Name)
}

func TestStore_Flush(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	tm, err := store.AddTimer(ctx, "Tea", 5, "Kitchen")
	require.NoError(t, err)

	backend.FailSets(errors.New("disk full"))
	err = store.RecordCompletion(ctx, Completion{ID: tm.ID, Name: "Tea", Time: fixedNow})
	require.Error(t, err)
	require.True(t, store.Unpersisted())

	require.Error(t, store.Flush(ctx), "fault still armed")
	assert.True(t, store.Unpersisted())

	backend.FailSets(nil)
	require.NoError(t, store.Flush(ctx))
	assert.False(t, store.Unpersisted())

	entries, err := DecodeHistory(backend.MustGet("history"))
	require.NoError(t, err)
	assert.Equal(t, []HistoryEntry{{ID: tm.ID, Name: "Tea", Time: "2026-03-14 09:26:53"}}, entries)

	timers, err := DecodeTimers(backend.MustGet("timers"))
	require.NoError(t, err)
	require.Len(t, timers, 1)
	assert.Equal(t, 0, timers[0].Remaining)

	sets := backend.Sets()
	require.NoError(t, store.Flush(ctx))
	assert.Equal(t, sets, backend.Sets(), "nothing pending, nothing written")
}

func TestStore_Backups(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	backups, err := store.Backups(ctx)
	require.NoError(t, err)
	assert.Empty(t, backups)

	require.NoError(t, backend.Set(ctx, "timers", "garbage"))
	require.NoError(t, backend.Set(ctx, "history", "not a log"))
	require.NoError(t, backend.Set(ctx, "unrelated.corrupt.1", "x"))

	_, err = store.LoadTimers(ctx)
	require.True(t, IsCorrupt(err))
	_, err = store.LoadHistory(ctx)
	require.True(t, IsCorrupt(err))

	_, err = store.AddTimer(ctx, "Tea", 5, "Kitchen")
	require.NoError(t, err)
	require.NoError(t, store.AppendHistory(ctx, HistoryEntry{ID: "a", Name: "Tea", Time: "t"}))

	backups, err = store.Backups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"history.corrupt.20260314-092653", "timers.corrupt.20260314-092653"}, backups)
}

func TestStore_AppendHistory_CorruptLogIsBackedUp(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)
	require.NoError(t, backend.Set(ctx, "history", "not a log"))

	_, err := store.LoadHistory(ctx)
	require.True(t, IsCorrupt(err))

	require.NoError(t, store.AppendHistory(ctx, HistoryEntry{ID: "a", Name: "Tea", Time: "t"}))

	assert.Equal(t, "not a log", backend.MustGet("history.corrupt.20260314-092653"))
	entries, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_RecordCompletion(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	tm, err := store.AddTimer(ctx, "Tea", 5, "Kitchen")
	require.NoError(t, err)
	tm.Remaining = 1
	tm.Running = true
	require.NoError(t, store.UpdateTimer(ctx, tm))

	err = store.RecordCompletion(ctx, Completion{ID: tm.ID, Name: tm.Name, Time: fixedNow})
	require.NoError(t, err)

	got, err := store.Get(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Remaining)
	assert.False(t, got.Running)

	entries, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []HistoryEntry{{ID: tm.ID, Name: "Tea", Time: "2026-03-14 09:26:53"}}, entries)
}

func TestStore_RecordCompletion_UnknownTimerStillRecordsHistory(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	err := store.RecordCompletion(ctx, Completion{ID: "gone", Name: "Deleted", Time: fixedNow})
	require.ErrorIs(t, err, ErrNotFound)

	entries, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_GroupByCategory_SharedCategory(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	a, err := store.AddTimer(ctx, "Report", 60, "Work")
	require.NoError(t, err)
	b, err := store.AddTimer(ctx, "Email", 30, "Work")
	require.NoError(t, err)

	b.Remaining = 10
	b.Running = true
	require.NoError(t, store.UpdateTimer(ctx, b))

	timers, err := store.LoadTimers(ctx)
	require.NoError(t, err)

	groups := store.GroupByCategory(timers)
	require.Len(t, groups, 1)
	assert.Equal(t, "Work", groups[0].Category)
	require.Len(t, groups[0].Timers, 2)
	assert.Equal(t, a, groups[0].Timers[0])
	assert.Equal(t, 10, groups[0].Timers[1].Remaining)
	assert.True(t, groups[0].Timers[1].Running)
	assert.False(t, groups[0].Timers[0].Running)
}

func TestScenario_TeaTimer(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	tm, err := store.AddTimer(ctx, "Tea", 5, "Kitchen")
	require.NoError(t, err)
	assert.Equal(t, 5, tm.Remaining)
	assert.False(t, tm.Running)

	engine := NewEngine(tm, WithClock(func() time.Time { return fixedNow }))
	engine.OnComplete(func(c Completion) {
		require.NoError(t, store.RecordCompletion(ctx, c))
	})

	_, err = engine.Start()
	require.NoError(t, err)
	for range 5 {
		engine.Tick()
	}

	snap := engine.Snapshot()
	assert.Equal(t, StateCompleted, snap.State)
	assert.Equal(t, 0, snap.Remaining)

	history, err := store.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Tea", history[0].Name)
}
