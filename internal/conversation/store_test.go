package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStoreGetAbsentReturnsDefault(t *testing.T) {
	store := NewMemoryStore()
	st, err := store.Get(context.Background(), "591700")
	require.NoError(t, err)
	assert.Equal(t, State{Sender: "591700"}, st)
	assert.Equal(t, FlowNone, st.Flow())
}

func TestMemoryStorePatchAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Patch(ctx, "591700", Patch{Step: StepAwaitingOrderText, Data: FoodOrder{}})
	require.NoError(t, err)
	st, err := store.Patch(ctx, "591700", Patch{Step: StepAwaitingFulfillmentChoice, Data: FoodOrder{Order: "2 burgers"}})
	require.NoError(t, err)
	assert.Equal(t, FoodOrder{Order: "2 burgers"}, st.Data)

	got, err := store.Get(ctx, "591700")
	require.NoError(t, err)
	assert.Equal(t, st, got)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Clear(ctx, "591700"))
	got, err = store.Get(ctx, "591700")
	require.NoError(t, err)
	assert.Equal(t, State{Sender: "591700"}, got)
	assert.Zero(t, store.Len())
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(WithStateTTL(time.Hour), WithMemoryStoreClock(clock.Now))

	_, err := store.Patch(ctx, "a", Patch{Step: StepAwaitingQuery, Data: LegalCase{}})
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	_, err = store.Patch(ctx, "b", Patch{Step: StepAwaitingQuery, Data: LegalCase{}})
	require.NoError(t, err)

	clock.Advance(45 * time.Minute)
	st, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, FlowNone, st.Flow(), "expired state should read as absent")

	st, err = store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, FlowLegal, st.Flow())

	// Patching an expired entry starts from a fresh state.
	st, err = store.Patch(ctx, "a", Patch{Step: StepAwaitingQuery})
	require.NoError(t, err)
	assert.Equal(t, FlowNone, st.Flow())

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 2, store.Sweep())
	assert.Zero(t, store.Len())
}

func TestMemoryStoreWithoutTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	store := NewMemoryStore(WithMemoryStoreClock(clock.Now))

	_, err := store.Patch(ctx, "a", Patch{Step: StepAwaitingOrderText, Data: FoodOrder{}})
	require.NoError(t, err)
	clock.Advance(365 * 24 * time.Hour)

	st, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, FlowFood, st.Flow())
	assert.Zero(t, store.Sweep())
}

func TestMemoryStoreJanitorSweeps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &fakeClock{now: time.Now()}
	store := NewMemoryStore(WithStateTTL(time.Minute), WithMemoryStoreClock(clock.Now))

	_, err := store.Patch(ctx, "a", Patch{Step: StepAwaitingOrderText, Data: FoodOrder{}})
	require.NoError(t, err)
	clock.Advance(time.Hour)

	store.StartJanitor(ctx, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMemoryStoreStartJanitorDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewMemoryStore(WithStateTTL(time.Minute))

	returned := make(chan struct{})
	go func() {
		store.StartJanitor(ctx, time.Hour)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("StartJanitor blocked the caller")
	}
}

func TestMemoryStoreConcurrentSenders(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := fmt.Sprintf("sender-%d", i%10)
			_, _ = store.Patch(ctx, sender, Patch{Step: StepAwaitingFulfillmentChoice, Data: FoodOrder{Order: "x"}})
			_, _ = store.Get(ctx, sender)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, store.Len())
}
