package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/couchmesh/core"
	"github.com/hupe1980/couchmesh/internal/testutil"
)

func TestStore_FirstWriteCreatesDocument(t *testing.T) {
	col := testutil.NewFakeCollection()
	store := NewStore(col)
	ctx := context.Background()

	msgs := testutil.NewMessageBuilder().User("hello").Build()
	require.NoError(t, store.AddMessages(ctx, "s1", msgs))

	got, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, msgs, got)
	assert.True(t, col.Has(Key("s1")))
	assert.Equal(t, 1, col.InsertCount())
}

func TestStore_SecondWriteUsesAtomicAppend(t *testing.T) {
	col := testutil.NewFakeCollection()
	store := NewStore(col)
	ctx := context.Background()

	require.NoError(t, store.AddMessages(ctx, "s1", testutil.NewMessageBuilder().User("hi").Build()))
	require.NoError(t, store.AddMessages(ctx, "s1", testutil.NewMessageBuilder().Assistant("hello").Build()))

	got, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.Message{Role: "user", Content: "hi"}, got[0])
	assert.Equal(t, core.Message{Role: "assistant", Content: "hello"}, got[1])
	// One failed probe append, one insert, one successful append.
	assert.Equal(t, 1, col.InsertCount())
	assert.Equal(t, 2, col.AppendCount())
}

func TestStore_OrderPreservedAcrossBatches(t *testing.T) {
	col := testutil.NewFakeCollection()
	store := NewStore(col)
	ctx := context.Background()

	require.NoError(t, store.AddMessages(ctx, "s1", testutil.NewMessageBuilder().User("a").Assistant("b").Build()))
	require.NoError(t, store.AddMessages(ctx, "s1", testutil.NewMessageBuilder().User("c").Build()))

	got, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	var contents []string
	for _, m := range got {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"a", "b", "c"}, contents)
}

func TestStore_MessagesUnknownSessionIsEmpty(t *testing.T) {
	store := NewStore(testutil.NewFakeCollection())

	got, err := store.Messages(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestStore_ClearUnknownSessionIsNoOp(t *testing.T) {
	store := NewStore(testutil.NewFakeCollection())
	assert.NoError(t, store.Clear(context.Background(), "unknown"))
}

func TestStore_ClearRemovesDocument(t *testing.T) {
	col := testutil.NewFakeCollection()
	store := NewStore(col)
	ctx := context.Background()

	require.NoError(t, store.AddMessages(ctx, "s1", testutil.NewMessageBuilder().User("hi").Build()))
	require.NoError(t, store.Clear(ctx, "s1"))

	assert.False(t, col.Has(Key("s1")))
	got, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_NonNotFoundErrorsPropagate(t *testing.T) {
	col := testutil.NewFakeCollection()
	store := NewStore(col)
	ctx := context.Background()

	boom := core.Errorf(core.KindUnavailable, "get", Key("s1"), "node down")
	col.FailNextWith(boom)

	_, err := store.Messages(ctx, "s1")
	assert.ErrorIs(t, err, boom)

	col.FailNextWith(boom)
	err = store.AddMessages(ctx, "s1", testutil.NewMessageBuilder().User("hi").Build())
	assert.ErrorIs(t, err, boom)
}

func TestStore_LostCreateRaceFallsBackToAppend(t *testing.T) {
	col := testutil.NewFakeCollection()
	store := NewStore(col)
	ctx := context.Background()

	// A competing writer (another process) creates the document between the
	// failed append probe and our insert.
	col.BeforeInsert = func() {
		col.BeforeInsert = nil
		other := NewStore(col)
		require.NoError(t, other.AddMessages(ctx, "s1", testutil.NewMessageBuilder().User("first").Build()))
	}

	require.NoError(t, store.AddMessages(ctx, "s1", testutil.NewMessageBuilder().Assistant("second").Build()))

	got, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)
}

func TestStore_EmptySessionIDIsValidationError(t *testing.T) {
	store := NewStore(testutil.NewFakeCollection())
	ctx := context.Background()

	_, err := store.Messages(ctx, "")
	assert.True(t, core.IsValidation(err))
	assert.True(t, core.IsValidation(store.AddMessages(ctx, "", testutil.NewMessageBuilder().User("hi").Build())))
	assert.True(t, core.IsValidation(store.Clear(ctx, "")))
}

func TestStore_EmptyBatchIsNoOp(t *testing.T) {
	col := testutil.NewFakeCollection()
	store := NewStore(col)

	require.NoError(t, store.AddMessages(context.Background(), "s1", nil))
	assert.False(t, col.Has(Key("s1")))
}

func TestKey_Namespacing(t *testing.T) {
	assert.Equal(t, "chat_history::s1", Key("s1"))
}
