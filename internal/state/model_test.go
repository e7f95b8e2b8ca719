package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferRecord_TerminalIsFinal(t *testing.T) {
	terminals := []TransferStatus{TransferCompleted, TransferFailed, TransferCancelled}
	all := []TransferStatus{TransferPending, TransferActive, TransferCompleted, TransferFailed, TransferCancelled}

	for _, from := range terminals {
		for _, to := range all {
			rec := TransferRecord{Status: from, Size: 10, Transferred: 5}
			assert.False(t, rec.Transition(to), "%v -> %v must be refused", from, to)
			assert.Equal(t, from, rec.Status)
			assert.False(t, rec.Advance(8), "%v must not accept progress", from)
		}
	}
}

func TestTransferRecord_Lifecycle(t *testing.T) {
	rec := TransferRecord{Size: 100}

	assert.False(t, rec.Transition(TransferPending))
	require.True(t, rec.Transition(TransferActive))
	assert.False(t, rec.Transition(TransferActive), "active -> active is not a move")
	require.True(t, rec.Advance(40))
	require.True(t, rec.Transition(TransferCompleted))
	assert.Equal(t, TransferCompleted, rec.Status)
}

func TestTransferRecord_FailRecordsReason(t *testing.T) {
	rec := TransferRecord{}
	require.True(t, rec.Fail(ReasonTooLarge, "101 > 100"))
	assert.Equal(t, TransferFailed, rec.Status)
	assert.Equal(t, ReasonTooLarge, rec.Reason)

	assert.False(t, rec.Fail(ReasonIO, "later"))
	assert.Equal(t, ReasonTooLarge, rec.Reason)
}

func TestTransferRecord_AdvanceIsMonotonicAndCapped(t *testing.T) {
	rec := TransferRecord{Status: TransferActive, Size: 100}

	steps := []struct {
		in   uint64
		want uint64
	}{
		{10, 10},
		{5, 10},
		{10, 10},
		{60, 60},
		{250, 100},
		{90, 100},
	}
	for _, s := range steps {
		rec.Advance(s.in)
		assert.Equal(t, s.want, rec.Transferred, "after Advance(%d)", s.in)
		assert.LessOrEqual(t, rec.Transferred, rec.Size)
	}
}

func TestBuffer_AppendEvictsOldest(t *testing.T) {
	var b Buffer
	for i := 0; i < 5; i++ {
		b.Append(Message{Text: string(rune('a' + i))}, 3)
	}
	require.Len(t, b.Lines, 3)
	assert.Equal(t, "c", b.Lines[0].Text)
	assert.Equal(t, "e", b.Lines[2].Text)
}

func TestBuffer_PrependRespectsLimit(t *testing.T) {
	b := Buffer{Lines: []Message{{Text: "new"}}}
	b.Prepend([]Message{{Text: "old1"}, {Text: "old2"}, {Text: "old3"}}, 3)

	require.Len(t, b.Lines, 3)
	assert.Equal(t, []string{"old2", "old3", "new"}, []string{b.Lines[0].Text, b.Lines[1].Text, b.Lines[2].Text})
}

func TestApp_BufferKeysOrder(t *testing.T) {
	app := New()
	app.Buffer(QueryKey(1, "Bob"), "Bob")
	app.Buffer(ChannelKey(1, "#go"), "#go")
	app.Buffer(StatusKey(1), "libera")
	app.Buffer(ChannelKey(0, "#a"), "#a")

	keys := app.BufferKeys()
	want := []BufferKey{HighlightsKey, ChannelKey(0, "#a"), StatusKey(1), ChannelKey(1, "#go"), QueryKey(1, "bob")}
	assert.Equal(t, want, keys)
}

func TestApp_BufferCreatedOnce(t *testing.T) {
	app := New()
	first := app.Buffer(ChannelKey(1, "#Go"), "#Go")
	second := app.Buffer(ChannelKey(1, "#go"), "#go")
	assert.Same(t, first, second)
	assert.Equal(t, "#Go", second.Title)
}

func TestApp_ForkLeavesOriginalUntouched(t *testing.T) {
	app := New()
	key := ChannelKey(1, "#go")
	app.Servers = append(app.Servers, ServerRecord{ID: 1, Name: "libera", Channels: make([]string, 1, 8)})
	app.Servers[0].Channels[0] = "#go"
	b := app.Buffer(key, "#go")
	b.Lines = make([]Message, 1, 8)
	b.Lines[0] = Message{Text: "first"}
	app.Transfers = append(app.Transfers, TransferRecord{ID: 1, Size: 10})
	app.Ignores["eve"] = true
	before := app.Clone()

	fork := app.Fork()
	fork.Buffers[key].Append(Message{Text: "second"}, 0)
	fork.Buffers[key].Unread = 3
	fork.Servers[0].Channels = append(fork.Servers[0].Channels, "#rust")
	fork.Transfers[0].Advance(5)
	fork.Ignores["mallory"] = true
	fork.Buffer(QueryKey(1, "bob"), "bob")

	assert.Equal(t, before, app)
	again := app.Fork()
	again.Buffers[key].Append(Message{Text: "other"}, 0)
	assert.Equal(t, "second", fork.Buffers[key].Lines[1].Text)
}
