package workers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAddDuplicate(t *testing.T) {
	p := NewPool()
	require.NoError(t, p.Add("w1", New("echo")))

	err := p.Add("w1", New("echo"))
	assert.ErrorIs(t, err, ErrDuplicateWorker)
	assert.Equal(t, 1, p.Len())
}

func TestPoolLifecycle(t *testing.T) {
	p := NewPool()
	require.NoError(t, p.Add("a", New("echo")))
	require.NoError(t, p.Add("b", New("echo")))
	require.NoError(t, p.StartAll())
	defer p.QuitAll()

	assert.True(t, p.Alive("a"))
	assert.True(t, p.Alive("b"))
	assert.False(t, p.Alive("missing"))
	assert.True(t, p.AnyAlive())
	assert.ElementsMatch(t, []string{"a", "b"}, p.IDs())
}

func TestPoolBroadcastAndRecvAll(t *testing.T) {
	p := NewPool()
	require.NoError(t, p.Add("a", New("echo")))
	require.NoError(t, p.Add("b", New("echo")))
	require.NoError(t, p.StartAll())
	defer p.QuitAll()

	require.NoError(t, p.Broadcast("ping"))

	// Wait until both replies are queued, then drain without waiting.
	require.True(t, p.Poll("a", 2*time.Second))
	require.True(t, p.Poll("b", 2*time.Second))

	got := p.RecvAll(0)
	assert.Len(t, got["a"], 1)
	assert.Len(t, got["b"], 1)
}

func TestPoolSendRecv(t *testing.T) {
	p := NewPool()
	require.NoError(t, p.Add("w", New("echo")))
	require.NoError(t, p.StartAll())
	defer p.QuitAll()

	require.NoError(t, p.Send("w", "direct"))

	var got string
	require.NoError(t, p.Recv("w", &got))
	assert.Equal(t, "echo:direct", got)

	err := p.Send("nobody", "lost")
	assert.Error(t, err)
}

func TestPoolQuitRemoves(t *testing.T) {
	p := NewPool()
	require.NoError(t, p.Add("w", New("echo")))
	require.NoError(t, p.StartAll())

	require.NoError(t, p.Quit("w"))
	assert.False(t, p.Contains("w"))
	assert.Equal(t, 0, p.Len())

	// Quitting an unknown identifier is a no-op.
	assert.NoError(t, p.Quit("w"))
}

func TestPoolQuitAll(t *testing.T) {
	p := NewPool()
	require.NoError(t, p.Add("a", New("echo")))
	require.NoError(t, p.Add("b", New("echo")))
	require.NoError(t, p.StartAll())

	p.QuitAll()
	assert.False(t, p.AnyAlive())
	assert.Equal(t, 0, p.Len())
}
