package workers

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEntries are the worker bodies the re-executed test binary can run.
var testEntries = map[string]EntryFunc{
	// echo replies to every message with an "echo:" prefix.
	"echo": func(ch *Channel) {
		for {
			var msg string
			if err := ch.Recv(&msg); err != nil {
				return
			}
			ch.Send("echo:" + msg)
		}
	},
	// once sends a single message and exits.
	"once": func(ch *Channel) {
		ch.Send("the-one-message")
	},
	// slow waits before sending, for poll-timeout tests.
	"slow": func(ch *Channel) {
		time.Sleep(150 * time.Millisecond)
		ch.Send("late")
	},
}

func TestMain(m *testing.M) {
	if RunChild(testEntries) {
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestChannelEchoRoundTrip(t *testing.T) {
	ch, err := Spawn("echo")
	require.NoError(t, err)
	defer ch.Quit()

	require.NoError(t, ch.Send("hello"))

	var got string
	require.NoError(t, ch.Recv(&got))
	assert.Equal(t, "echo:hello", got)
}

func TestChannelJSONCodec(t *testing.T) {
	ch, err := Spawn("echo", WithCodec(CodecJSON))
	require.NoError(t, err)
	defer ch.Quit()

	require.NoError(t, ch.Send("ping"))

	var got string
	require.NoError(t, ch.Recv(&got))
	assert.Equal(t, "echo:ping", got)
}

func TestTryRecvKeepsDefault(t *testing.T) {
	ch, err := Spawn("slow")
	require.NoError(t, err)
	defer ch.Quit()

	var got string
	assert.False(t, ch.TryRecv(&got), "no data yet, default must survive")
	assert.Equal(t, "", got)

	require.True(t, ch.Poll(2*time.Second), "worker reply never arrived")
	assert.True(t, ch.TryRecv(&got))
	assert.Equal(t, "late", got)
}

func TestPollDoesNotConsume(t *testing.T) {
	ch, err := Spawn("once")
	require.NoError(t, err)
	defer ch.Quit()

	require.True(t, ch.Poll(2*time.Second))
	assert.True(t, ch.Poll(0), "polled message must stay queued")

	var got string
	require.NoError(t, ch.Recv(&got))
	assert.Equal(t, "the-one-message", got)
}

func TestRecvAfterWorkerExit(t *testing.T) {
	ch, err := Spawn("once")
	require.NoError(t, err)
	defer ch.Quit()

	var got string
	require.NoError(t, ch.Recv(&got))

	err = ch.Recv(&got)
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestQuitIdempotent(t *testing.T) {
	ch, err := Spawn("echo")
	require.NoError(t, err)

	require.NoError(t, ch.Quit())
	require.NoError(t, ch.Quit(), "repeated quit must not fail")

	assert.False(t, ch.Alive())
	assert.Equal(t, StateClosed, ch.State())

	// Channel-level operations on a dead worker are quiet no-ops.
	assert.NoError(t, ch.Send("into the void"))
	var got string
	assert.False(t, ch.TryRecv(&got))
}

func TestStartTwice(t *testing.T) {
	ch, err := Spawn("echo")
	require.NoError(t, err)
	defer ch.Quit()

	pid := ch.cmd.Process.Pid
	require.NoError(t, ch.Start(), "second start must be a no-op")
	assert.Equal(t, pid, ch.cmd.Process.Pid)
}

func TestChannelStates(t *testing.T) {
	ch := New("echo")
	assert.Equal(t, StateCreated, ch.State())

	require.NoError(t, ch.Start())
	assert.Equal(t, StateRunning, ch.State())
	assert.True(t, ch.Alive())

	require.NoError(t, ch.Quit())
	assert.Equal(t, StateClosed, ch.State())
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("framed payload")
	require.NoError(t, writeFrame(&buf, CodecGob, payload))

	typ, got, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, CodecGob, typ)
	assert.Equal(t, payload, got)
}

func TestFrameBadMagic(t *testing.T) {
	raw := []byte{0xDE, 0xAD, Version, byte(CodecGob), 0, 0, 0, 0}
	_, _, err := readFrame(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestFrameBadVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, CodecGob, nil))
	raw := buf.Bytes()
	raw[2] = 0xFF

	_, _, err := readFrame(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrInvalidVersion)
}
