package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/device"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/eeg"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/frame"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/recording"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays canned reads and records writes.
type scriptedSource struct {
	mu       sync.Mutex
	reads    [][]byte
	readErr  error
	writeErr map[byte]error
	writes   []byte
}

func (s *scriptedSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reads) == 0 {
		return 0, s.readErr
	}
	n := copy(p, s.reads[0])
	if n == len(s.reads[0]) {
		s.reads = s.reads[1:]
	} else {
		s.reads[0] = s.reads[0][n:]
	}
	return n, nil
}

func (s *scriptedSource) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, p...)
	for _, c := range p {
		if err := s.writeErr[c]; err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (s *scriptedSource) Writes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.writes...)
}

func frames(from, n int) []byte {
	var out []byte
	for i := from; i < from+n; i++ {
		out = append(out, frame.Encode(uint8(i), [eeg.Channels]int32{int32(i)})...)
	}
	return out
}

func TestCollectDurationWithSimulator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.txt")
	sim := device.NewSimulator(device.WithJunk(0.1))
	rec := NewRecorder(sim)

	res, err := rec.Collect(context.Background(), Episode{Path: path, Duration: 150 * time.Millisecond, Label: "Fixation Cross"})
	require.NoError(t, err)

	assert.Equal(t, ReasonDuration, res.Reason)
	assert.True(t, strings.HasSuffix(res.Path, ".csv"))
	assert.Greater(t, res.Samples, 10)
	assert.Equal(t, []byte{frame.StartCommand, frame.StopCommand}, sim.Commands())
	assert.Equal(t, Idle, rec.State())

	log, err := recording.Load(res.Path)
	require.NoError(t, err)
	assert.Equal(t, res.Samples, log.Len())
	require.Len(t, log.Markers, 1)
	assert.Equal(t, eeg.Marker{Index: 0, Label: "Fixation Cross"}, log.Markers[0])
}

func TestSequentialEpisodesBuildOneRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.csv")
	src := &scriptedSource{}
	rec := NewRecorder(src)

	for k, label := range []string{"Fixation Cross", "Stimulus_1", "Stimulus_2"} {
		src.mu.Lock()
		src.reads = [][]byte{frames(k*10, 4), append([]byte{0x01, 0x02}, frames(k*10+4, 6)...)}
		src.mu.Unlock()

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			defer cancel()
			for {
				src.mu.Lock()
				drained := len(src.reads) == 0
				src.mu.Unlock()
				if drained {
					time.Sleep(5 * time.Millisecond)
					return
				}
				time.Sleep(time.Millisecond)
			}
		}()
		res, err := rec.Collect(ctx, Episode{Path: path, Label: label})
		require.NoError(t, err)
		assert.Equal(t, ReasonCancel, res.Reason)
		assert.Equal(t, 10, res.Samples)
		assert.Equal(t, uint64(2), res.Discarded)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "sample_index"))

	log, err := recording.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, log.Len())
	assert.Equal(t, []eeg.Marker{
		{Index: 0, Label: "Fixation Cross"},
		{Index: 10, Label: "Stimulus_1"},
		{Index: 20, Label: "Stimulus_2"},
	}, log.Markers)

	st := rec.Stats()
	assert.Equal(t, uint64(3), st.Episodes)
	assert.Equal(t, uint64(30), st.Samples)
	assert.Equal(t, uint64(6), st.Discarded)
	assert.Equal(t, "bsbsbs", string(src.Writes()))
}

func TestCollectBusyAndStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busy.csv")
	sim := device.NewSimulator()
	rec := NewRecorder(sim, WithPollInterval(2*time.Millisecond))

	done := make(chan SegmentResult)
	go func() {
		res, err := rec.Collect(context.Background(), Episode{Path: path, Label: "open-ended"})
		assert.NoError(t, err)
		done <- res
	}()

	require.Eventually(t, func() bool { return rec.State() == Collecting }, time.Second, time.Millisecond)

	_, err := rec.Collect(context.Background(), Episode{Path: path})
	assert.ErrorIs(t, err, ErrBusy)

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, rec.Stop())

	select {
	case res := <-done:
		assert.Equal(t, ReasonStop, res.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("collect did not stop")
	}
	assert.Equal(t, Idle, rec.State())
	assert.False(t, sim.Running())
}

func TestStopWhenIdleSendsStopByte(t *testing.T) {
	src := &scriptedSource{}
	rec := NewRecorder(src)

	require.NoError(t, rec.Stop())
	assert.Equal(t, []byte{frame.StopCommand}, src.Writes())
}

func TestCollectReadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fail.csv")
	src := &scriptedSource{
		reads:   [][]byte{frames(0, 3)},
		readErr: errors.New("cable pulled"),
	}
	rec := NewRecorder(src)

	res, err := rec.Collect(context.Background(), Episode{Path: path, Label: "x"})
	assert.ErrorIs(t, err, ErrDevice)
	assert.Equal(t, ReasonError, res.Reason)
	assert.Equal(t, 3, res.Samples)
	assert.Equal(t, "bs", string(src.Writes()), "stop byte still attempted")

	log, err := recording.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, log.Len(), "rows before the failure are durable")
}

func TestCollectStartFailure(t *testing.T) {
	src := &scriptedSource{writeErr: map[byte]error{frame.StartCommand: errors.New("port gone")}}
	rec := NewRecorder(src)

	res, err := rec.Collect(context.Background(), Episode{Path: filepath.Join(t.TempDir(), "a.csv")})
	assert.ErrorIs(t, err, ErrDevice)
	assert.Equal(t, ReasonError, res.Reason)
	assert.Equal(t, "bs", string(src.Writes()))
	assert.Equal(t, Idle, rec.State())
}

func TestCollectStopFailureIsReported(t *testing.T) {
	src := &scriptedSource{writeErr: map[byte]error{frame.StopCommand: errors.New("port gone")}}
	rec := NewRecorder(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := rec.Collect(ctx, Episode{Path: filepath.Join(t.TempDir(), "a.csv")})
	assert.ErrorIs(t, err, ErrDevice)
	assert.Equal(t, ReasonError, res.Reason)
}

func TestCollectUsesClock(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.Local)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(10 * time.Millisecond)
		return now
	}

	src := &scriptedSource{reads: [][]byte{frames(0, 2)}}
	rec := NewRecorder(src, WithClock(clock))

	res, err := rec.Collect(context.Background(), Episode{Path: filepath.Join(t.TempDir(), "c.csv"), Duration: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, ReasonDuration, res.Reason)
	assert.Equal(t, 2, res.Samples)
	assert.True(t, res.Ended.After(res.Started))
}

func TestStopCancelsScope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scope.csv")
	src := &scriptedSource{}
	rec := NewRecorder(src)

	ctx, done := rec.Scope(context.Background())
	defer done()
	require.NoError(t, rec.Stop())
	require.Error(t, ctx.Err())
	assert.True(t, Stopped(ctx))

	res, err := rec.Collect(ctx, Episode{Path: path, Label: "late", Duration: time.Second})
	require.NoError(t, err)
	assert.Equal(t, ReasonStop, res.Reason)

	other, cancel := rec.Scope(context.Background())
	cancel()
	assert.False(t, Stopped(other))
}
