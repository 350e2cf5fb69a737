package persistence

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"finance-tracker/internal/core"
	metricsmem "finance-tracker/internal/metrics/memory"
)

// recordingWriter remembers the transaction counts of every saved snapshot.
type recordingWriter struct {
	mu    sync.Mutex
	seen  []int
	block chan struct{}
	err   error
}

func (w *recordingWriter) Save(_ context.Context, snap core.Snapshot) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seen = append(w.seen, len(snap.Transactions))
	return w.err
}

func (w *recordingWriter) counts() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]int(nil), w.seen...)
}

func snapshotWith(n int) core.Snapshot {
	return core.Snapshot{Transactions: make([]core.Transaction, n)}
}

func TestAsyncSaverWritesInEnqueueOrder(t *testing.T) {
	w := &recordingWriter{}
	s := NewAsyncSaver(w, SaverConfig{}, nil, nil)
	defer s.Close()

	for i := 1; i <= 50; i++ {
		if err := s.Enqueue(context.Background(), snapshotWith(i)); err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
	}
	if err := s.Flush(time.Second); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	got := w.counts()
	if len(got) == 0 || got[len(got)-1] != 50 {
		t.Fatalf("saved %v, want the 50-transaction snapshot last", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("saves out of order: %v", got)
		}
	}
	st := s.Stats()
	if st.Queued != 50 || st.Saved+st.Superseded != 50 {
		t.Errorf("stats = %+v, want every snapshot saved or superseded", st)
	}
}

func TestAsyncSaverPersistsLatestSnapshot(t *testing.T) {
	w := &recordingWriter{block: make(chan struct{})}
	collector := metricsmem.NewCollector()
	s := NewAsyncSaver(w, SaverConfig{}, collector, nil)
	ctx := context.Background()

	// The worker picks up the first snapshot and blocks inside Save.
	if err := s.Enqueue(ctx, snapshotWith(1)); err != nil {
		t.Fatalf("Enqueue 1 failed: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for s.Stats().Pending != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	start := time.Now()
	for i := 2; i <= 4; i++ {
		if err := s.Enqueue(ctx, snapshotWith(i)); err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Enqueue blocked for %v behind a slow write", elapsed)
	}

	close(w.block)
	if err := s.Flush(time.Second); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	_ = s.Close()

	if got := w.counts(); !slices.Equal(got, []int{1, 4}) {
		t.Errorf("saved %v, want [1 4]", got)
	}
	if st := s.Stats(); st.Queued != 4 || st.Saved != 2 || st.Superseded != 2 {
		t.Errorf("stats = %+v, want 4 queued, 2 saved, 2 superseded", st)
	}
	if got := collector.Snapshot().SavesDropped; got != 2 {
		t.Errorf("dropped metric = %d, want 2", got)
	}
}

func TestAsyncSaverCountsFailures(t *testing.T) {
	w := &recordingWriter{err: errors.New("disk full")}
	s := NewAsyncSaver(w, SaverConfig{}, nil, nil)

	_ = s.Enqueue(context.Background(), snapshotWith(1))
	if err := s.Flush(time.Second); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	_ = s.Close()

	if st := s.Stats(); st.Failed != 1 || st.Saved != 0 {
		t.Errorf("stats = %+v, want 1 failure", st)
	}
	if len(w.counts()) != 1 {
		t.Errorf("writes = %d, want exactly one attempt", len(w.counts()))
	}
}

func TestAsyncSaverRejectsAfterClose(t *testing.T) {
	s := NewAsyncSaver(&recordingWriter{}, SaverConfig{}, nil, nil)
	_ = s.Close()
	_ = s.Close()

	if err := s.Enqueue(context.Background(), snapshotWith(1)); !errors.Is(err, ErrSaverClosed) {
		t.Fatalf("Enqueue after Close = %v, want ErrSaverClosed", err)
	}
}

func TestAsyncSaverCloseWritesPendingSnapshot(t *testing.T) {
	w := &recordingWriter{}
	s := NewAsyncSaver(w, SaverConfig{}, nil, nil)

	for i := 1; i <= 5; i++ {
		_ = s.Enqueue(context.Background(), snapshotWith(i))
	}
	_ = s.Close()

	got := w.counts()
	if len(got) == 0 || got[len(got)-1] != 5 {
		t.Errorf("saved %v after Close, want the 5-transaction snapshot last", got)
	}
}

func TestAsyncSaverCloseDuringEnqueueLosesNothing(t *testing.T) {
	w := &recordingWriter{}
	s := NewAsyncSaver(w, SaverConfig{}, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 1; i <= 100; i++ {
				if err := s.Enqueue(ctx, snapshotWith(i)); err != nil && !errors.Is(err, ErrSaverClosed) {
					t.Errorf("Enqueue failed: %v", err)
					return
				}
			}
		}()
	}
	time.Sleep(time.Millisecond)
	_ = s.Close()
	wg.Wait()

	if err := s.Flush(50 * time.Millisecond); err != nil {
		t.Fatalf("Flush after Close = %v, want nil", err)
	}
	st := s.Stats()
	if st.Pending != 0 {
		t.Errorf("pending = %d after Close", st.Pending)
	}
	if st.Queued != st.Saved+st.Failed+st.Superseded {
		t.Errorf("stats = %+v, accepted snapshots were lost", st)
	}
}
