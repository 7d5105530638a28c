package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/orderboard/internal/reconcile"
)

type stubPlayer struct {
	mu        sync.Mutex
	err       error
	callCount int
}

func (s *stubPlayer) Play(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callCount++
	return s.err
}

func (s *stubPlayer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

func TestNotifier_LoadPhaseSuppressed(t *testing.T) {
	t.Parallel()

	player := &stubPlayer{}
	notifier := NewNotifier(player)

	notifier.Notify(reconcile.NewIDSet("1", "2"), true)
	notifier.Wait()

	if got := player.calls(); got != 0 {
		t.Fatalf("load phase must not trigger playback, got %d calls", got)
	}
}

func TestNotifier_EmptyNovelNoop(t *testing.T) {
	t.Parallel()

	player := &stubPlayer{}
	notifier := NewNotifier(player)

	notifier.Notify(reconcile.NewIDSet(), false)
	notifier.Notify(nil, false)
	notifier.Wait()

	if got := player.calls(); got != 0 {
		t.Fatalf("empty novelty must not trigger playback, got %d calls", got)
	}
}

func TestNotifier_OneAttemptPerTick(t *testing.T) {
	t.Parallel()

	player := &stubPlayer{}
	notifier := NewNotifier(player)

	// Батч из трёх новых заказов — одна попытка, не три.
	notifier.Notify(reconcile.NewIDSet("1", "2", "3"), false)
	notifier.Wait()

	if got := player.calls(); got != 1 {
		t.Fatalf("expected exactly one playback attempt per tick, got %d", got)
	}
}

func TestNotifier_PlaybackFailureSwallowedAndRetriedNextTick(t *testing.T) {
	t.Parallel()

	player := &stubPlayer{err: errors.New("autoplay blocked")}
	notifier := NewNotifier(player)

	notifier.Notify(reconcile.NewIDSet("1"), false)
	notifier.Wait()

	// Следующий qualifying тик пробует снова, независимо от прошлой ошибки.
	player.mu.Lock()
	player.err = nil
	player.mu.Unlock()

	notifier.Notify(reconcile.NewIDSet("2"), false)
	notifier.Wait()

	if got := player.calls(); got != 2 {
		t.Fatalf("expected 2 independent attempts, got %d", got)
	}
}

func TestNotifier_NilPlayer(t *testing.T) {
	t.Parallel()

	notifier := NewNotifier(nil)
	notifier.Notify(reconcile.NewIDSet("1"), false)
	notifier.Wait()
}
