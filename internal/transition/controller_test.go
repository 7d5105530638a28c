package transition_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/orderboard/internal/board"
	"github.com/vladislavdragonenkov/orderboard/internal/domain"
	"github.com/vladislavdragonenkov/orderboard/internal/transition"
)

type stubDirectory struct {
	mu      sync.Mutex
	err     error
	updates []string
	// block, если задан, удерживает UpdateStatus до закрытия канала.
	block chan struct{}
}

func (s *stubDirectory) List(_ context.Context) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubDirectory) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	s.mu.Lock()
	block := s.block
	err := s.err
	s.updates = append(s.updates, orderID+":"+string(status))
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	return err
}

func (s *stubDirectory) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.updates...)
}

func seededState(orders ...domain.Order) *board.State {
	state := board.NewState()
	state.ApplySnapshot(orders)
	return state
}

func TestController_AdvanceCommitsNextStatus(t *testing.T) {
	t.Parallel()

	directory := &stubDirectory{}
	state := seededState(domain.Order{ID: "10", Status: domain.OrderStatusConfirmed})
	controller := transition.NewController(directory, state, transition.Frontline())

	if err := controller.Advance(context.Background(), "10"); err != nil {
		t.Fatalf("advance: %v", err)
	}

	order, ok := state.Get("10")
	if !ok || order.Status != domain.OrderStatusPreparing {
		t.Fatalf("status = %q, want preparing", order.Status)
	}
	if got := directory.calls(); len(got) != 1 || got[0] != "10:preparing" {
		t.Fatalf("directory calls = %v, want single preparing update", got)
	}
}

func TestController_AdvanceTerminalIsNoop(t *testing.T) {
	t.Parallel()

	directory := &stubDirectory{}
	state := seededState(domain.Order{ID: "10", Status: domain.OrderStatusCompleted})
	controller := transition.NewController(directory, state, transition.Frontline())

	// Терминальный статус: успех без сетевого вызова и без смены статуса.
	if err := controller.Advance(context.Background(), "10"); err != nil {
		t.Fatalf("advance of completed order: %v", err)
	}
	if got := directory.calls(); len(got) != 0 {
		t.Fatalf("terminal advance must not call directory, got %v", got)
	}

	order, _ := state.Get("10")
	if order.Status != domain.OrderStatusCompleted {
		t.Fatalf("status = %q, want completed", order.Status)
	}
}

func TestController_RejectedUpdateKeepsStatus(t *testing.T) {
	t.Parallel()

	directory := &stubDirectory{err: errors.New("directory is down")}
	state := seededState(domain.Order{ID: "10", Status: domain.OrderStatusConfirmed})
	controller := transition.NewController(directory, state, transition.Frontline())

	err := controller.Advance(context.Background(), "10")
	if !errors.Is(err, domain.ErrUpdateRejected) {
		t.Fatalf("error %v must wrap ErrUpdateRejected", err)
	}

	// Commit-after-confirm: отказ directory не трогает опубликованный статус.
	order, _ := state.Get("10")
	if order.Status != domain.OrderStatusConfirmed {
		t.Fatalf("status = %q, want confirmed after rejected update", order.Status)
	}

	// Заказ остаётся переходимым: повторный клик после восстановления проходит.
	directory.mu.Lock()
	directory.err = nil
	directory.mu.Unlock()
	if err := controller.Advance(context.Background(), "10"); err != nil {
		t.Fatalf("advance after recovery: %v", err)
	}
}

func TestController_DuplicateTransitionRejected(t *testing.T) {
	t.Parallel()

	directory := &stubDirectory{block: make(chan struct{})}
	state := seededState(domain.Order{ID: "10", Status: domain.OrderStatusConfirmed})
	controller := transition.NewController(directory, state, transition.Frontline())

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- controller.Advance(context.Background(), "10")
	}()

	// Дожидаемся, пока первый переход реально уйдёт в directory.
	deadline := time.After(time.Second)
	for len(directory.calls()) == 0 {
		select {
		case <-deadline:
			t.Fatal("first transition never reached directory")
		case <-time.After(time.Millisecond):
		}
	}

	// Дубликат по тому же заказу отвергается guard-ом без второго запроса.
	if err := controller.Advance(context.Background(), "10"); !errors.Is(err, domain.ErrTransitionInFlight) {
		t.Fatalf("expected ErrTransitionInFlight, got %v", err)
	}

	close(directory.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first advance: %v", err)
	}
	if got := directory.calls(); len(got) != 1 {
		t.Fatalf("expected exactly one directory update, got %v", got)
	}
}

func TestController_IndependentOrdersNotBlocked(t *testing.T) {
	t.Parallel()

	directory := &stubDirectory{block: make(chan struct{})}
	state := seededState(
		domain.Order{ID: "10", Status: domain.OrderStatusConfirmed},
		domain.Order{ID: "11", Status: domain.OrderStatusPreparing},
	)
	controller := transition.NewController(directory, state, transition.Frontline())

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- controller.Advance(context.Background(), "10")
	}()

	deadline := time.After(time.Second)
	for len(directory.calls()) == 0 {
		select {
		case <-deadline:
			t.Fatal("first transition never reached directory")
		case <-time.After(time.Millisecond):
		}
	}

	// Guard per-order: переход другого заказа не ждёт первого.
	secondDone := make(chan error, 1)
	go func() {
		secondDone <- controller.Advance(context.Background(), "11")
	}()

	close(directory.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("advance 10: %v", err)
	}
	if err := <-secondDone; err != nil {
		t.Fatalf("advance 11: %v", err)
	}
}

func TestController_PrivilegedSetsArbitraryStatus(t *testing.T) {
	t.Parallel()

	directory := &stubDirectory{}
	state := seededState(domain.Order{ID: "10", Status: domain.OrderStatusCompleted})
	controller := transition.NewController(directory, state, transition.Privileged())

	// Движение назад разрешено привилегированной политике.
	if err := controller.Apply(context.Background(), "10", domain.OrderStatusConfirmed); err != nil {
		t.Fatalf("apply: %v", err)
	}

	order, _ := state.Get("10")
	if order.Status != domain.OrderStatusConfirmed {
		t.Fatalf("status = %q, want confirmed", order.Status)
	}
}

func TestController_PrivilegedSameStatusSkipsCommit(t *testing.T) {
	t.Parallel()

	directory := &stubDirectory{}
	state := seededState(domain.Order{ID: "10", Status: domain.OrderStatusPreparing})
	controller := transition.NewController(directory, state, transition.Privileged())

	if err := controller.Apply(context.Background(), "10", domain.OrderStatusPreparing); err != nil {
		t.Fatalf("apply same status: %v", err)
	}
	if got := directory.calls(); len(got) != 0 {
		t.Fatalf("same-status apply must not call directory, got %v", got)
	}
}

func TestController_UnknownStatusRejected(t *testing.T) {
	t.Parallel()

	directory := &stubDirectory{}
	state := seededState(domain.Order{ID: "10", Status: domain.OrderStatusConfirmed})
	controller := transition.NewController(directory, state, transition.Privileged())

	err := controller.Apply(context.Background(), "10", "shipped")
	if !errors.Is(err, domain.ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
	if got := directory.calls(); len(got) != 0 {
		t.Fatalf("invalid status must not reach directory, got %v", got)
	}
}

func TestController_UnknownOrder(t *testing.T) {
	t.Parallel()

	controller := transition.NewController(&stubDirectory{}, board.NewState(), transition.Frontline())

	if err := controller.Advance(context.Background(), "404"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestPolicyFor(t *testing.T) {
	t.Parallel()

	if got := transition.PolicyFor(domain.RoleAdmin).Role(); got != domain.RoleAdmin {
		t.Fatalf("PolicyFor(admin).Role() = %q", got)
	}
	if got := transition.PolicyFor(domain.RoleAgent).Role(); got != domain.RoleAgent {
		t.Fatalf("PolicyFor(agent).Role() = %q", got)
	}
	// Неизвестная роль получает наименее привилегированную политику.
	if got := transition.PolicyFor("dispatcher").Role(); got != domain.RoleAgent {
		t.Fatalf("PolicyFor(unknown).Role() = %q", got)
	}
}
