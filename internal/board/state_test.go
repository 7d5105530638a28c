package board_test

import (
	"testing"

	"github.com/vladislavdragonenkov/orderboard/internal/board"
	"github.com/vladislavdragonenkov/orderboard/internal/domain"
)

func orders(pairs ...string) []domain.Order {
	// pairs: id, status, id, status, ...
	result := make([]domain.Order, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		result = append(result, domain.Order{
			ID:     pairs[i],
			Status: domain.OrderStatus(pairs[i+1]),
		})
	}
	return result
}

func TestStateApplySnapshotReplacesList(t *testing.T) {
	t.Parallel()

	state := board.NewState()
	state.ApplySnapshot(orders("1", "confirmed", "2", "preparing"))
	state.ApplySnapshot(orders("2", "preparing", "3", "confirmed"))

	got := state.Orders()
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "3" {
		t.Fatalf("unexpected orders after snapshot replace: %+v", got)
	}
	if _, ok := state.Get("1"); ok {
		t.Fatal("order absent from the latest snapshot must not be visible")
	}
}

func TestStateOrdersReturnsCopy(t *testing.T) {
	t.Parallel()

	state := board.NewState()
	state.ApplySnapshot(orders("1", "confirmed"))

	got := state.Orders()
	got[0].Status = domain.OrderStatusCompleted

	fresh, ok := state.Get("1")
	if !ok || fresh.Status != domain.OrderStatusConfirmed {
		t.Fatalf("published state mutated through a returned copy: %+v", fresh)
	}
}

func TestStateSetStatus(t *testing.T) {
	t.Parallel()

	state := board.NewState()
	state.ApplySnapshot(orders("1", "confirmed"))

	if !state.SetStatus("1", domain.OrderStatusPreparing) {
		t.Fatal("SetStatus on a visible order must succeed")
	}
	got, _ := state.Get("1")
	if got.Status != domain.OrderStatusPreparing {
		t.Fatalf("status = %s, want preparing", got.Status)
	}

	if state.SetStatus("ghost", domain.OrderStatusCompleted) {
		t.Fatal("SetStatus on an unknown order must report false")
	}
}

func TestStateSelectedFollowsCommit(t *testing.T) {
	t.Parallel()

	state := board.NewState()
	state.ApplySnapshot(orders("1", "confirmed"))
	state.Select("1")

	state.SetStatus("1", domain.OrderStatusPreparing)

	selected, ok := state.Selected()
	if !ok || selected.Status != domain.OrderStatusPreparing {
		t.Fatalf("open detail view must observe the commit, got %+v ok=%v", selected, ok)
	}

	state.ClearSelection()
	if _, ok := state.Selected(); ok {
		t.Fatal("selection must be cleared")
	}
}

func TestStateSelectedGoneFromSnapshot(t *testing.T) {
	t.Parallel()

	state := board.NewState()
	state.ApplySnapshot(orders("1", "confirmed"))
	state.Select("1")
	state.ApplySnapshot(orders("2", "confirmed"))

	if _, ok := state.Selected(); ok {
		t.Fatal("selection must not resolve after the order rolled off the snapshot")
	}
}
