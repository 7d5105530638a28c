package alert_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/vladislavdragonenkov/orderboard/internal/alert"
)

func TestBellPlayer_WritesBel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	player := alert.NewBellPlayer(&buf)

	if err := player.Play(context.Background()); err != nil {
		t.Fatalf("play: %v", err)
	}
	if got := buf.Bytes(); len(got) != 1 || got[0] != '\a' {
		t.Fatalf("wrote %q, want single BEL", got)
	}
}

func TestBellPlayer_CancelledContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	player := alert.NewBellPlayer(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := player.Play(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if buf.Len() != 0 {
		t.Fatal("cancelled play must not write")
	}
}

func TestBellPlayer_NilWriterDefaultsToStdout(t *testing.T) {
	t.Parallel()

	// Конструктор не должен оставить nil writer.
	player := alert.NewBellPlayer(nil)
	if player == nil {
		t.Fatal("nil player")
	}
}
