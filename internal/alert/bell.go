// Package alert содержит реализации AlertPlayer — звукового сигнала о новых
// заказах. Сигнал — best-effort: отказ проигрывателя никогда не влияет на
// цикл опроса.
package alert

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/vladislavdragonenkov/orderboard/internal/domain"
)

// BellPlayer пишет терминальный BEL в writer. Самый дешёвый способ озвучить
// прибытие на рабочей станции оператора.
type BellPlayer struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewBellPlayer создаёт проигрыватель поверх writer.
// При nil writer используется os.Stdout.
func NewBellPlayer(writer io.Writer) *BellPlayer {
	if writer == nil {
		writer = os.Stdout
	}
	return &BellPlayer{writer: writer}
}

// Play выдаёт один BEL. Ошибка записи возвращается вызывающему,
// который волен её проглотить.
func (p *BellPlayer) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.writer.Write([]byte{'\a'})
	return err
}

var _ domain.AlertPlayer = (*BellPlayer)(nil)
