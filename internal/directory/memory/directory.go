// Package memory содержит in-memory реализацию Order Directory для локальной
// разработки, демонстрации и тестов.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/orderboard/internal/domain"
)

// Directory — in-memory Order Directory. Самодостаточный источник записей:
// List возвращает полный snapshot, как это делает настоящая directory-система.
type Directory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewDirectory возвращает пустую in-memory directory.
func NewDirectory() *Directory {
	return &Directory{
		items: make(map[string]domain.Order),
	}
}

// Seed загружает стартовый набор заказов, замещая существующие записи.
func (d *Directory) Seed(orders []domain.Order) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, order := range orders {
		d.items[order.ID] = order
	}
}

// Put добавляет или перезаписывает одну запись. Новая запись станет видимой
// доске на следующем poll-тике, не раньше.
func (d *Directory) Put(order domain.Order) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items[order.ID] = order
}

// List возвращает полный snapshot: свежие заказы первыми, порядок детерминирован.
func (d *Directory) List(_ context.Context) ([]domain.Order, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.Order, 0, len(d.items))
	for _, order := range d.items {
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

// UpdateStatus меняет статус существующей записи.
func (d *Directory) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	if !domain.KnownStatus(status) {
		return domain.ErrUnknownStatus
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	order, ok := d.items[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	d.items[orderID] = order
	return nil
}

var _ domain.OrderDirectory = (*Directory)(nil)
