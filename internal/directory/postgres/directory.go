package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/orderboard/internal/domain"
)

const opTimeout = 5 * time.Second

// Directory — PostgreSQL-реализация Order Directory.
type Directory struct {
	db *sql.DB
	// todayOnly ограничивает выборку сегодняшними заказами —
	// рабочий объём операционной смены.
	todayOnly bool
}

// DirectoryOption настраивает Directory.
type DirectoryOption func(*Directory)

// WithTodayScope включает ограничение выборки текущим днём.
func WithTodayScope() DirectoryOption {
	return func(d *Directory) {
		d.todayOnly = true
	}
}

// NewDirectory создаёт directory поверх открытого Store.
func NewDirectory(store *Store, options ...DirectoryOption) *Directory {
	d := &Directory{db: store.DB()}
	for _, option := range options {
		option(d)
	}
	return d
}

// List возвращает полный snapshot заказов: свежие первыми.
func (d *Directory) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT o.id,
		       COALESCE(o.customer_id, ''),
		       COALESCE(c.name, ''),
		       COALESCE(c.phone, ''),
		       o.order_type,
		       COALESCE(o.delivery_address, ''),
		       COALESCE(o.branch, ''),
		       o.status,
		       o.total_price,
		       COALESCE(o.items, ''),
		       o.created_at
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
	`
	if d.todayOnly {
		query += ` WHERE o.created_at::date = CURRENT_DATE`
	}
	query += ` ORDER BY o.created_at DESC, o.id DESC`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		var orderType, status string
		if err := rows.Scan(
			&order.ID, &order.CustomerID, &order.CustomerName, &order.ContactPhone,
			&orderType, &order.DeliveryAddress, &order.Branch,
			&status, &order.TotalPrice, &order.Items, &order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.OrderType = domain.OrderType(orderType)
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

// UpdateStatus меняет статус записи. Проверка статуса дублирует серверную
// валидацию directory-системы, чтобы не выдавать заведомо отвергаемый запрос.
func (d *Directory) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if !domain.KnownStatus(status) {
		return domain.ErrUnknownStatus
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1
		WHERE id = $2
	`, string(status), orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

var _ domain.OrderDirectory = (*Directory)(nil)
