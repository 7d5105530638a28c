package board

import "github.com/vladislavdragonenkov/orderboard/internal/domain"

// Lane — одна статусная колонка kanban-доски линейного сотрудника.
type Lane struct {
	Status domain.OrderStatus `json:"status"`
	Orders []domain.Order     `json:"orders"`
}

// Lanes раскладывает список заказов ровно по трём статусным колонкам.
// Проекция пересчитывается целиком из последнего snapshot; относительный порядок
// внутри колонки — порядок, возвращённый Order Directory, без пересортировки.
func Lanes(orders []domain.Order) []Lane {
	lanes := make([]Lane, 0, 3)
	for _, status := range domain.Statuses() {
		lane := Lane{Status: status, Orders: []domain.Order{}}
		for _, order := range orders {
			if order.Status == status {
				lane.Orders = append(lane.Orders, order)
			}
		}
		lanes = append(lanes, lane)
	}
	return lanes
}

// CanAdvance сообщает, доступна ли для заказа кнопка перевода в следующий статус.
func CanAdvance(order domain.Order) bool {
	_, ok := order.Status.Next()
	return ok
}

// FilterByStatus применяет опциональный точный фильтр табличного вида.
// Пустой фильтр означает «показать всё»; порядок списка сохраняется.
// Фильтрация — чистый пересчёт по уже полученному списку, без запроса к directory.
func FilterByStatus(orders []domain.Order, status domain.OrderStatus) []domain.Order {
	if status == "" {
		return append([]domain.Order(nil), orders...)
	}

	filtered := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if order.Status == status {
			filtered = append(filtered, order)
		}
	}
	return filtered
}
