package domain

import "context"

// OrderDirectory — авторитетный внешний источник заказов.
// Область выборки List (только сегодняшние или все заказы) определяется
// ролью вызывающего на стороне адаптера и непрозрачна для ядра.
type OrderDirectory interface {
	// List возвращает полный snapshot заказов одного poll-тика.
	List(ctx context.Context) ([]Order, error)
	// UpdateStatus фиксирует новый статус заказа в directory.
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error
}

// AlertPlayer воспроизводит оповещение о новых заказах.
// Ошибка воспроизведения никогда не фатальна для poll-цикла.
type AlertPlayer interface {
	Play(ctx context.Context) error
}
