package kafka

import "time"

// EventType определяет тип интеграционного события доски
type EventType string

const (
	// EventTypeOrdersArrived — в snapshot впервые появились новые заказы.
	EventTypeOrdersArrived EventType = "board.orders.arrived"
	// EventTypeStatusChanged — directory подтвердил смену статуса заказа.
	EventTypeStatusChanged EventType = "board.status.changed"
)

// Topics для Kafka
const (
	TopicBoardEvents = "orderboard.events"
)

// BoardEvent представляет интеграционное событие операционной доски
type BoardEvent struct {
	EventType EventType `json:"event_type"`
	OrderID   string    `json:"order_id,omitempty"`
	OrderIDs  []string  `json:"order_ids,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Role      string    `json:"role,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrdersArrivedEvent создает событие о появлении новых заказов
func NewOrdersArrivedEvent(orderIDs []string) *BoardEvent {
	return &BoardEvent{
		EventType: EventTypeOrdersArrived,
		OrderIDs:  orderIDs,
		Timestamp: time.Now(),
	}
}

// NewStatusChangedEvent создает событие о подтверждённой смене статуса
func NewStatusChangedEvent(orderID, from, to, role string) *BoardEvent {
	return &BoardEvent{
		EventType: EventTypeStatusChanged,
		OrderID:   orderID,
		From:      from,
		To:        to,
		Role:      role,
		Timestamp: time.Now(),
	}
}
