package domain

import "time"

// OrderStatus описывает жизненный цикл заказа на операционной доске.
type OrderStatus string

const (
	// OrderStatusConfirmed — заказ подтверждён и ждёт начала приготовления.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusPreparing — заказ готовится на кухне.
	OrderStatusPreparing OrderStatus = "preparing"
	// OrderStatusCompleted — заказ готов; терминальный статус.
	OrderStatusCompleted OrderStatus = "completed"
)

// statusSequence задаёт фиксированный порядок forward-only переходов.
var statusSequence = []OrderStatus{
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusCompleted,
}

// Statuses возвращает все статусы в порядке жизненного цикла.
func Statuses() []OrderStatus {
	return append([]OrderStatus(nil), statusSequence...)
}

// KnownStatus сообщает, входит ли значение в множество допустимых статусов.
func KnownStatus(s OrderStatus) bool {
	for _, known := range statusSequence {
		if s == known {
			return true
		}
	}
	return false
}

// Next возвращает следующий статус последовательности.
// Для терминального или неизвестного статуса возвращает ok=false.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, known := range statusSequence {
		if s == known && i+1 < len(statusSequence) {
			return statusSequence[i+1], true
		}
	}
	return "", false
}

// Terminal сообщает, является ли статус терминальным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted
}

// OrderType определяет способ получения заказа.
type OrderType string

const (
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
)

// Role различает привилегированный и линейный доступ к доске.
// Значение приходит из контекста аутентификации и этим ядром не вычисляется.
type Role string

const (
	// RoleAgent — линейный сотрудник: kanban-доска, forward-only переходы.
	RoleAgent Role = "agent"
	// RoleAdmin — привилегированный доступ: табличный вид, прямая установка статуса.
	RoleAdmin Role = "admin"
)

// LineItem — одна позиция заказа из сериализованного payload.
type LineItem struct {
	Name          string   `json:"name"`
	Quantity      int      `json:"quantity"`
	Modifications []string `json:"modifications,omitempty"`
}

// Order — read-mostly копия заказа из Order Directory.
// Ядро мутирует только поле Status и только через transition.Controller.
type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customer_id,omitempty"`
	CustomerName    string      `json:"customer_name,omitempty"`
	ContactPhone    string      `json:"contact_phone,omitempty"`
	OrderType       OrderType   `json:"order_type"`
	DeliveryAddress string      `json:"delivery_address,omitempty"`
	Branch          string      `json:"branch,omitempty"`
	Status          OrderStatus `json:"status"`
	// TotalPrice — сумма заказа в минимальных денежных единицах.
	TotalPrice int64     `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
	// Items — сырой сериализованный JSON с позициями; может быть битым,
	// разбор выполняет detail.Inspect с fallback-маркером.
	Items string `json:"items,omitempty"`
}

// Location возвращает адрес доставки или филиал самовывоза.
func (o *Order) Location() string {
	if o.OrderType == OrderTypeDelivery {
		return o.DeliveryAddress
	}
	return o.Branch
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if !KnownStatus(o.Status) {
		errs = append(errs, ErrUnknownStatus)
	}
	if o.TotalPrice < 0 {
		errs = append(errs, ErrTotalNegative)
	}

	switch o.OrderType {
	case OrderTypeDelivery:
		if o.DeliveryAddress == "" {
			errs = append(errs, ErrLocationMissing)
		}
	case OrderTypePickup:
		if o.Branch == "" {
			errs = append(errs, ErrLocationMissing)
		}
	default:
		errs = append(errs, ErrOrderTypeInvalid)
	}

	return errs
}
