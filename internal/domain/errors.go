package domain

import "errors"

var (
	// ErrOrderIDRequired — у заказа отсутствует идентификатор.
	ErrOrderIDRequired = errors.New("order id is required")
	// ErrUnknownStatus — значение статуса вне допустимого множества.
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrOrderTypeInvalid — неизвестный способ получения заказа.
	ErrOrderTypeInvalid = errors.New("order type must be pickup or delivery")
	// ErrLocationMissing — нет адреса доставки или филиала самовывоза.
	ErrLocationMissing = errors.New("order location is missing")
	// ErrTotalNegative — отрицательная сумма заказа.
	ErrTotalNegative = errors.New("total price must be non-negative")

	// ErrOrderNotFound возвращается, если заказа нет в текущем snapshot или в Order Directory.
	ErrOrderNotFound = errors.New("order not found")
	// ErrStatusTerminal — попытка продвинуть заказ из терминального статуса.
	ErrStatusTerminal = errors.New("order status is terminal")
	// ErrTransitionInFlight — по заказу уже выполняется переход статуса.
	ErrTransitionInFlight = errors.New("status transition already in flight")
	// ErrFetchInFlight — fetch snapshot уже выполняется; тик или ручное обновление пропущены.
	ErrFetchInFlight = errors.New("snapshot fetch already in flight")
	// ErrFetchFailed — Order Directory не вернул snapshot; предыдущее состояние сохраняется.
	ErrFetchFailed = errors.New("order snapshot fetch failed")
	// ErrUpdateRejected — Order Directory отклонил смену статуса; локальный статус не меняется.
	ErrUpdateRejected = errors.New("status update rejected by order directory")
	// ErrItemsMalformed — сериализованный payload позиций не разобрался.
	ErrItemsMalformed = errors.New("order items payload is malformed")
)

// IsTransitionInFlight проверяет, является ли ошибка отказом in-flight guard.
func IsTransitionInFlight(err error) bool {
	return errors.Is(err, ErrTransitionInFlight)
}
