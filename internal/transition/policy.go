package transition

import "github.com/vladislavdragonenkov/orderboard/internal/domain"

// Policy задаёт правило смены статуса для роли. Стратегия выбирается один раз
// при сборке представления, а не проверкой роли в каждой операции.
type Policy interface {
	// Role возвращает роль, для которой действует политика.
	Role() domain.Role
	// Plan вычисляет целевой статус перехода.
	// Frontline игнорирует requested и всегда берёт следующий статус
	// последовательности; privileged использует requested без ограничений
	// порядка относительно current.
	Plan(current, requested domain.OrderStatus) (domain.OrderStatus, error)
}

type frontlinePolicy struct{}

// Frontline — политика линейного сотрудника: только forward-only переходы,
// терминальный статус не продвигается.
func Frontline() Policy { return frontlinePolicy{} }

func (frontlinePolicy) Role() domain.Role { return domain.RoleAgent }

func (frontlinePolicy) Plan(current, _ domain.OrderStatus) (domain.OrderStatus, error) {
	next, ok := current.Next()
	if !ok {
		if current.Terminal() {
			return "", domain.ErrStatusTerminal
		}
		return "", domain.ErrUnknownStatus
	}
	return next, nil
}

type privilegedPolicy struct{}

// Privileged — политика привилегированной роли: любой допустимый статус
// устанавливается напрямую, включая движение назад. Асимметрия с forward-only
// правилом сохранена намеренно: это другой носитель прав над теми же записями.
func Privileged() Policy { return privilegedPolicy{} }

func (privilegedPolicy) Role() domain.Role { return domain.RoleAdmin }

func (privilegedPolicy) Plan(_, requested domain.OrderStatus) (domain.OrderStatus, error) {
	if !domain.KnownStatus(requested) {
		return "", domain.ErrUnknownStatus
	}
	return requested, nil
}

// PolicyFor выбирает политику по роли из контекста аутентификации.
func PolicyFor(role domain.Role) Policy {
	if role == domain.RoleAdmin {
		return Privileged()
	}
	return Frontline()
}

var _ Policy = frontlinePolicy{}
var _ Policy = privilegedPolicy{}
