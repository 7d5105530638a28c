package reconcile

import "github.com/vladislavdragonenkov/orderboard/internal/domain"

// IDSet — множество идентификаторов заказов.
type IDSet map[string]struct{}

// NewIDSet собирает множество из списка идентификаторов.
func NewIDSet(ids ...string) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has сообщает, содержится ли идентификатор в множестве.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs возвращает идентификаторы множества в неопределённом порядке.
func (s IDSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// Reconcile — чистая функция novelty-учёта poll-цикла.
// novel — идентификаторы snapshot, которых не было в known;
// next — идентификаторы snapshot целиком (замещает known, а не объединяется с ним).
// Полевые диффы не считаются: отображаемое состояние каждого тика — сам snapshot,
// отслеживается только появление заказа.
func Reconcile(known IDSet, orders []domain.Order) (novel IDSet, next IDSet) {
	novel = make(IDSet)
	next = make(IDSet, len(orders))

	for _, order := range orders {
		next[order.ID] = struct{}{}
		if !known.Has(order.ID) {
			novel[order.ID] = struct{}{}
		}
	}

	return novel, next
}
