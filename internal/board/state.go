package board

import (
	"sync"

	"github.com/vladislavdragonenkov/orderboard/internal/domain"
)

// State — опубликованное состояние доски: список заказов последнего успешного
// snapshot плюс локальные коммиты статусов между тиками.
// Poller целиком замещает список на каждом успешном цикле; transition.Controller —
// единственный локальный писатель поля Status отдельного заказа.
type State struct {
	mu       sync.RWMutex
	orders   []domain.Order
	index    map[string]int
	selected string
}

// NewState создаёт пустое состояние доски.
func NewState() *State {
	return &State{index: make(map[string]int)}
}

// ApplySnapshot замещает текущий список заказов новым snapshot.
// Порядок directory сохраняется; инкрементальных патчей нет.
func (s *State) ApplySnapshot(orders []domain.Order) {
	copied := append([]domain.Order(nil), orders...)
	index := make(map[string]int, len(copied))
	for i, order := range copied {
		index[order.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = copied
	s.index = index
}

// Orders возвращает копию текущего списка в порядке directory.
func (s *State) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Order(nil), s.orders...)
}

// Len возвращает количество видимых заказов.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// Get возвращает копию заказа по идентификатору.
func (s *State) Get(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Order{}, false
	}
	return s.orders[i], true
}

// SetStatus записывает подтверждённый directory статус в опубликованный список,
// чтобы последующие проекции отразили коммит, не дожидаясь следующего poll-тика.
// Возвращает false, если заказ уже выпал из snapshot.
func (s *State) SetStatus(id string, status domain.OrderStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.orders[i].Status = status
	return true
}

// Select отмечает заказ, открытый в detail-просмотре.
func (s *State) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// ClearSelection закрывает detail-просмотр.
func (s *State) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
}

// Selected возвращает открытый в detail-просмотре заказ.
// Чтение идёт из опубликованного списка, поэтому коммит статуса
// виден в открытой карточке сразу, в том же цикле.
func (s *State) Selected() (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selected == "" {
		return domain.Order{}, false
	}
	i, ok := s.index[s.selected]
	if !ok {
		return domain.Order{}, false
	}
	return s.orders[i], true
}
