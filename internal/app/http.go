package app

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderboard/internal/board"
	"github.com/vladislavdragonenkov/orderboard/internal/detail"
	"github.com/vladislavdragonenkov/orderboard/internal/domain"
	"github.com/vladislavdragonenkov/orderboard/internal/poll"
	"github.com/vladislavdragonenkov/orderboard/internal/transition"
)

// boardAPI — тонкий JSON-интерфейс доски для рабочих станций операторов.
type boardAPI struct {
	state      *board.State
	controller *transition.Controller
	poller     *poll.Poller
	role       domain.Role
	logger     *log.Entry
}

func newBoardAPI(state *board.State, controller *transition.Controller, poller *poll.Poller, role domain.Role, logger *log.Entry) *boardAPI {
	return &boardAPI{
		state:      state,
		controller: controller,
		poller:     poller,
		role:       role,
		logger:     logger,
	}
}

func (a *boardAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/board", a.handleBoard)
	mux.HandleFunc("GET /api/orders", a.handleOrders)
	mux.HandleFunc("GET /api/orders/{id}", a.handleOrderDetail)
	mux.HandleFunc("POST /api/orders/{id}/advance", a.handleAdvance)
	mux.HandleFunc("PUT /api/orders/{id}/status", a.handleSetStatus)
	mux.HandleFunc("POST /api/refresh", a.handleRefresh)
}

// handleBoard возвращает kanban-проекцию: три колонки в порядке жизненного цикла.
func (a *boardAPI) handleBoard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"lanes": board.Lanes(a.state.Orders()),
	})
}

// handleOrders возвращает табличный вид с опциональным фильтром по статусу.
func (a *boardAPI) handleOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	if status != "" && !domain.KnownStatus(status) {
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"orders": board.FilterByStatus(a.state.Orders(), status),
	})
}

// handleOrderDetail возвращает заказ с разобранными позициями.
func (a *boardAPI) handleOrderDetail(w http.ResponseWriter, r *http.Request) {
	order, ok := a.state.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, detail.Inspect(order))
}

// handleAdvance продвигает заказ к следующему статусу.
// Кнопка перевода есть только на kanban-доске линейного сотрудника;
// привилегированная роль управляет статусом напрямую через PUT.
func (a *boardAPI) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if a.role != domain.RoleAgent {
		writeError(w, http.StatusForbidden, "advance is available to the agent role only")
		return
	}

	err := a.controller.Advance(r.Context(), r.PathValue("id"))
	a.writeTransitionResult(w, r.PathValue("id"), err)
}

// handleSetStatus устанавливает произвольный статус (только привилегированная роль).
func (a *boardAPI) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	if a.role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "direct status set requires admin role")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := a.controller.Apply(r.Context(), r.PathValue("id"), domain.OrderStatus(body.Status))
	a.writeTransitionResult(w, r.PathValue("id"), err)
}

// handleRefresh выполняет внеплановый poll-цикл.
func (a *boardAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := a.poller.Refresh(r.Context()); err != nil {
		switch {
		case errors.Is(err, domain.ErrFetchInFlight):
			writeError(w, http.StatusConflict, "refresh already in progress")
		default:
			writeError(w, http.StatusBadGateway, "order directory is unavailable")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders":       a.state.Len(),
		"last_success": a.poller.LastSuccess(),
	})
}

func (a *boardAPI) writeTransitionResult(w http.ResponseWriter, orderID string, err error) {
	switch {
	case err == nil:
		order, ok := a.state.Get(orderID)
		if !ok {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeJSON(w, http.StatusOK, order)
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrTransitionInFlight):
		writeError(w, http.StatusConflict, "transition already in progress")
	case errors.Is(err, domain.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "unknown status")
	case errors.Is(err, domain.ErrUpdateRejected):
		writeError(w, http.StatusBadGateway, "order directory rejected the update")
	default:
		a.logger.WithError(err).Error("unexpected transition error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
