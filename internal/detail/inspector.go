package detail

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/orderboard/internal/domain"
)

// FallbackMarker показывается вместо списка позиций при битом payload.
const FallbackMarker = "failed to parse items"

// Detail — подготовленная к показу карточка заказа.
type Detail struct {
	Order domain.Order `json:"order"`
	// Items — разобранные позиции; пусто при битом payload.
	Items []domain.LineItem `json:"items,omitempty"`
	// ItemsFallback — маркер вместо списка позиций; пустая строка при успешном разборе.
	ItemsFallback string `json:"items_fallback,omitempty"`
}

// ParseLineItems разбирает сериализованный payload позиций заказа.
// Ошибка разбора оборачивает domain.ErrItemsMalformed и никогда не паникует.
func ParseLineItems(payload string) ([]domain.LineItem, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrItemsMalformed)
	}

	var items []domain.LineItem
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrItemsMalformed, err)
	}

	return items, nil
}

// Inspect готовит заказ к показу в detail-просмотре.
// Битый payload позиций ограничивается fallback-маркером и не мешает
// отрисовке остальной карточки.
func Inspect(order domain.Order) Detail {
	items, err := ParseLineItems(order.Items)
	if err != nil {
		return Detail{Order: order, ItemsFallback: FallbackMarker}
	}
	return Detail{Order: order, Items: items}
}
