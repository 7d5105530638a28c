// Package httpapi содержит клиента Order Directory HTTP API — основной вариант
// развёртывания, в котором доска опрашивает REST-интерфейс directory-системы.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderboard/internal/domain"
	"github.com/vladislavdragonenkov/orderboard/internal/version"
)

const (
	defaultPageLimit   = 100
	defaultHTTPTimeout = 10 * time.Second
)

// createdAtLayouts — форматы времени, встречающиеся в ответах directory.
var createdAtLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	"2006-01-02 15:04:05",
}

// Options задаёт параметры клиента.
type Options struct {
	Logger    *log.Entry
	Token     string
	PageLimit int
	HTTP      *http.Client
}

// Option настраивает Client.
type Option func(*Options)

// WithLogger задаёт logger для клиента.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithToken задаёт bearer-токен аутентификации.
func WithToken(token string) Option {
	return func(opts *Options) {
		opts.Token = token
	}
}

// WithPageLimit задаёт размер страницы при выкачивании snapshot.
func WithPageLimit(limit int) Option {
	return func(opts *Options) {
		opts.PageLimit = limit
	}
}

// WithHTTPClient подменяет http.Client (тесты, кастомные транспорты).
func WithHTTPClient(client *http.Client) Option {
	return func(opts *Options) {
		opts.HTTP = client
	}
}

// Client — реализация Order Directory поверх HTTP API.
type Client struct {
	baseURL   string
	token     string
	pageLimit int
	http      *http.Client
	logger    *log.Entry
}

// NewClient создаёт клиента directory по базовому URL.
func NewClient(baseURL string, options ...Option) *Client {
	opts := Options{
		PageLimit: defaultPageLimit,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "directory-client")
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = defaultPageLimit
	}

	return &Client{
		baseURL:   baseURL,
		token:     opts.Token,
		pageLimit: opts.PageLimit,
		http:      httpClient,
		logger:    logger,
	}
}

// wireOrder — формат записи в ответе directory. Числовые идентификаторы
// приходят как числа, строковые — как строки; json.Number покрывает оба случая.
type wireOrder struct {
	ID              json.Number `json:"id"`
	CustomerID      json.Number `json:"customer_id"`
	CustomerName    string      `json:"customer_name"`
	ContactPhone    string      `json:"contact_phone"`
	OrderType       string      `json:"order_type"`
	DeliveryAddress string      `json:"delivery_address"`
	Branch          string      `json:"branch"`
	Status          string      `json:"status"`
	TotalPrice      json.Number `json:"total_price"`
	Items           string      `json:"items"`
	CreatedAt       string      `json:"created_at"`
}

type listResponse struct {
	Orders []wireOrder `json:"orders"`
}

// decodeOrdersPayload принимает оба формата ответа directory: исходный сервис
// отдаёт голый JSON-массив, более поздние версии — обёртку {"orders": [...]}.
func decodeOrdersPayload(data []byte) ([]wireOrder, error) {
	var bare []wireOrder
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	var wrapped listResponse
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode orders page: %w", err)
	}
	return wrapped.Orders, nil
}

// List выкачивает полный snapshot постранично, пока не встретит короткую страницу.
func (c *Client) List(ctx context.Context) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, c.pageLimit)

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/api/orders?page=%d&limit=%d", c.baseURL, page, c.pageLimit)
		batch, err := c.fetchPage(ctx, url)
		if err != nil {
			return nil, err
		}

		for _, wire := range batch {
			orders = append(orders, wire.toDomain())
		}
		if len(batch) < c.pageLimit {
			c.logger.WithFields(log.Fields{
				"orders": len(orders),
				"pages":  page,
			}).Debug("order snapshot fetched")
			return orders, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, url string) ([]wireOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch orders page: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read orders page: %w", err)
	}
	return decodeOrdersPayload(data)
}

// UpdateStatus выдаёт PUT на смену статуса заказа.
func (c *Client) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	body, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return fmt.Errorf("marshal status update: %w", err)
	}

	url := fmt.Sprintf("%s/api/orders/%s/status", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return domain.ErrOrderNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrUnknownStatus
	default:
		return fmt.Errorf("directory returned status %d", resp.StatusCode)
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (w wireOrder) toDomain() domain.Order {
	return domain.Order{
		ID:              w.ID.String(),
		CustomerID:      w.CustomerID.String(),
		CustomerName:    w.CustomerName,
		ContactPhone:    w.ContactPhone,
		OrderType:       domain.OrderType(w.OrderType),
		DeliveryAddress: w.DeliveryAddress,
		Branch:          w.Branch,
		Status:          domain.OrderStatus(w.Status),
		TotalPrice:      parsePrice(w.TotalPrice),
		Items:           w.Items,
		CreatedAt:       parseCreatedAt(w.CreatedAt),
	}
}

func parsePrice(raw json.Number) int64 {
	value, err := raw.Int64()
	if err != nil {
		return 0
	}
	return value
}

// parseCreatedAt терпимо разбирает время создания; нераспознанное значение
// превращается в нулевое время, а не в ошибку snapshot-а целиком.
func parseCreatedAt(raw string) time.Time {
	for _, layout := range createdAtLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

var _ domain.OrderDirectory = (*Client)(nil)
