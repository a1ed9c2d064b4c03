package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printnest/backend/internal/domain/gangsheet"
	"github.com/printnest/backend/internal/domain/shared"
)

// maxResponseSize is the maximum allowed response size from the order
// service (10MB)
const maxResponseSize = 10 * 1024 * 1024

// paidStatus is the only order status whose line items are printable
const paidStatus = "PAID"

// HTTPOrderReader fetches printable line items from the order service
// over its internal HTTP API. It implements gangsheet.OrderReader.
type HTTPOrderReader struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPOrderReader creates a new HTTPOrderReader with the given configuration
func NewHTTPOrderReader(config *Config, logger *zap.Logger) (*HTTPOrderReader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPOrderReader{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

type lineItemPayload struct {
	DesignRef   string  `json:"design_ref"`
	PrintWidth  float64 `json:"print_width"`
	PrintHeight float64 `json:"print_height"`
	Quantity    int     `json:"quantity"`
	AllowRotate bool    `json:"allow_rotate"`
	Printable   bool    `json:"printable"`
}

type orderPayload struct {
	ID        uuid.UUID         `json:"id"`
	Number    string            `json:"number"`
	Status    string            `json:"status"`
	LineItems []lineItemPayload `json:"line_items"`
}

type lineItemsResponse struct {
	Orders []orderPayload `json:"orders"`
}

type lineItemsRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids"`
}

// FetchPrintableLineItems loads the printable line items of the given
// orders. Every requested order must exist and be printable: a missing
// order fails with NOT_FOUND, an unpaid order or one without printable
// line items fails with NOT_PRINTABLE. Individual items flagged
// non-printable are skipped as long as the order keeps at least one.
func (r *HTTPOrderReader) FetchPrintableLineItems(ctx context.Context, tenantID uuid.UUID, orderIDs []uuid.UUID) ([]gangsheet.LineItem, error) {
	payload, err := json.Marshal(lineItemsRequest{OrderIDs: orderIDs})
	if err != nil {
		return nil, fmt.Errorf("orders: failed to encode request: %w", err)
	}

	endpoint := r.config.BaseURL + "/internal/v1/orders/line-items"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("orders: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID.String())
	if r.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.config.APIKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orders: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("orders: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("orders: service returned status %d", resp.StatusCode)
	}

	var decoded lineItemsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("orders: failed to decode response: %w", err)
	}

	var items []gangsheet.LineItem
	returned := make(map[uuid.UUID]bool, len(decoded.Orders))
	for _, order := range decoded.Orders {
		returned[order.ID] = true
		if order.Status != paidStatus {
			r.logger.Debug("rejecting unpaid order",
				zap.String("order_id", order.ID.String()),
				zap.String("status", order.Status))
			return nil, shared.NewDomainError("NOT_PRINTABLE",
				fmt.Sprintf("Order %s is not printable (status %s)", order.Number, order.Status))
		}
		printable := 0
		for _, li := range order.LineItems {
			if !li.Printable {
				continue
			}
			item, err := gangsheet.NewLineItem(order.ID, order.Number, li.DesignRef,
				li.PrintWidth, li.PrintHeight, li.Quantity, li.AllowRotate)
			if err != nil {
				return nil, fmt.Errorf("orders: order %s has an invalid line item: %w", order.Number, err)
			}
			items = append(items, item)
			printable++
		}
		if printable == 0 {
			return nil, shared.NewDomainError("NOT_PRINTABLE",
				fmt.Sprintf("Order %s has no printable line items", order.Number))
		}
	}

	for _, id := range orderIDs {
		if !returned[id] {
			return nil, shared.NewDomainError("NOT_FOUND",
				fmt.Sprintf("Order %s was not found", id))
		}
	}

	return items, nil
}

// Ensure HTTPOrderReader implements gangsheet.OrderReader
var _ gangsheet.OrderReader = (*HTTPOrderReader)(nil)
