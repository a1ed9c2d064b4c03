package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printnest/backend/internal/domain/shared"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  &Config{BaseURL: "http://orders:9000", TimeoutSeconds: 5},
			wantErr: false,
		},
		{
			name:    "missing base URL",
			config:  &Config{},
			wantErr: true,
		},
		{
			name:    "invalid scheme",
			config:  &Config{BaseURL: "ftp://orders:9000"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigValidateDefaultsTimeout(t *testing.T) {
	config := &Config{BaseURL: "http://orders:9000"}
	require.NoError(t, config.Validate())
	assert.Equal(t, 10, config.TimeoutSeconds)
}

func TestNewHTTPOrderReaderRejectsInvalidConfig(t *testing.T) {
	_, err := NewHTTPOrderReader(&Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestFetchPrintableLineItems(t *testing.T) {
	tenantID := uuid.New()
	orderID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/internal/v1/orders/line-items", r.URL.Path)
		assert.Equal(t, tenantID.String(), r.Header.Get("X-Tenant-ID"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req lineItemsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.OrderIDs, 1)

		resp := lineItemsResponse{
			Orders: []orderPayload{
				{
					ID:     orderID,
					Number: "ORD-1001",
					Status: "PAID",
					LineItems: []lineItemPayload{
						{DesignRef: "designs/skull.png", PrintWidth: 4, PrintHeight: 3, Quantity: 2, AllowRotate: true, Printable: true},
						{DesignRef: "designs/sticker.png", PrintWidth: 2, PrintHeight: 2, Quantity: 1, Printable: false},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	reader, err := NewHTTPOrderReader(&Config{BaseURL: server.URL, APIKey: "test-key"}, zap.NewNop())
	require.NoError(t, err)

	items, err := reader.FetchPrintableLineItems(context.Background(), tenantID, []uuid.UUID{orderID})
	require.NoError(t, err)

	// The flagged-off sticker item is skipped; the order stays eligible.
	require.Len(t, items, 1)
	assert.Equal(t, orderID, items[0].OrderID)
	assert.Equal(t, "ORD-1001", items[0].OrderNumber)
	assert.Equal(t, "designs/skull.png", items[0].DesignRef)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].AllowRotate)
}

func lineItemsServer(t *testing.T, orders []orderPayload) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(lineItemsResponse{Orders: orders})
	}))
}

func TestFetchPrintableLineItems_UnpaidOrderRejectsSelection(t *testing.T) {
	paidID := uuid.New()
	cancelledID := uuid.New()
	thirdID := uuid.New()

	server := lineItemsServer(t, []orderPayload{
		{
			ID: paidID, Number: "ORD-2001", Status: "PAID",
			LineItems: []lineItemPayload{
				{DesignRef: "designs/a.png", PrintWidth: 4, PrintHeight: 3, Quantity: 1, Printable: true},
			},
		},
		{
			ID: cancelledID, Number: "ORD-2002", Status: "CANCELLED",
			LineItems: []lineItemPayload{
				{DesignRef: "designs/b.png", PrintWidth: 4, PrintHeight: 3, Quantity: 1, Printable: true},
			},
		},
	})
	defer server.Close()

	reader, err := NewHTTPOrderReader(&Config{BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)

	// One order of three is cancelled and one is absent entirely. The
	// whole selection must be rejected rather than packed partially.
	items, err := reader.FetchPrintableLineItems(context.Background(), uuid.New(), []uuid.UUID{paidID, cancelledID, thirdID})
	require.Error(t, err)
	assert.Nil(t, items)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_PRINTABLE", domainErr.Code)
	assert.Contains(t, domainErr.Message, "ORD-2002")
}

func TestFetchPrintableLineItems_MissingOrder(t *testing.T) {
	knownID := uuid.New()
	missingID := uuid.New()

	server := lineItemsServer(t, []orderPayload{
		{
			ID: knownID, Number: "ORD-3001", Status: "PAID",
			LineItems: []lineItemPayload{
				{DesignRef: "designs/a.png", PrintWidth: 4, PrintHeight: 3, Quantity: 1, Printable: true},
			},
		},
	})
	defer server.Close()

	reader, err := NewHTTPOrderReader(&Config{BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)

	items, err := reader.FetchPrintableLineItems(context.Background(), uuid.New(), []uuid.UUID{knownID, missingID})
	require.Error(t, err)
	assert.Nil(t, items)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Contains(t, domainErr.Message, missingID.String())
}

func TestFetchPrintableLineItems_NoPrintableItems(t *testing.T) {
	orderID := uuid.New()

	server := lineItemsServer(t, []orderPayload{
		{
			ID: orderID, Number: "ORD-4001", Status: "PAID",
			LineItems: []lineItemPayload{
				{DesignRef: "designs/a.png", PrintWidth: 4, PrintHeight: 3, Quantity: 1, Printable: false},
			},
		},
	})
	defer server.Close()

	reader, err := NewHTTPOrderReader(&Config{BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = reader.FetchPrintableLineItems(context.Background(), uuid.New(), []uuid.UUID{orderID})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_PRINTABLE", domainErr.Code)
}

func TestFetchPrintableLineItemsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	reader, err := NewHTTPOrderReader(&Config{BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = reader.FetchPrintableLineItems(context.Background(), uuid.New(), []uuid.UUID{uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestFetchPrintableLineItemsMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	reader, err := NewHTTPOrderReader(&Config{BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = reader.FetchPrintableLineItems(context.Background(), uuid.New(), []uuid.UUID{uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
