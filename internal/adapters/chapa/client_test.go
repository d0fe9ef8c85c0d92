package chapa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"meda/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_Initialize(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/transaction/initialize", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "success",
			"message": "Hosted Link",
			"data":    map[string]any{"checkout_url": "https://checkout.chapa.co/checkout/payment/abc123"},
		})
	}))
	defer server.Close()

	gateway := NewGateway(server.Client(), server.URL, "sk-test")
	checkoutURL, err := gateway.Initialize(context.Background(), domain.GatewayCheckout{
		Amount:   "150.00",
		Currency: "ETB",
		TxRef:    "MEDA-abc",
		Email:    "abel@example.com",
		Title:    "Sunday Football",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.chapa.co/checkout/payment/abc123", checkoutURL)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "150.00", gotBody["amount"])
	assert.Equal(t, "MEDA-abc", gotBody["tx_ref"])
}

func TestGateway_Initialize_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"status": "failed", "message": "invalid currency"})
	}))
	defer server.Close()

	gateway := NewGateway(server.Client(), server.URL, "sk-test")
	_, err := gateway.Initialize(context.Background(), domain.GatewayCheckout{TxRef: "MEDA-abc"})
	require.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestGateway_Verify(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     map[string]any
		wantPaid bool
	}{
		{
			name:   "paid",
			status: http.StatusOK,
			body: map[string]any{
				"status": "success",
				"data":   map[string]any{"status": "success"},
			},
			wantPaid: true,
		},
		{
			name:   "pending",
			status: http.StatusOK,
			body: map[string]any{
				"status": "success",
				"data":   map[string]any{"status": "pending"},
			},
			wantPaid: false,
		},
		{
			name:     "unknown reference",
			status:   http.StatusNotFound,
			body:     map[string]any{"status": "failed"},
			wantPaid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/v1/transaction/verify/MEDA-abc", r.URL.Path)
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			gateway := NewGateway(server.Client(), server.URL, "sk-test")
			paid, err := gateway.Verify(context.Background(), "MEDA-abc")
			require.NoError(t, err)
			assert.Equal(t, tt.wantPaid, paid)
		})
	}
}
