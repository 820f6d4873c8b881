package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce-api/internal/models"
)

func signWebhook(t *testing.T, secret, dataID, requestID, ts string) string {
	t.Helper()
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyWebhookSignature(t *testing.T) {
	const secret = "shhh"

	t.Run("valid", func(t *testing.T) {
		header := signWebhook(t, secret, "12345", "req-1", "1700000000")
		assert.NoError(t, VerifyWebhookSignature(secret, header, "12345", "req-1"))
	})

	t.Run("tampered data id", func(t *testing.T) {
		header := signWebhook(t, secret, "12345", "req-1", "1700000000")
		assert.ErrorIs(t, VerifyWebhookSignature(secret, header, "99999", "req-1"), ErrInvalidSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		header := signWebhook(t, "otro", "12345", "req-1", "1700000000")
		assert.ErrorIs(t, VerifyWebhookSignature(secret, header, "12345", "req-1"), ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		assert.ErrorIs(t, VerifyWebhookSignature(secret, "", "12345", "req-1"), ErrInvalidSignature)
	})

	t.Run("missing secret", func(t *testing.T) {
		header := signWebhook(t, secret, "12345", "req-1", "1700000000")
		assert.ErrorIs(t, VerifyWebhookSignature("", header, "12345", "req-1"), ErrInvalidSignature)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.ErrorIs(t, VerifyWebhookSignature(secret, "ts=123", "12345", "req-1"), ErrInvalidSignature)
	})
}

func TestCentsToAmount(t *testing.T) {
	assert.Equal(t, json.Number("199.90"), centsToAmount(19990))
	assert.Equal(t, json.Number("0.05"), centsToAmount(5))
	assert.Equal(t, json.Number("100.00"), centsToAmount(10000))
}

func TestMercadoPagoCreateCheckout(t *testing.T) {
	order := &models.Order{
		ID: primitive.NewObjectID(),
		Items: []models.OrderItem{
			{Name: "Fone de ouvido", Quantity: 2, UnitPriceCents: 9990},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req preferenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, order.ID.Hex(), req.ExternalReference)
		require.Len(t, req.Items, 1)
		assert.Equal(t, json.Number("99.90"), req.Items[0].UnitPrice)

		json.NewEncoder(w).Encode(preferenceResponse{
			ID:        "pref-1",
			InitPoint: "https://mp.example.com/init/pref-1",
		})
	}))
	defer srv.Close()

	gw := NewMercadoPago(srv.URL, "test-token", "https://shop/success", "https://shop/failure")
	checkout, err := gw.CreateCheckout(context.Background(), order)

	require.NoError(t, err)
	assert.Equal(t, "mercadopago", checkout.Provider)
	assert.Equal(t, "pref-1", checkout.TransactionID)
	assert.Equal(t, "https://mp.example.com/init/pref-1", checkout.CheckoutURL)
}

func TestMercadoPagoFetchPaymentStatusMapping(t *testing.T) {
	cases := []struct {
		provider string
		want     ProviderStatus
	}{
		{"approved", StatusApproved},
		{"rejected", StatusRejected},
		{"cancelled", StatusRejected},
		{"refunded", StatusRefunded},
		{"charged_back", StatusRefunded},
		{"in_process", StatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/v1/payments/pay-9", r.URL.Path)
				json.NewEncoder(w).Encode(providerPayment{
					Status:            tc.provider,
					ExternalReference: "abc123",
				})
			}))
			defer srv.Close()

			gw := NewMercadoPago(srv.URL, "tok", "", "")
			info, err := gw.FetchPayment(context.Background(), "pay-9")

			require.NoError(t, err)
			assert.Equal(t, tc.want, info.Status)
			assert.Equal(t, "abc123", info.OrderRef)
		})
	}
}

func TestMercadoPagoErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid token"}`))
	}))
	defer srv.Close()

	gw := NewMercadoPago(srv.URL, "bad-token", "", "")
	_, err := gw.FetchPayment(context.Background(), "pay-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
