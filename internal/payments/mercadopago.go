package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce-api/internal/models"
)

// MercadoPago es un cliente delgado sobre la API REST del proveedor:
// preferencia de checkout hospedado, consulta de pago y reembolso.
type MercadoPago struct {
	baseURL     string
	accessToken string
	successURL  string
	failureURL  string
	httpClient  *http.Client
}

func NewMercadoPago(baseURL, accessToken, successURL, failureURL string) *MercadoPago {
	return &MercadoPago{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		successURL:  successURL,
		failureURL:  failureURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *MercadoPago) Name() string { return "mercadopago" }

type preferenceItem struct {
	Title     string      `json:"title"`
	Quantity  int64       `json:"quantity"`
	UnitPrice json.Number `json:"unit_price"`
}

type preferenceRequest struct {
	Items             []preferenceItem  `json:"items"`
	ExternalReference string            `json:"external_reference"`
	BackURLs          map[string]string `json:"back_urls"`
	AutoReturn        string            `json:"auto_return"`
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// centsToAmount convierte centavos a un monto decimal con dos
// posiciones, como lo espera el proveedor.
func centsToAmount(cents int64) json.Number {
	amount := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
	return json.Number(amount.StringFixed(2))
}

// CreateCheckout crea la preferencia y devuelve la URL de checkout
// hospedado. El external_reference lleva el id de la orden para que el
// webhook pueda correlacionar.
func (m *MercadoPago) CreateCheckout(ctx context.Context, order *models.Order) (*Checkout, error) {
	items := make([]preferenceItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, preferenceItem{
			Title:     item.Name,
			Quantity:  item.Quantity,
			UnitPrice: centsToAmount(item.UnitPriceCents),
		})
	}

	reqBody := preferenceRequest{
		Items:             items,
		ExternalReference: order.ID.Hex(),
		BackURLs: map[string]string{
			"success": m.successURL,
			"failure": m.failureURL,
		},
		AutoReturn: "approved",
	}

	var resp preferenceResponse
	if err := m.do(ctx, http.MethodPost, "/checkout/preferences", reqBody, &resp); err != nil {
		return nil, err
	}

	return &Checkout{
		Provider:      m.Name(),
		TransactionID: resp.ID,
		CheckoutURL:   resp.InitPoint,
	}, nil
}

type providerPayment struct {
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
}

func (m *MercadoPago) FetchPayment(ctx context.Context, transactionID string) (*PaymentInfo, error) {
	var resp providerPayment
	path := "/v1/payments/" + transactionID
	if err := m.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	var status ProviderStatus
	switch resp.Status {
	case "approved":
		status = StatusApproved
	case "rejected", "cancelled":
		status = StatusRejected
	case "refunded", "charged_back":
		status = StatusRefunded
	default:
		status = StatusPending
	}

	return &PaymentInfo{Status: status, OrderRef: resp.ExternalReference}, nil
}

func (m *MercadoPago) Refund(ctx context.Context, transactionID string) error {
	path := fmt.Sprintf("/v1/payments/%s/refunds", transactionID)
	return m.do(ctx, http.MethodPost, path, struct{}{}, nil)
}

func (m *MercadoPago) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mercadopago %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// VerifyWebhookSignature valida el header x-signature
// ("ts=...,v1=...") contra el secreto compartido. El manifiesto firmado
// sigue el formato del proveedor; la comparación es en tiempo
// constante.
func VerifyWebhookSignature(secret, signatureHeader, dataID, requestID string) error {
	if secret == "" || signatureHeader == "" {
		return ErrInvalidSignature
	}

	var ts, v1 string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return ErrInvalidSignature
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return ErrInvalidSignature
	}
	return nil
}
