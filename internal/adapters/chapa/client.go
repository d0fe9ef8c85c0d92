package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"meda/internal/domain"
)

const defaultBaseURL = "https://api.chapa.co"

type chapaGateway struct {
	client    *http.Client
	baseURL   string
	secretKey string
}

// NewGateway returns a PaymentGateway backed by the Chapa hosted checkout API.
func NewGateway(client *http.Client, baseURL, secretKey string) domain.PaymentGateway {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &chapaGateway{client: client, baseURL: baseURL, secretKey: secretKey}
}

type initializeRequest struct {
	Amount        string                `json:"amount"`
	Currency      string                `json:"currency"`
	TxRef         string                `json:"tx_ref"`
	Email         string                `json:"email,omitempty"`
	FirstName     string                `json:"first_name,omitempty"`
	LastName      string                `json:"last_name,omitempty"`
	CallbackURL   string                `json:"callback_url,omitempty"`
	ReturnURL     string                `json:"return_url,omitempty"`
	Customization initializeCustomizing `json:"customization"`
}

type initializeCustomizing struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type initializeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type verifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		Status string `json:"status"`
	} `json:"data"`
}

func (g *chapaGateway) Initialize(ctx context.Context, checkout domain.GatewayCheckout) (string, error) {
	payload := initializeRequest{
		Amount:      checkout.Amount,
		Currency:    checkout.Currency,
		TxRef:       checkout.TxRef,
		Email:       checkout.Email,
		FirstName:   checkout.FirstName,
		LastName:    checkout.LastName,
		CallbackURL: checkout.CallbackURL,
		ReturnURL:   checkout.ReturnURL,
		Customization: initializeCustomizing{
			Title:       checkout.Title,
			Description: checkout.Description,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode checkout request: %w", err)
	}

	url := g.baseURL + "/v1/transaction/initialize"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var decoded initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode chapa response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || decoded.Status != "success" {
		return "", fmt.Errorf("%w: chapa initialize returned status %d (%s)",
			domain.ErrGatewayUnavailable, resp.StatusCode, decoded.Message)
	}
	if decoded.Data.CheckoutURL == "" {
		return "", fmt.Errorf("%w: chapa response missing checkout url", domain.ErrGatewayUnavailable)
	}
	return decoded.Data.CheckoutURL, nil
}

func (g *chapaGateway) Verify(ctx context.Context, txRef string) (bool, error) {
	url := g.baseURL + "/v1/transaction/verify/" + txRef
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	// Chapa answers 404 for unknown transaction references.
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: chapa verify returned status %d",
			domain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var decoded verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return false, fmt.Errorf("failed to decode chapa response: %w", err)
	}
	return decoded.Status == "success" && decoded.Data.Status == "success", nil
}
