// Package paymentgateway реализует HTTP-клиент платёжного шлюза PIX.
// Шлюз создаёт платёж и асинхронно подтверждает его вебхуком.
package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client клиент платёжного шлюза.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент шлюза.
func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	// Шлюз дедуплицирует повторы по этому ключу
	req.Header.Set("Idempotency-Key", uuid.New().String())
	return req, nil
}

// CreateCharge отправляет запрос на создание PIX-платежа.
func (c *Client) CreateCharge(ctx context.Context, reqParams CreateChargeRequest) (*CreateChargeResponse, error) {
	req, err := c.newRequest(ctx, "POST", "/charges", reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var chargeResp CreateChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&chargeResp); err != nil {
		return nil, err
	}
	return &chargeResp, nil
}
