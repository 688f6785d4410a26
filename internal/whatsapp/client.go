// Package whatsapp реализует клиент шлюза WhatsApp-уведомлений.
// Интеграция опциональна: пустой URL в конфиге полностью отключает канал.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Client клиент шлюза WhatsApp.
type Client struct {
	apiURL     string
	apiKey     string
	instance   string
	httpClient *http.Client
}

// NewClient создаёт новый клиент шлюза. При пустом apiURL клиент
// считается выключенным.
func NewClient(apiURL, apiKey, instance string) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		instance:   instance,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled сообщает, настроен ли канал WhatsApp.
func (c *Client) Enabled() bool {
	return c != nil && c.apiURL != ""
}

type sendMessageRequest struct {
	Instance string `json:"instance"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
}

// SendMessage отправляет текстовое сообщение на номер phone.
func (c *Client) SendMessage(ctx context.Context, phone, text string) error {
	if !c.Enabled() {
		return errors.New("whatsapp gateway is not configured")
	}

	body, err := json.Marshal(sendMessageRequest{
		Instance: c.instance,
		Phone:    phone,
		Message:  text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+"/message/send-text", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.New("unexpected status: " + resp.Status)
	}
	return nil
}
