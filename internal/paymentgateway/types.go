package paymentgateway

import "time"

// CreateChargeRequest представляет запрос на создание PIX-платежа.
type CreateChargeRequest struct {
	Amount        Amount            `json:"amount"`
	Description   string            `json:"description"`
	CustomerEmail string            `json:"customer_email"`
	ReturnURL     string            `json:"return_url,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"` // доп. инфа: user_email, plan_type
}

// CreateChargeResponse представляет ответ шлюза на создание платежа.
type CreateChargeResponse struct {
	ID          string    `json:"id"`     // ID платежа в шлюзе
	Status      string    `json:"status"` // статус платежа, например "PENDING"
	Amount      Amount    `json:"amount"`
	BRCode      string    `json:"br_code"`       // строка PIX "copia e cola"
	QRCodeImage string    `json:"qr_code_image"` // ссылка на QR-код
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Amount представляет денежную сумму.
type Amount struct {
	Value    string `json:"value"`    // сумма в строке, например "50.00"
	Currency string `json:"currency"` // валюта, например "BRL"
}
