// Package proofai реализует анализ чеков об оплате через Gemini.
// Модель получает изображение чека и возвращает строгий JSON с полями
// is_valid, amount_paid, bank и confidence; решение об авто-одобрении
// принимает вызывающая сторона.
package proofai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Analysis — результат анализа чека моделью.
type Analysis struct {
	IsValid    bool    `json:"is_valid"`    // Похоже ли изображение на настоящий чек об оплате
	AmountPaid string  `json:"amount_paid"` // Распознанная сумма, строка "50.00"
	Bank       string  `json:"bank"`        // Банк или кошелёк отправителя
	Confidence float64 `json:"confidence"`  // Уверенность модели, 0..1
}

// Classifier отправляет изображения чеков в Gemini.
type Classifier struct {
	client *genai.Client
	model  string
}

// NewClassifier создаёт клиент Gemini. Ключ API берётся из окружения
// (GEMINI_API_KEY), как того ожидает SDK.
func NewClassifier(ctx context.Context, model string) (*Classifier, error) {
	const op = "proofai.NewClassifier"
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Classifier{client: client, model: model}, nil
}

const prompt = `You are a payment receipt validator for a Brazilian personal finance service.

Task:
- Analyze the attached payment receipt image (PIX transfer, bank transfer or payment confirmation screen).
- Output STRICT JSON only (no comments, no extra text).

The JSON object must have exactly these fields:
- "is_valid": boolean, true only if the image is a genuine payment receipt
- "amount_paid": string, the paid amount with two decimals, e.g. "50.00"
- "bank": string, the sending bank or wallet name, empty string if unknown
- "confidence": number between 0 and 1

Rules:
- Screenshots of anything other than a completed payment are NOT valid.
- If the amount cannot be read, set "amount_paid" to "0.00" and lower confidence.
- Return ONLY valid raw JSON.
- Do NOT wrap the response in code fences.`

// Analyze отправляет изображение чека модели и разбирает её ответ.
// Любая ошибка здесь — жёсткая: вызывающая сторона должна узнать,
// что анализ не состоялся, а не тихо оставить подписку в pending.
func (c *Classifier) Analyze(ctx context.Context, image []byte, mimeType string) (*Analysis, error) {
	const op = "proofai.Analyze"

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("%s: empty response from model", op)
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &analysis); err != nil {
		return nil, fmt.Errorf("%s: unmarshal model response: %w", op, err)
	}
	return &analysis, nil
}

// cleanModelJSON срезает markdown-ограждения, если модель
// проигнорировала инструкцию не использовать их.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
