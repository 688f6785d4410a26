// Package sender реализует отправку писем через SMTP транспорт.
package sender

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/lib/smtp"
)

// Service отправляет письма пользователям FINEX.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{transport: transport, log: log}
}

// Send отправляет письмо с темой subject и телом body на адрес to.
// Соединение устанавливается на каждую отправку: писем мало, а держать
// долгоживущую SMTP-сессию дороже, чем открывать новую.
func (s *Service) Send(to, subject, body string) error {
	const op = "services.sender.Send"

	client, err := s.transport.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.log.Debug("failed to close smtp client", sl.Err(err))
		}
	}()

	from := s.transport.GetSMTPUser()
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	message := fmt.Sprintf("From: FINEX <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n"+
		"\r\n%s", from, to, subject, body)
	if _, err := writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("email sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}

// SendPaymentConfirmation отправляет письмо о подтверждении оплаты.
func (s *Service) SendPaymentConfirmation(email, planType string, endDate time.Time) error {
	subject := "FINEX: pagamento confirmado"
	body := fmt.Sprintf("Seu pagamento foi confirmado!\n\n"+
		"Plano: %s\n"+
		"Válido até: %s\n\n"+
		"Obrigado por usar o FINEX.",
		planType, endDate.Format("02/01/2006"))
	return s.Send(email, subject, body)
}
