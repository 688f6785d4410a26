package sender

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/finexapp/finex-backend/internal/lib/smtp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	return m.Called().Error(0)
}

func (m *MockSMTPClient) Quit() error {
	return m.Called().Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
	written []byte
}

func (m *MockSMTPWriter) Write(p []byte) (int, error) {
	m.written = append(m.written, p...)
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	return m.Called().Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSenderService_Send(t *testing.T) {
	transport := new(MockTransport)
	client := new(MockSMTPClient)
	writer := new(MockSMTPWriter)
	svc := New(transport, newNoopLogger())

	transport.On("GetSMTPUser").Return("noreply@finexapp.com.br")
	transport.On("Connect").Return(client, nil).Once()
	client.On("Mail", "noreply@finexapp.com.br").Return(nil).Once()
	client.On("Rcpt", "user@example.com").Return(nil).Once()
	client.On("Data").Return(writer, nil).Once()
	writer.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
	writer.On("Close").Return(nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	err := svc.Send("user@example.com", "Assunto", "Corpo da mensagem")
	assert.NoError(t, err)

	message := string(writer.written)
	assert.Contains(t, message, "To: user@example.com")
	assert.Contains(t, message, "Subject: Assunto")
	assert.Contains(t, message, "Corpo da mensagem")
	assert.True(t, strings.Contains(message, "charset=\"UTF-8\""))

	transport.AssertExpectations(t)
	client.AssertExpectations(t)
	writer.AssertExpectations(t)
}

func TestSenderService_SendErrors(t *testing.T) {
	tests := []struct {
		name         string
		setupMocks   func(tr *MockTransport)
		errorMessage string
	}{
		{
			name: "connect error",
			setupMocks: func(tr *MockTransport) {
				tr.On("Connect").Return(nil, errors.New("connection error")).Once()
			},
			errorMessage: "connection error",
		},
		{
			name: "mail error",
			setupMocks: func(tr *MockTransport) {
				client := new(MockSMTPClient)
				tr.On("Connect").Return(client, nil).Once()
				tr.On("GetSMTPUser").Return("noreply@finexapp.com.br")
				client.On("Mail", "noreply@finexapp.com.br").Return(errors.New("mail error")).Once()
				client.On("Close").Return(nil).Once()
			},
			errorMessage: "mail error",
		},
		{
			name: "rcpt error",
			setupMocks: func(tr *MockTransport) {
				client := new(MockSMTPClient)
				tr.On("Connect").Return(client, nil).Once()
				tr.On("GetSMTPUser").Return("noreply@finexapp.com.br")
				client.On("Mail", "noreply@finexapp.com.br").Return(nil).Once()
				client.On("Rcpt", "user@example.com").Return(errors.New("rcpt error")).Once()
				client.On("Close").Return(nil).Once()
			},
			errorMessage: "rcpt error",
		},
		{
			name: "data error",
			setupMocks: func(tr *MockTransport) {
				client := new(MockSMTPClient)
				tr.On("Connect").Return(client, nil).Once()
				tr.On("GetSMTPUser").Return("noreply@finexapp.com.br")
				client.On("Mail", "noreply@finexapp.com.br").Return(nil).Once()
				client.On("Rcpt", "user@example.com").Return(nil).Once()
				client.On("Data").Return(nil, errors.New("data error")).Once()
				client.On("Close").Return(nil).Once()
			},
			errorMessage: "data error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			svc := New(transport, newNoopLogger())

			tt.setupMocks(transport)

			err := svc.Send("user@example.com", "Assunto", "Corpo")
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMessage)

			transport.AssertExpectations(t)
		})
	}
}

func TestSenderService_SendPaymentConfirmation(t *testing.T) {
	transport := new(MockTransport)
	client := new(MockSMTPClient)
	writer := new(MockSMTPWriter)
	svc := New(transport, newNoopLogger())

	transport.On("GetSMTPUser").Return("noreply@finexapp.com.br")
	transport.On("Connect").Return(client, nil).Once()
	client.On("Mail", "noreply@finexapp.com.br").Return(nil).Once()
	client.On("Rcpt", "user@example.com").Return(nil).Once()
	client.On("Data").Return(writer, nil).Once()
	writer.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
	writer.On("Close").Return(nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	end := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	err := svc.SendPaymentConfirmation("user@example.com", "monthly", end)
	assert.NoError(t, err)

	message := string(writer.written)
	assert.Contains(t, message, "pagamento confirmado")
	assert.Contains(t, message, "15/07/2024")

	transport.AssertExpectations(t)
	client.AssertExpectations(t)
}
