// Package auth содержит бизнес-логику регистрации и входа пользователей.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finexapp/finex-backend/internal/lib/jwt"
	"github.com/finexapp/finex-backend/internal/lib/password"
	"github.com/finexapp/finex-backend/internal/models"
	"github.com/finexapp/finex-backend/internal/storage/repository"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
// Наружу не раскрывается, существует ли пользователь.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository определяет методы хранилища пользователей.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service реализует регистрацию и аутентификацию.
type Service struct {
	repo  UserRepository
	maker jwt.Maker
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo UserRepository, maker jwt.Maker, log *slog.Logger) *Service {
	return &Service{repo: repo, maker: maker, log: log}
}

// Register создаёт нового пользователя с ролью user и без подписки.
func (s *Service) Register(ctx context.Context, email, username, pass, phone string) error {
	const op = "services.auth.Register"

	hash, err := password.GetHash(pass)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.RegisterUser(ctx, models.User{
		Email:              email,
		Username:           username,
		PasswordHash:       hash,
		Role:               models.RoleUser,
		Phone:              phone,
		SubscriptionStatus: models.UserSubscriptionNone,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.String("email", email))
	return nil
}

// Login проверяет пароль пользователя и возвращает JWT токен.
func (s *Service) Login(ctx context.Context, email, pass string) (string, error) {
	const op = "services.auth.Login"

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(user.PasswordHash, pass); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.maker.GenerateToken(user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user logged in", slog.String("email", email))
	return token, nil
}
