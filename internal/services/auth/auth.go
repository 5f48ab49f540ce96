// Package services содержит логику бизнес-уровня для регистрации и
// аутентификации пользователей.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kruglovdev/subscription-billing/internal/lib/jwt"
	"github.com/kruglovdev/subscription-billing/internal/lib/password"
	"github.com/kruglovdev/subscription-billing/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
// Наружу причина (нет пользователя или не совпал пароль) не раскрывается.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его uid.
	RegisterUser(ctx context.Context, user models.User) (string, error)
	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthService отвечает за регистрацию и выдачу токенов доступа.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля.
// Хранилище заодно создаёт под него неактивную подписку с типом по умолчанию.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	const op = "services.auth.Register"
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пароль пользователя и выпускает токен доступа.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(user.Username)
	if err != nil {
		return "", err
	}
	return token, nil
}
