// auth.go — проверка сессионного пользователя и вход по логину и паролю.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/tnkp-admin/internal/domain/model"
	"github.com/bigkaa/tnkp-admin/internal/repository"
)

// AuthService — аутентификация пользователей m_users.
type AuthService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users repository.UserRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// CurrentUser возвращает пользователя сессии.
// userID == 0 — ErrUnauthorized, пользователь не найден — ErrNotFound.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь %d", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("ошибка получения пользователя сессии: %w", err)
	}
	return u, nil
}

// Login проверяет логин и пароль. Любое несовпадение — ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, loginID, password string) (*model.User, error) {
	if loginID == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.GetByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("Вход отклонён: неизвестный логин", slog.String("userid", loginID))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if !checkPassword(u.Password, password) {
		s.logger.Info("Вход отклонён: неверный пароль", slog.String("userid", loginID))
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("Пользователь вошёл", slog.String("userid", loginID), slog.Int64("user_id", u.ID))
	return u, nil
}

// checkPassword сравнивает пароль с сохранённым значением:
// bcrypt-хеш проверяется через bcrypt, иначе значение считается открытым текстом.
func checkPassword(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && strings.HasPrefix(s, "$2")
}
