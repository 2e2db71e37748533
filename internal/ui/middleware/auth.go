// Пакет middleware — HTTP middleware админ-панели.
// auth.go — чтение cookie-сессии и проверка пользователя сессии.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/tnkp-admin/internal/domain/model"
	"github.com/bigkaa/tnkp-admin/internal/service"
	"github.com/bigkaa/tnkp-admin/internal/ui/auth"
)

// contextKey — тип для ключей контекста UI (избегаем коллизий с API middleware).
type contextKey string

const (
	// ContextKeyUISession — данные сессии в контексте запроса.
	ContextKeyUISession contextKey = "ui_session"
	// ContextKeyUser — пользователь, прошедший RequireUser.
	ContextKeyUser contextKey = "ui_user"
)

// LoginPath — страница входа, на которую перенаправляются анонимные запросы.
const LoginPath = "/login"

// Session — middleware, помещающее SessionData из cookie в контекст.
// Повреждённый cookie удаляется, запрос продолжается как анонимный.
func Session(sm *auth.SessionManager, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "ui_session_middleware"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sm.GetSessionFromRequest(r)
			if err != nil {
				logger.Debug("Ошибка чтения сессии",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				sm.ClearSessionCookie(w)
				session = nil
			}
			if session != nil {
				r = r.WithContext(context.WithValue(r.Context(), ContextKeyUISession, session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserResolver — проверка пользователя сессии.
type UserResolver interface {
	CurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

// ErrorWriter отвечает страницей ошибки со статусом status.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, message string)

// RequireUser — middleware, пропускающее только запросы с действующим пользователем сессии.
// Нет сессии — redirect на /login, пользователь не найден — 404.
type RequireUser struct {
	users    UserResolver
	writeErr ErrorWriter
	logger   *slog.Logger
}

// NewRequireUser создаёт RequireUser.
func NewRequireUser(users UserResolver, writeErr ErrorWriter, logger *slog.Logger) *RequireUser {
	return &RequireUser{
		users:    users,
		writeErr: writeErr,
		logger:   logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware проверки пользователя.
func (ru *RequireUser) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID int64
			if session := SessionFromContext(r.Context()); session != nil {
				userID = session.UserID
			}

			user, err := ru.users.CurrentUser(r.Context(), userID)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrUnauthorized):
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			case errors.Is(err, service.ErrNotFound):
				ru.logger.Info("Пользователь сессии не найден", slog.Int64("user_id", userID))
				ru.writeErr(w, r, http.StatusNotFound, err.Error())
				return
			default:
				ru.logger.Error("Ошибка проверки пользователя сессии",
					slog.Int64("user_id", userID),
					slog.String("error", err.Error()),
				)
				ru.writeErr(w, r, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext извлекает SessionData из контекста запроса.
// Возвращает nil для анонимного запроса.
func SessionFromContext(ctx context.Context) *auth.SessionData {
	session, ok := ctx.Value(ContextKeyUISession).(*auth.SessionData)
	if !ok {
		return nil
	}
	return session
}

// UserFromContext извлекает пользователя, проверенного RequireUser.
func UserFromContext(ctx context.Context) *model.User {
	user, ok := ctx.Value(ContextKeyUser).(*model.User)
	if !ok {
		return nil
	}
	return user
}
