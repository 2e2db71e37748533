// auth.go — вход по логину и паролю m_users и выход.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/tnkp-admin/internal/service"
	"github.com/bigkaa/tnkp-admin/internal/ui/auth"
	"github.com/bigkaa/tnkp-admin/internal/ui/i18n"
	"github.com/bigkaa/tnkp-admin/internal/ui/pages"
)

// invalidCredentialsBody — ответ на неудачный вход (статус 200).
const invalidCredentialsBody = "Invalid credentials"

// AuthHandler — обработчики /login и /logout.
type AuthHandler struct {
	base
	auth           *service.AuthService
	sessionManager *auth.SessionManager
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	sessionManager *auth.SessionManager,
	renderer *pages.Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		base: base{
			renderer: renderer,
			logger:   logger.With(slog.String("component", "ui_auth")),
		},
		auth:           authService,
		sessionManager: sessionManager,
	}
}

// HandleLoginPage — GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	title := i18n.Lookup(lang, "login.title")
	data := pages.LoginData{
		Page: pages.Page{Lang: lang, Title: title},
	}
	h.render(w, r, http.StatusOK, h.renderer.Login(data))
}

// HandleLogin — POST /login (userid, passwd).
// Успех — cookie сессии и redirect на /; неудача — JSON {"error": "Invalid credentials"}.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	loginID := r.PostForm.Get("userid")

	user, err := h.auth.Login(r.Context(), loginID, r.PostForm.Get("passwd"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Info("Неудачная попытка входа",
				slog.String("login_id", loginID),
				slog.String("remote_addr", r.RemoteAddr),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": invalidCredentialsBody})
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.sessionManager.SetSessionCookie(w, auth.NewSessionData(user.ID, user.LoginID)); err != nil {
		h.logger.Error("Ошибка установки cookie сессии", slog.String("error", err.Error()))
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("Пользователь вошёл",
		slog.Int64("user_id", user.ID),
		slog.String("login_id", user.LoginID),
	)
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleLogout — GET /logout. Очищает сессию и перенаправляет на /.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessionManager.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}
