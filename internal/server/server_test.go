package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	apihandlers "github.com/bigkaa/tnkp-admin/internal/api/handlers"
	"github.com/bigkaa/tnkp-admin/internal/config"
	"github.com/bigkaa/tnkp-admin/internal/domain/model"
	"github.com/bigkaa/tnkp-admin/internal/fieldmeta"
	"github.com/bigkaa/tnkp-admin/internal/records"
	"github.com/bigkaa/tnkp-admin/internal/repository/repotest"
	"github.com/bigkaa/tnkp-admin/internal/service"
	"github.com/bigkaa/tnkp-admin/internal/ui/auth"
	uihandlers "github.com/bigkaa/tnkp-admin/internal/ui/handlers"
	uimiddleware "github.com/bigkaa/tnkp-admin/internal/ui/middleware"
	"github.com/bigkaa/tnkp-admin/internal/ui/pages"
)

// testEnv — роутер на хранилищах в памяти.
type testEnv struct {
	router http.Handler
	store  *repotest.Store
}

func newTestEnv(t *testing.T, authMode string) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	loader := fieldmeta.NewLoader(fieldmeta.EmbeddedFS())
	reg, err := loader.LoadRegistry(records.All())
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	store := repotest.NewStore()
	proxies, err := service.ViewProxies(reg)
	if err != nil {
		t.Fatalf("ViewProxies: %v", err)
	}
	svcs, err := service.NewRecordServices(reg, store, proxies,
		service.Paging{DefaultPerPage: 10, MaxPerPage: 100}, logger)
	if err != nil {
		t.Fatalf("NewRecordServices: %v", err)
	}

	renderer, err := pages.NewRenderer(reg, nil, logger)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	sm, err := auth.NewSessionManager("test-key", false)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	users := repotest.NewUsers(&model.User{ID: 1, LoginID: "taro", Password: "secret", LastName: "山田"})
	authSvc := service.NewAuthService(users, logger)
	dashSvc := service.NewDashboardService(reg, store, &repotest.Activity{}, logger)

	c := &Components{
		Health:         apihandlers.NewHealthHandler(nil),
		Auth:           uihandlers.NewAuthHandler(authSvc, sm, renderer, logger),
		Dashboard:      uihandlers.NewDashboardHandler(loader, dashSvc, renderer, logger),
		SessionManager: sm,
		RequireUser:    uimiddleware.NewRequireUser(authSvc, uihandlers.NewErrorWriter(renderer, logger), logger),
	}
	for _, svc := range svcs {
		c.Records = append(c.Records, uihandlers.NewRecordsHandler(svc, renderer, logger))
	}

	cfg := &config.Config{AuthMode: authMode}
	return &testEnv{router: NewRouter(cfg, logger, c), store: store}
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// login выполняет вход и возвращает cookie сессии.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := e.do(postForm("/login", url.Values{"userid": {"taro"}, "passwd": {"secret"}}))
	if w.Code != http.StatusFound {
		t.Fatalf("POST /login: want 302, got %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatal("POST /login: cookie сессии не установлен")
	return nil
}

// TestLoginThenList — после входа список доступен, без входа — redirect на /login.
func TestLoginThenList(t *testing.T) {
	env := newTestEnv(t, config.AuthModeStrict)

	w := env.do(httptest.NewRequest(http.MethodGet, "/master/m_customers/", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("Аноним: want 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location: want /login, got %q", loc)
	}

	cookie := env.login(t)
	w = env.do(httptest.NewRequest(http.MethodGet, "/master/m_customers/", nil), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("После входа: want 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "山田") {
		t.Error("Имя пользователя не выведено в шапке")
	}
}

// TestLoginInvalidCredentials — неверный пароль: JSON со статусом 200.
func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t, config.AuthModeStrict)

	w := env.do(postForm("/login", url.Values{"userid": {"taro"}, "passwd": {"wrong"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"Invalid credentials"}` {
		t.Errorf("Тело ответа: %s", got)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("Cookie сессии не должен устанавливаться")
	}
}

// TestCreateThenRead — созданная запись доступна по /master/m_customers/{id}.
func TestCreateThenRead(t *testing.T) {
	env := newTestEnv(t, config.AuthModeStrict)
	cookie := env.login(t)

	form := url.Values{"code": {"C1"}, "name": {"Acme"}, "delflg": {"0"}}
	w := env.do(postForm("/master/m_customers/", form), cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("POST: want 303, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/master/m_customers/" {
		t.Errorf("Location: want /master/m_customers/, got %q", loc)
	}

	rows := env.store.Rows("m_customers")
	if len(rows) != 1 {
		t.Fatalf("Строк m_customers: want 1, got %d", len(rows))
	}
	id := rows[0].ID("id")

	w = env.do(httptest.NewRequest(http.MethodGet, "/master/m_customers/"+id, nil), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("GET detail: want 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"C1", "Acme"} {
		if !strings.Contains(body, want) {
			t.Errorf("Детальная страница не содержит %q", want)
		}
	}
}

// TestListWithoutTrailingSlash — /{cat}/{table} ведёт себя как список.
func TestListWithoutTrailingSlash(t *testing.T) {
	env := newTestEnv(t, config.AuthModeStrict)
	cookie := env.login(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/master/m_customers", nil), cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
}

// TestAuthModes проверяет охват проверки сессии в режимах strict и legacy.
func TestAuthModes(t *testing.T) {
	tests := []struct {
		mode string
		path string
		want int
	}{
		{config.AuthModeStrict, "/master/m_customers/", http.StatusFound},
		{config.AuthModeStrict, "/master/m_customers/new", http.StatusFound},
		{config.AuthModeStrict, "/api/stats/users", http.StatusFound},
		{config.AuthModeStrict, "/", http.StatusFound},
		{config.AuthModeLegacy, "/master/m_customers/", http.StatusFound},
		{config.AuthModeLegacy, "/master", http.StatusFound},
		{config.AuthModeLegacy, "/master/m_customers/new", http.StatusOK},
		{config.AuthModeLegacy, "/api/stats/users", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.mode+" "+tt.path, func(t *testing.T) {
			env := newTestEnv(t, tt.mode)
			w := env.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("want %d, got %d", tt.want, w.Code)
			}
		})
	}
}

// TestPublicEndpoints — служебные маршруты доступны без сессии.
func TestPublicEndpoints(t *testing.T) {
	env := newTestEnv(t, config.AuthModeStrict)

	for _, path := range []string{"/health/live", "/metrics", "/login", "/static/css/app.css", "/static/js/app.js"} {
		w := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: want 200, got %d", path, w.Code)
		}
	}
}

// TestLogout — выход очищает cookie и перенаправляет на /.
func TestLogout(t *testing.T) {
	env := newTestEnv(t, config.AuthModeStrict)
	cookie := env.login(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/logout", nil), cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("want 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: want /, got %q", loc)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 || cookies[0].MaxAge != -1 {
		t.Error("Cookie сессии не очищен")
	}
}

// TestDeletedSessionUser — пользователь сессии удалён из m_users: 404.
func TestDeletedSessionUser(t *testing.T) {
	env := newTestEnv(t, config.AuthModeStrict)

	sm, _ := auth.NewSessionManager("test-key", false)
	value, err := sm.Encrypt(auth.NewSessionData(99, "ghost"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	cookie := &http.Cookie{Name: auth.SessionCookieName, Value: value}

	w := env.do(httptest.NewRequest(http.MethodGet, "/master/m_customers/", nil), cookie)
	if w.Code != http.StatusNotFound {
		t.Errorf("want 404, got %d", w.Code)
	}
}
