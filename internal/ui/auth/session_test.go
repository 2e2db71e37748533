package auth

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestSessionEncryptDecryptRoundTrip проверяет шифрование и дешифрование SessionData.
func TestSessionEncryptDecryptRoundTrip(t *testing.T) {
	sm, err := NewSessionManager("", false)
	if err != nil {
		t.Fatalf("Ошибка создания SessionManager: %v", err)
	}

	original := NewSessionData(42, "taro")

	encrypted, err := sm.Encrypt(original)
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	if encrypted == "" {
		t.Fatal("Зашифрованная строка пустая")
	}

	decrypted, err := sm.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Ошибка дешифрования: %v", err)
	}

	if decrypted.UserID != original.UserID {
		t.Errorf("UserID: want %d, got %d", original.UserID, decrypted.UserID)
	}
	if decrypted.LoginID != original.LoginID {
		t.Errorf("LoginID: want %q, got %q", original.LoginID, decrypted.LoginID)
	}
	if decrypted.IssuedAt != original.IssuedAt {
		t.Errorf("IssuedAt: want %d, got %d", original.IssuedAt, decrypted.IssuedAt)
	}
	if time.Since(time.Unix(decrypted.IssuedAt, 0)) > time.Minute {
		t.Errorf("IssuedAt слишком старый: %d", decrypted.IssuedAt)
	}
}

// TestSessionManagerKeyFormats проверяет base64-ключ и произвольную строку.
func TestSessionManagerKeyFormats(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	keys := map[string]string{
		"base64":  base64.StdEncoding.EncodeToString(raw),
		"строка":  "my-secret-key-for-testing",
		"unicode": "ключ-сессии",
	}

	for name, key := range keys {
		t.Run(name, func(t *testing.T) {
			sm, err := NewSessionManager(key, false)
			if err != nil {
				t.Fatalf("Ошибка создания SessionManager: %v", err)
			}
			encrypted, err := sm.Encrypt(&SessionData{UserID: 7})
			if err != nil {
				t.Fatalf("Ошибка шифрования: %v", err)
			}

			// Тот же ключ в новом менеджере читает старые cookie.
			again, _ := NewSessionManager(key, false)
			decrypted, err := again.Decrypt(encrypted)
			if err != nil {
				t.Fatalf("Ошибка дешифрования: %v", err)
			}
			if decrypted.UserID != 7 {
				t.Errorf("UserID: want 7, got %d", decrypted.UserID)
			}
		})
	}
}

// TestSessionDecryptWithWrongKey проверяет, что дешифрование чужим ключом не работает.
func TestSessionDecryptWithWrongKey(t *testing.T) {
	sm1, _ := NewSessionManager("key-one", false)
	sm2, _ := NewSessionManager("key-two", false)

	encrypted, err := sm1.Encrypt(&SessionData{UserID: 1})
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}

	if _, err := sm2.Decrypt(encrypted); err == nil {
		t.Error("Ожидалась ошибка при дешифровании чужим ключом")
	}
}

// TestSessionDecryptGarbage проверяет отказ на повреждённых данных.
func TestSessionDecryptGarbage(t *testing.T) {
	sm, _ := NewSessionManager("test-key", false)

	for _, v := range []string{"%%%", "", base64.URLEncoding.EncodeToString([]byte("short"))} {
		if _, err := sm.Decrypt(v); err == nil {
			t.Errorf("Decrypt(%q): ожидалась ошибка", v)
		}
	}
}

// TestSessionCookieSetAndGet проверяет установку и извлечение cookie.
func TestSessionCookieSetAndGet(t *testing.T) {
	sm, _ := NewSessionManager("test-key", true)

	data := NewSessionData(3, "hanako")

	w := httptest.NewRecorder()
	if err := sm.SetSessionCookie(w, data); err != nil {
		t.Fatalf("Ошибка установки cookie: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Cookie не установлен")
	}

	req := httptest.NewRequest(http.MethodGet, "/master/m_users/", nil)
	req.AddCookie(cookies[0])

	got, err := sm.GetSessionFromRequest(req)
	if err != nil {
		t.Fatalf("Ошибка чтения сессии из cookie: %v", err)
	}
	if got == nil {
		t.Fatal("Сессия не найдена")
	}
	if got.UserID != 3 || got.LoginID != "hanako" {
		t.Errorf("Сессия: got %+v", got)
	}

	cookie := cookies[0]
	if cookie.Name != SessionCookieName {
		t.Errorf("Cookie name: want %q, got %q", SessionCookieName, cookie.Name)
	}
	if cookie.Path != "/" {
		t.Errorf("Cookie path: want %q, got %q", "/", cookie.Path)
	}
	if !cookie.HttpOnly {
		t.Error("Cookie должен быть HttpOnly")
	}
	if !cookie.Secure {
		t.Error("Cookie должен быть Secure")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Error("Cookie должен быть SameSite=Lax")
	}
}

// TestSessionCookieMissing проверяет, что отсутствие cookie возвращает nil, nil.
func TestSessionCookieMissing(t *testing.T) {
	sm, _ := NewSessionManager("test-key", false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	data, err := sm.GetSessionFromRequest(req)
	if err != nil {
		t.Fatalf("Ожидалось nil error, получено: %v", err)
	}
	if data != nil {
		t.Error("Ожидалось nil data при отсутствии cookie")
	}
}

// TestClearSessionCookie проверяет очистку session cookie.
func TestClearSessionCookie(t *testing.T) {
	sm, _ := NewSessionManager("test-key", false)

	w := httptest.NewRecorder()
	sm.ClearSessionCookie(w)

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Cookie очистки не установлен")
	}

	cookie := cookies[0]
	if cookie.MaxAge != -1 {
		t.Errorf("MaxAge: want -1, got %d", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Error("Value должен быть пустым")
	}
	if cookie.Path != "/" {
		t.Errorf("Cookie path: want %q, got %q", "/", cookie.Path)
	}
}
