package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/tnkp-admin/internal/domain/model"
	"github.com/bigkaa/tnkp-admin/internal/repository"
)

// memUsers — UserRepository в памяти.
type memUsers struct {
	users []*model.User
	err   error
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByLoginID(_ context.Context, loginID string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.LoginID == loginID {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func TestCurrentUser(t *testing.T) {
	svc := NewAuthService(&memUsers{users: []*model.User{{ID: 1, LoginID: "taro"}}}, testLogger())
	ctx := context.Background()

	if _, err := svc.CurrentUser(ctx, 0); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("без id: ожидалась ErrUnauthorized, получено %v", err)
	}
	if _, err := svc.CurrentUser(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("неизвестный id: ожидалась ErrNotFound, получено %v", err)
	}
	u, err := svc.CurrentUser(ctx, 1)
	if err != nil || u.LoginID != "taro" {
		t.Errorf("CurrentUser(1) = %v, %v", u, err)
	}

	broken := NewAuthService(&memUsers{err: errors.New("db down")}, testLogger())
	if _, err := broken.CurrentUser(ctx, 1); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("ошибка хранилища не должна превращаться в ErrNotFound: %v", err)
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewAuthService(&memUsers{users: []*model.User{
		{ID: 1, LoginID: "plain", Password: "pw"},
		{ID: 2, LoginID: "hashed", Password: string(hash)},
		{ID: 3, LoginID: "empty", Password: ""},
	}}, testLogger())

	tests := []struct {
		name     string
		login    string
		password string
		wantID   int64
	}{
		{"открытый текст", "plain", "pw", 1},
		{"bcrypt", "hashed", "s3cret", 2},
		{"неверный пароль", "plain", "PW", 0},
		{"неверный bcrypt", "hashed", "pw", 0},
		{"хеш как пароль", "hashed", string(hash), 0},
		{"неизвестный логин", "nobody", "pw", 0},
		{"пустой пароль", "empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Login(context.Background(), tt.login, tt.password)
			if tt.wantID == 0 {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Errorf("ожидалась ErrInvalidCredentials, получено %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() ошибка: %v", err)
			}
			if u.ID != tt.wantID {
				t.Errorf("ID = %d, ожидается %d", u.ID, tt.wantID)
			}
		})
	}
}
