package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/tnkp-admin/internal/domain/model"
)

// UserRepository — чтение учётных записей m_users для аутентификации.
type UserRepository interface {
	// GetByID возвращает пользователя по первичному ключу. Если не найден — ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByLoginID возвращает пользователя по логину (userid). Если не найден — ErrNotFound.
	GetByLoginID(ctx context.Context, loginID string) (*model.User, error)
}

type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// Колонки m_users допускают NULL: значения приводятся к пустым.
const userColumns = `
	id, COALESCE(userid, ''), COALESCE(passwd, ''),
	COALESCE(fname, ''), COALESCE(lname, ''),
	COALESCE(permission, 0), COALESCE(facilitator, 0) <> 0, COALESCE(delflg, 0) <> 0`

// GetByID возвращает пользователя по id.
func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM m_users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя %d: %w", id, err)
	}
	return u, nil
}

// GetByLoginID возвращает пользователя по логину.
// При дублирующихся логинах берётся строка с наименьшим id.
func (r *userRepo) GetByLoginID(ctx context.Context, loginID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM m_users WHERE userid = $1 ORDER BY id LIMIT 1`
	u, err := scanUser(r.db.QueryRow(ctx, query, loginID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя %q: %w", loginID, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.LoginID, &u.Password,
		&u.FirstName, &u.LastName,
		&u.Permission, &u.Facilitator, &u.Deleted,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}
