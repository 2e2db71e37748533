// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrUnauthorized — в сессии нет идентификатора пользователя.
	ErrUnauthorized = errors.New("требуется аутентификация")
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrBadRequest — запрос отклонён хранилищем или содержит неизвестные поля.
	ErrBadRequest = errors.New("некорректный запрос")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrInvalidCredentials — неверный логин или пароль.
	ErrInvalidCredentials = errors.New("неверные учётные данные")
)
