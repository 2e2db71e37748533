// Пакет model — доменные модели, используемые вне обобщённого CRUD.
package model

// User — учётная запись из таблицы m_users.
type User struct {
	// ID — первичный ключ m_users.id
	ID int64
	// LoginID — логин (m_users.userid)
	LoginID string
	// Password — сохранённый пароль: bcrypt-хэш или открытый текст (старые данные)
	Password string
	// FirstName — имя (fname)
	FirstName string
	// LastName — фамилия (lname)
	LastName string
	// Permission — уровень прав
	Permission int
	// Facilitator — пользователь может вести работы
	Facilitator bool
	// Deleted — мягко удалён (delflg = 1); на вход не влияет
	Deleted bool
}

// DisplayName возвращает имя для отображения в интерфейсе.
func (u *User) DisplayName() string {
	switch {
	case u.LastName != "" && u.FirstName != "":
		return u.LastName + " " + u.FirstName
	case u.LastName != "":
		return u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LoginID
	}
}
