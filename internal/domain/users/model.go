package users

import "time"

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type User struct {
	ID          int64
	TelegramID  int64
	Username    string
	FirstName   string
	LastName    string
	Role        Role
	WorkspaceID string // пустая строка, пока пространство не выбрано
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Telegram struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}
