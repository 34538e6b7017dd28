package domain

import (
	"strings"
	"time"
)

// User — учётная запись покупателя. PasswordHash никогда не отдаётся наружу.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPatch — частичное обновление пользователя; nil означает "не менять".
type UserPatch struct {
	Email        *string
	Name         *string
	PasswordHash *string
}

// Empty сообщает, что в патче нет ни одного поля.
func (p UserPatch) Empty() bool {
	return p.Email == nil && p.Name == nil && p.PasswordHash == nil
}

// Apply возвращает копию пользователя с применёнными полями.
func (p UserPatch) Apply(u User) User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	return u
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToUpper(s), strings.ToUpper(substr))
}
