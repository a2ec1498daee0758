package model

import (
	"strings"
	"time"

	"chitfund-backend/internal/domain"
)

// User is a subscriber account.
type User struct {
	ID             string
	Name           string
	Email          string
	Phone          string
	TelegramChatID *int64
	CreatedAt      time.Time
}

func NewUser(id, name, email, phone string) (*User, error) {
	if id == "" || strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Phone:     strings.TrimSpace(phone),
		CreatedAt: time.Now(),
	}, nil
}

// Contact is the notification target for an account.
type Contact struct {
	Name           string
	Email          string
	TelegramChatID *int64
}

func (u *User) Contact() Contact {
	return Contact{Name: u.Name, Email: u.Email, TelegramChatID: u.TelegramChatID}
}
