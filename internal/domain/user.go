package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// User is a platform account. Lead-registration activates it; investor and
// syndicate onboarding attach profiles to it.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Activated    bool
	CreatedAt    time.Time
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id is required")
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if strings.TrimSpace(u.PasswordHash) == "" {
		return errors.New("password hash is required")
	}
	return nil
}

func ValidateEmail(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return errors.New("email is malformed")
	}
	return nil
}
