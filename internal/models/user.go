package models

import "time"

type AccountType string

const (
	AccountRegular  AccountType = "regular"
	AccountBusiness AccountType = "business"
)

type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	DisplayName  string      `json:"displayName"`
	PasswordHash string      `json:"-"`
	AccountType  AccountType `json:"accountType"`
	IsAdmin      bool        `json:"isAdmin"`
	HomeSuburb   string      `json:"homeSuburb,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}
