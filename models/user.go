package models

import (
	"golang.org/x/crypto/bcrypt"
)

// User is the identity held by the current session.
type User struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

// SystemUser is the synthetic sender of seeded chat messages.
var SystemUser = User{Name: "System", Email: "system@civicsync.local"}

// MayorUser is the sender of chat replies; Name is localized when sent.
var MayorUser = User{Name: "Mayor", Email: "mayor@civicsync.local"}

// Account is one entry of the persisted user directory, keyed by email.
type Account struct {
	Name     string `bson:"name" json:"name"`
	Password string `bson:"password" json:"password"`
}

func (a *Account) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashed)
	return nil
}

func (a *Account) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(candidate))
	return err == nil
}
