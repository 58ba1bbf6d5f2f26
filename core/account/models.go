package account

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/academia/core"
)

// Role is the single role tag carried by an Account.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleInstructor    Role = "instructor"
	RoleStudent       Role = "student"
)

var Roles = []Role{RoleAdministrator, RoleInstructor, RoleStudent}

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleInstructor, RoleStudent:
		return true
	default:
		return false
	}
}

// Account is the authentication anchor owned by exactly one role profile.
type Account struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"` // unique, case-sensitive
	PasswordHash []byte    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// NewAccount contains information needed to create a new Account.
type NewAccount struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

// Clean trims the input. Emails keep their case since uniqueness is case-sensitive.
func (na *NewAccount) Clean() {
	na.Email = core.CleanString(na.Email)
	na.FirstName = core.CleanString(na.FirstName)
	na.LastName = core.CleanString(na.LastName)
}

func (na *NewAccount) Validate() error {
	na.Clean()
	return core.ValidateStruct(na)
}

// Build returns the Account for `role`, with the password hashed.
func (na NewAccount) Build(role Role, now time.Time) (Account, error) {
	acc := Account{
		Email:     na.Email,
		FirstName: na.FirstName,
		LastName:  na.LastName,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, err
	}
	return acc, nil
}

type NewPassword struct {
	Password string `json:"password" validate:"required,min=8"`
}

func (np *NewPassword) Validate() error {
	return core.ValidateStruct(np)
}

// UpdateNames defines the name fields that may be changed on an existing Account.
type UpdateNames struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// Apply sets the non-empty names on `acc`.
func (un UpdateNames) Apply(acc *Account) {
	if name := core.CleanString(un.FirstName); name != "" {
		acc.FirstName = name
	}
	if name := core.CleanString(un.LastName); name != "" {
		acc.LastName = name
	}
}
