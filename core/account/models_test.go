package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
)

func TestAccount_SetPassword(t *testing.T) {
	var acc Account
	require.NoError(t, acc.SetPassword("s3cr3t-pwd"))

	assert.NotEqual(t, []byte("s3cr3t-pwd"), acc.PasswordHash)
	assert.NoError(t, acc.CheckPassword("s3cr3t-pwd"))
	assert.Error(t, acc.CheckPassword("wrong-pwd"))
}

func TestAccount_FullName(t *testing.T) {
	tests := []struct {
		name string
		acc  Account
		want string
	}{
		{name: "both names", acc: Account{FirstName: "Ada", LastName: "Lovelace"}, want: "Ada Lovelace"},
		{name: "first name only", acc: Account{FirstName: "Ada"}, want: "Ada"},
		{name: "empty", acc: Account{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.acc.FullName(); got != tt.want {
				t.Errorf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewAccount_Validate(t *testing.T) {
	tests := []struct {
		name      string
		na        NewAccount
		wantErr   bool
		wantEmail string
	}{
		{
			name:      "valid keeps email case",
			na:        NewAccount{Email: "  Ada@Example.com ", Password: "long-enough", FirstName: "Ada", LastName: "L"},
			wantEmail: "Ada@Example.com",
		},
		{name: "bad email", na: NewAccount{Email: "nope", Password: "long-enough", FirstName: "A", LastName: "L"}, wantErr: true},
		{name: "short password", na: NewAccount{Email: "a@b.cd", Password: "short", FirstName: "A", LastName: "L"}, wantErr: true},
		{name: "missing names", na: NewAccount{Email: "a@b.cd", Password: "long-enough"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.na.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				assert.Equal(t, core.KindInvalidArgument, core.KindOf(err))
				return
			}
			assert.Equal(t, tt.wantEmail, tt.na.Email)
		})
	}
}

func TestNewAccount_Build(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	na := NewAccount{Email: "a@b.cd", Password: "long-enough", FirstName: "A", LastName: "L"}

	acc, err := na.Build(RoleInstructor, now)
	require.NoError(t, err)
	assert.Equal(t, RoleInstructor, acc.Role)
	assert.True(t, acc.IsActive)
	assert.Equal(t, now, acc.CreatedAt)
	assert.NoError(t, acc.CheckPassword("long-enough"))
}

func TestRole_Valid(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("teacher").Valid())
}
