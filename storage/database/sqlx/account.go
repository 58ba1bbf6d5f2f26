package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/trezcool/academia/core/academic"
	"github.com/trezcool/academia/core/account"
)

func (s *store) CreateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	id, err := s.insert(ctx, `
		INSERT INTO accounts (email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
		VALUES (:email, :password_hash, :first_name, :last_name, :role, :is_active, :created_at, :updated_at)
		RETURNING id`, acc)
	if err != nil {
		return account.Account{}, translate(err, "creating account %q", acc.Email)
	}
	acc.ID = id
	return acc, nil
}

func (s *store) GetAccount(ctx context.Context, id int) (account.Account, error) {
	var acc account.Account
	err := s.get(ctx, &acc, academic.EntityAccount, id, "SELECT * FROM accounts WHERE id = ?", id)
	return acc, err
}

func (s *store) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	var acc account.Account
	err := s.get(ctx, &acc, academic.EntityAccount, email, "SELECT * FROM accounts WHERE email = ?", email)
	return acc, err
}

func (s *store) ListAccounts(ctx context.Context, ids ...int) ([]account.Account, error) {
	var filter []int
	if len(ids) > 0 {
		filter = ids
	}
	accounts := make([]account.Account, 0)
	err := s.list(ctx, &accounts, "accounts", new(where).in("id", filter), "id")
	return accounts, err
}

func (s *store) UpdateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	err := s.update(ctx, `
		UPDATE accounts
		SET email = :email, password_hash = :password_hash, first_name = :first_name, last_name = :last_name,
			role = :role, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`, acc, academic.EntityAccount, acc.ID)
	if err != nil {
		return account.Account{}, err
	}
	return acc, nil
}

func (s *store) DeleteAccount(ctx context.Context, id int) error {
	_, err := s.delete(ctx, "accounts", new(where).and(sq.Eq{"id": id}))
	return err
}

func (s *store) CreateAdministrator(ctx context.Context, adm academic.Administrator) (academic.Administrator, error) {
	id, err := s.insert(ctx, `
		INSERT INTO administrators (account_id, employee_code, created_at)
		VALUES (:account_id, :employee_code, :created_at)
		RETURNING id`, adm)
	if err != nil {
		return academic.Administrator{}, translate(err, "creating administrator of account %d", adm.AccountID)
	}
	adm.ID = id
	return adm, nil
}

func (s *store) GetAdministratorByAccount(ctx context.Context, accountID int) (academic.Administrator, error) {
	var adm academic.Administrator
	err := s.get(ctx, &adm, academic.EntityAdministrator, accountID, "SELECT * FROM administrators WHERE account_id = ?", accountID)
	return adm, err
}

func (s *store) DeleteAdministrator(ctx context.Context, id int) error {
	_, err := s.delete(ctx, "administrators", new(where).and(sq.Eq{"id": id}))
	return err
}
