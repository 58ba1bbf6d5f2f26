package inmemdb

import (
	"context"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
	"github.com/trezcool/academia/core/account"
)

func (t *tables) checkEmail(email string, exclID int) error {
	for _, acc := range t.accounts {
		if acc.Email == email && acc.ID != exclID {
			return uniqueErr("account email %q", email)
		}
	}
	return nil
}

func (s *store) CreateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	defer s.lock()()
	t := s.db.t

	if err := t.checkEmail(acc.Email, 0); err != nil {
		return account.Account{}, err
	}
	acc.ID = t.nextID()
	t.accounts[acc.ID] = acc
	return acc, nil
}

func (s *store) GetAccount(_ context.Context, id int) (account.Account, error) {
	defer s.lock()()
	return getRow(s.db.t.accounts, academic.EntityAccount, id)
}

func (s *store) GetAccountByEmail(_ context.Context, email string) (account.Account, error) {
	defer s.lock()()
	for _, acc := range s.db.t.accounts {
		if acc.Email == email {
			return acc, nil
		}
	}
	return account.Account{}, core.NewNotFoundError(academic.EntityAccount, email)
}

func (s *store) ListAccounts(_ context.Context, ids ...int) ([]account.Account, error) {
	defer s.lock()()
	var filter []int
	if len(ids) > 0 {
		filter = ids
	}
	return selectRows(s.db.t.accounts, func(acc account.Account) bool { return matches(filter, acc.ID) }), nil
}

func (s *store) UpdateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	defer s.lock()()
	t := s.db.t

	if _, ok := t.accounts[acc.ID]; !ok {
		return account.Account{}, core.NewNotFoundError(academic.EntityAccount, acc.ID)
	}
	if err := t.checkEmail(acc.Email, acc.ID); err != nil {
		return account.Account{}, err
	}
	t.accounts[acc.ID] = acc
	return acc, nil
}

// DeleteAccount fails while a profile still references the account.
func (s *store) DeleteAccount(_ context.Context, id int) error {
	defer s.lock()()
	t := s.db.t

	for _, adm := range t.admins {
		if adm.AccountID == id {
			return fkErr("account %d referenced by administrator %d", id, adm.ID)
		}
	}
	for _, inst := range t.instructors {
		if inst.AccountID == id {
			return fkErr("account %d referenced by instructor %d", id, inst.ID)
		}
	}
	for _, std := range t.students {
		if std.AccountID == id {
			return fkErr("account %d referenced by student %d", id, std.ID)
		}
	}
	delete(t.accounts, id)
	return nil
}

func (s *store) CreateAdministrator(_ context.Context, adm academic.Administrator) (academic.Administrator, error) {
	defer s.lock()()
	t := s.db.t

	if _, ok := t.accounts[adm.AccountID]; !ok {
		return academic.Administrator{}, fkErr("administrator account %d", adm.AccountID)
	}
	for _, other := range t.admins {
		if other.AccountID == adm.AccountID {
			return academic.Administrator{}, uniqueErr("administrator account %d", adm.AccountID)
		}
		if other.EmployeeCode == adm.EmployeeCode {
			return academic.Administrator{}, uniqueErr("administrator employee code %q", adm.EmployeeCode)
		}
	}
	adm.ID = t.nextID()
	t.admins[adm.ID] = adm
	return adm, nil
}

func (s *store) GetAdministratorByAccount(_ context.Context, accountID int) (academic.Administrator, error) {
	defer s.lock()()
	for _, adm := range s.db.t.admins {
		if adm.AccountID == accountID {
			return adm, nil
		}
	}
	return academic.Administrator{}, core.NewNotFoundError(academic.EntityAdministrator, accountID)
}

func (s *store) DeleteAdministrator(_ context.Context, id int) error {
	defer s.lock()()
	delete(s.db.t.admins, id)
	return nil
}
