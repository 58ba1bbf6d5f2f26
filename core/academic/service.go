package academic

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

// Service is the entry point of the academic records: every operation takes the acting Actor,
// resolves its Scope and runs within a transaction of the Store.
type Service struct {
	store   Store
	conf    core.RecordsConfig
	appName string
	clock   core.Clock
	logger  core.Logger
	mailSvc core.EmailService
}

func NewService(store Store, conf *core.Config, clock core.Clock, logger core.Logger, mailSvc core.EmailService) *Service {
	return &Service{
		store:   store,
		conf:    conf.Records,
		appName: conf.AppName,
		clock:   clock,
		logger:  logger,
		mailSvc: mailSvc,
	}
}

func (svc *Service) now() time.Time {
	return svc.clock.Now().UTC()
}

// scoped runs fn within a transaction, with the actor's Scope resolved from the same transaction.
func (svc *Service) scoped(ctx context.Context, actor Actor, fn func(ctx context.Context, repo Repository, scope *Scope) error) error {
	return svc.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		scope, err := NewResolver(repo).Scope(ctx, actor)
		if err != nil {
			return err
		}
		return fn(ctx, repo, scope)
	})
}

// adminOnly runs fn for administrators and rejects everyone else.
func (svc *Service) adminOnly(ctx context.Context, actor Actor, entity string, op Operation, fn func(ctx context.Context, repo Repository) error) error {
	return svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		if !scope.Unrestricted() {
			return scope.Check(entity, op, 0)
		}
		return fn(ctx, repo)
	})
}

// Scope resolves the Scope of `actor`.
func (svc *Service) Scope(ctx context.Context, actor Actor) (*Scope, error) {
	return NewResolver(svc.store).Scope(ctx, actor)
}

// DeleteAccount deletes the account and its role profile, with the profile's dependents.
func (svc *Service) DeleteAccount(ctx context.Context, actor Actor, accountID int) error {
	return svc.adminOnly(ctx, actor, EntityAccount, OpDelete, func(ctx context.Context, repo Repository) error {
		return deleteCascading(ctx, repo, EntityAccount, accountID)
	})
}

// uniqueConflict translates a unique constraint violation into a core.KindConflict error.
func uniqueConflict(err error, entity, msg string) error {
	if errors.Is(err, core.ErrUniqueViolation) {
		return core.NewConflictError(entity, msg, err)
	}
	return err
}

// missingReference translates a foreign key violation on insert into a core.KindNotFound error.
func missingReference(err error, entity string, id interface{}) error {
	if errors.Is(err, core.ErrForeignKeyViolation) {
		return &core.Error{Kind: core.KindNotFound, Entity: entity, Msg: fmt.Sprintf("%s %v not found", entity, id), Err: err}
	}
	return err
}
