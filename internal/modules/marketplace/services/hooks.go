package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/audit"
	"github.com/presupuestalo/marketplace-be/internal/core/notification"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
)

// Notifier delivers in-app and email notifications, best effort
type Notifier interface {
	Notify(ctx context.Context, accountID uuid.UUID, n notification.Notification)
}

// Auditor records committed business operations
type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, uuid.UUID, notification.Notification) {}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, audit.Entry) {}

// afterCommit collects side effects that must only happen once the
// transaction that produced them committed
type afterCommit []func(ctx context.Context)

func (a *afterCommit) add(fn func(ctx context.Context)) {
	*a = append(*a, fn)
}

func (a afterCommit) run(ctx context.Context) {
	for _, fn := range a {
		fn(ctx)
	}
}

// inTx runs fn in one transaction and fires its side effects after commit
func inTx(ctx context.Context, store repositories.Store, fn func(tx repositories.Store, hooks *afterCommit) error) error {
	var hooks afterCommit
	err := store.Transaction(ctx, func(tx repositories.Store) error {
		hooks = hooks[:0]
		return fn(tx, &hooks)
	})
	if err != nil {
		return err
	}
	hooks.run(ctx)
	return nil
}
