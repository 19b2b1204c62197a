package services

import (
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"github.com/shauritanga/twa-system/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// locker may be nil, in which case dispatches rely on the database alone.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, locker portsrepo.Locker, opts ...Option) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(repos.AccountRepo, repos.TxManager, opts...)
	container.Projector = NewBalanceProjector(container.Account, repos.AccountRepo, repos.ReportingRepo, opts...)
	container.Journal = NewJournalService(repos.JournalRepo, repos.AccountRepo, container.Projector, repos.TxManager, opts...)

	dispatcherOpts := []DispatcherOption{WithDispatcherBase(opts...)}
	if locker != nil {
		ttl := DefaultPostingLockTTL
		if cfg != nil {
			ttl = cfg.PostingLockTTL
		}
		dispatcherOpts = append(dispatcherOpts, WithLocker(locker, ttl))
	}
	container.Dispatcher = NewPostingDispatcher(container.Journal, repos.AccountRepo, repos.PostingRepo, repos.RecordRepo, repos.TxManager, dispatcherOpts...)

	container.Ledger = NewLedgerService(container.Dispatcher, container.Journal, container.Account, container.Projector, repos.TxManager, opts...)
	container.Lifecycle = NewLifecycleService(repos.RecordRepo, container.Ledger, repos.TxManager, opts...)

	return container
}
