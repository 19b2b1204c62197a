package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shauritanga/twa-system/internal/core/posting"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPostingLockTTL bounds how long a posting lock is held when none is configured.
const DefaultPostingLockTTL = 10 * time.Second

// postingDispatcher turns domain events into at most one posted entry per (kind, record, stage).
type postingDispatcher struct {
	BaseService
	registry    *posting.Registry
	journal     portssvc.JournalWriterSvc
	accountRepo portsrepo.AccountReader
	postingRepo portsrepo.PostingRepository
	recordRepo  portsrepo.RecordReferenceRepository
	txManager   portsrepo.TransactionManager
	locker      portsrepo.Locker
	lockTTL     time.Duration
}

// DispatcherOption configures the dispatcher.
type DispatcherOption func(*postingDispatcher)

// WithLocker guards each dispatch with a distributed lock.
func WithLocker(locker portsrepo.Locker, ttl time.Duration) DispatcherOption {
	return func(d *postingDispatcher) {
		d.locker = locker
		if ttl > 0 {
			d.lockTTL = ttl
		}
	}
}

// WithRegistry replaces the default rule table.
func WithRegistry(r *posting.Registry) DispatcherOption {
	return func(d *postingDispatcher) {
		d.registry = r
	}
}

// WithDispatcherBase applies shared service options.
func WithDispatcherBase(opts ...Option) DispatcherOption {
	return func(d *postingDispatcher) {
		d.BaseService = newBaseService(opts)
	}
}

// NewPostingDispatcher creates the dispatcher.
func NewPostingDispatcher(
	journal portssvc.JournalWriterSvc,
	accountRepo portsrepo.AccountReader,
	postingRepo portsrepo.PostingRepository,
	recordRepo portsrepo.RecordReferenceRepository,
	txManager portsrepo.TransactionManager,
	opts ...DispatcherOption,
) portssvc.PostingDispatcherSvc {
	d := &postingDispatcher{
		registry:    posting.DefaultRegistry(),
		journal:     journal,
		accountRepo: accountRepo,
		postingRepo: postingRepo,
		recordRepo:  recordRepo,
		txManager:   txManager,
		lockTTL:     DefaultPostingLockTTL,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ portssvc.PostingDispatcherSvc = (*postingDispatcher)(nil)

// PostingLockKey is the lock key guarding one (kind, record, stage).
func PostingLockKey(p domain.PostingPayload) string {
	return fmt.Sprintf("posting:%s:%d:%s", p.Kind, p.RecordID, p.Stage)
}

func (d *postingDispatcher) Dispatch(ctx context.Context, p domain.PostingPayload) (result domain.PostingResult, err error) {
	ctx, span := d.StartSpan(ctx, "ledger.dispatch", trace.WithAttributes(
		attribute.String("posting.kind", string(p.Kind)),
		attribute.String("posting.stage", string(p.Stage)),
		attribute.Int64("posting.record_id", p.RecordID),
	))
	defer func() { EndSpan(span, err) }()

	logger := d.GetLogger(ctx).With(
		slog.String("kind", string(p.Kind)),
		slog.String("stage", string(p.Stage)),
		slog.Int64("record_id", p.RecordID),
	)

	rule, err := d.registry.Lookup(p.Key())
	if err != nil {
		return domain.PostingResult{}, err
	}

	// lock order: record row, then posting lock
	var lock portsrepo.Lock
	defer func() {
		if lock == nil {
			return
		}
		if rerr := lock.Release(context.WithoutCancel(ctx)); rerr != nil {
			logger.Warn("Failed to release posting lock", slog.String("error", rerr.Error()))
		}
	}()

	err = d.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := d.checkRecord(ctx, p); err != nil {
			return err
		}

		if d.locker != nil {
			l, err := d.locker.Obtain(ctx, PostingLockKey(p), d.lockTTL)
			if err != nil {
				logger.Warn("Posting lock not obtained", slog.String("error", err.Error()))
				return err
			}
			lock = l
		}

		existing, err := d.postingRepo.FindPosting(ctx, p.Kind, p.RecordID, p.Stage)
		if err == nil {
			result = domain.PostingResult{EntryID: existing.EntryID, AlreadyPosted: true}
			return nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		// nested so a lost race on the token rolls back only this attempt
		err = d.txManager.WithTx(ctx, func(ctx context.Context) error {
			entryID, err := d.post(ctx, rule, p)
			if err != nil {
				return err
			}
			result = domain.PostingResult{EntryID: entryID}
			return nil
		})
		if !errors.Is(err, apperrors.ErrDuplicatePosting) {
			return err
		}

		winner, ferr := d.postingRepo.FindPosting(ctx, p.Kind, p.RecordID, p.Stage)
		if ferr != nil {
			return fmt.Errorf("re-reading posting after conflict: %w", ferr)
		}
		result = domain.PostingResult{EntryID: winner.EntryID, AlreadyPosted: true}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidAmount) || errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrInvalidState) {
			logger.Warn("Posting rejected", slog.String("error", err.Error()))
		} else {
			logger.Error("Posting failed", slog.String("error", err.Error()))
		}
		return domain.PostingResult{}, err
	}

	span.SetAttributes(attribute.String("entry_id", result.EntryID), attribute.Bool("already_posted", result.AlreadyPosted))
	if result.AlreadyPosted {
		logger.Info("Posting already recorded", slog.String("entry_id", result.EntryID))
	} else {
		logger.Info("Posting recorded", slog.String("entry_id", result.EntryID))
	}
	return result, nil
}

// checkRecord rejects a posting that disagrees with the locally stored record.
// Records kept by other systems are not checked; the posting token guards them.
func (d *postingDispatcher) checkRecord(ctx context.Context, p domain.PostingPayload) error {
	state, err := d.recordRepo.FindRecordStateForUpdate(ctx, domain.RecordRef{Kind: p.Kind, RecordID: p.RecordID, Stage: p.Stage})
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return state.Admits(p)
}

// post computes, posts and records one entry. Must run inside a transaction.
func (d *postingDispatcher) post(ctx context.Context, rule posting.Rule, p domain.PostingPayload) (string, error) {
	accts, err := d.accountRepo.FindAccountsByCodes(ctx, rule.Accounts(p))
	if err != nil {
		return "", err
	}
	lines, err := posting.Compute(rule, p, posting.ResolvedAccounts(accts))
	if err != nil {
		return "", err
	}

	description := p.Description
	if description == "" {
		description = fmt.Sprintf("%s %s %d", p.Kind, p.Stage, p.RecordID)
	}
	entry, err := d.journal.CreateAndPost(ctx, domain.JournalEntry{
		EntryDate:   p.Date,
		Reference:   p.DefaultReference(),
		Description: description,
	}, lines, p.ActorID)
	if err != nil {
		return "", err
	}

	if err := d.postingRepo.SavePosting(ctx, domain.LedgerPosting{
		Kind:      p.Kind,
		RecordID:  p.RecordID,
		Stage:     p.Stage,
		EntryID:   entry.EntryID,
		CreatedAt: d.Now(),
	}); err != nil {
		return "", err
	}

	ref := domain.RecordRef{Kind: p.Kind, RecordID: p.RecordID, Stage: p.Stage}
	if err := d.recordRepo.SetJournalReference(ctx, ref, entry.EntryID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return "", err
		}
		// records owned by an external system; the posting row is the token
		d.LogDebug(ctx, "No local record to reference", slog.String("kind", string(p.Kind)), slog.Int64("record_id", p.RecordID))
	}
	return entry.EntryID, nil
}
