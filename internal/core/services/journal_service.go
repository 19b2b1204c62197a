package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	portssvc "github.com/shauritanga/twa-system/internal/core/ports/services"
	"github.com/shauritanga/twa-system/internal/dto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// journalService owns journal entries and is the only path that posts them.
type journalService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	projector   portssvc.BalanceProjectorSvc
	txManager   portsrepo.TransactionManager
}

// NewJournalService creates a new JournalService.
func NewJournalService(
	journalRepo portsrepo.JournalRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	projector portssvc.BalanceProjectorSvc,
	txManager portsrepo.TransactionManager,
	opts ...Option,
) portssvc.JournalSvcFacade {
	return &journalService{
		BaseService: newBaseService(opts),
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		projector:   projector,
		txManager:   txManager,
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// checkLines validates each line and that every referenced account is usable.
func (s *journalService) checkLines(ctx context.Context, lines []domain.JournalEntryLine) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]string, 0, len(lines))
	for i, l := range lines {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		ids = append(ids, l.AccountID)
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		acct, ok := accounts[id]
		if !ok || acct.IsDeleted() {
			return apperrors.NewValidationError("account " + id + " not found")
		}
		if !acct.IsActive {
			return apperrors.NewValidationError("account " + acct.Code + " is inactive")
		}
	}
	return nil
}

func linesFromRequest(reqs []dto.JournalLineRequest) []domain.JournalEntryLine {
	lines := make([]domain.JournalEntryLine, len(reqs))
	for i, r := range reqs {
		lines[i] = domain.JournalEntryLine{
			AccountID:   r.AccountID,
			Description: r.Description,
			Debit:       domain.RoundMoney(r.Debit),
			Credit:      domain.RoundMoney(r.Credit),
		}
	}
	return lines
}

// newDraft fills ids, number, ordering and totals. Must run inside a transaction.
func (s *journalService) newDraft(ctx context.Context, header domain.JournalEntry, lines []domain.JournalEntryLine, userID string) (*domain.JournalEntry, error) {
	number, err := s.NextEntryNumber(ctx)
	if err != nil {
		return nil, err
	}
	entry := header
	entry.EntryID = uuid.NewString()
	entry.EntryNumber = number
	entry.Status = domain.Draft
	entry.EntryDate = entry.EntryDate.UTC()
	entry.AuditFields = domain.NewAuditFields(userID, s.Now())
	entry.Lines = make([]domain.JournalEntryLine, len(lines))
	for i, l := range lines {
		l.LineID = uuid.NewString()
		l.EntryID = entry.EntryID
		l.LineOrder = i + 1
		entry.Lines[i] = l
	}
	entry.RecalculateTotals()

	if err := s.journalRepo.SaveEntry(ctx, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *journalService) CreateDraft(ctx context.Context, req dto.CreateJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	lines := linesFromRequest(req.Lines)
	if err := s.checkLines(ctx, lines); err != nil {
		return nil, err
	}

	var entry *domain.JournalEntry
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.newDraft(ctx, domain.JournalEntry{
			EntryDate:   req.EntryDate,
			Reference:   strings.TrimSpace(req.Reference),
			Description: req.Description,
		}, lines, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create draft entry")
		return nil, err
	}

	s.LogInfo(ctx, "Draft entry created", slog.String("entry_id", entry.EntryID), slog.String("entry_number", entry.EntryNumber))
	return entry, nil
}

func (s *journalService) AddLine(ctx context.Context, entryID string, req dto.JournalLineRequest, userID string) (*domain.JournalEntry, error) {
	line := linesFromRequest([]dto.JournalLineRequest{req})[0]
	if err := s.checkLines(ctx, []domain.JournalEntryLine{line}); err != nil {
		return nil, err
	}

	var entry *domain.JournalEntry
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.journalRepo.FindEntryByIDForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != domain.Draft {
			return fmt.Errorf("%w: lines can only be added to drafts, entry %s is %s", apperrors.ErrInvalidState, entry.EntryNumber, entry.Status)
		}
		line.LineID = uuid.NewString()
		line.EntryID = entry.EntryID
		line.LineOrder = len(entry.Lines) + 1
		if err := s.journalRepo.AddLine(ctx, line); err != nil {
			return err
		}
		entry.Lines = append(entry.Lines, line)
		entry.RecalculateTotals()
		now := s.Now()
		entry.Touch(userID, now)
		return s.journalRepo.UpdateEntryTotals(ctx, entry.EntryID, entry.TotalDebit, entry.TotalCredit, userID, now)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// postLocked posts a draft. Must run inside a transaction.
func (s *journalService) postLocked(ctx context.Context, entryID, postedBy string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByIDForUpdate(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := entry.CheckPostable(); err != nil {
		return nil, err
	}

	// lock every touched account in a fixed order so concurrent posts cannot deadlock
	ids := make([]string, 0, len(entry.Lines))
	seen := make(map[string]bool, len(entry.Lines))
	for _, l := range entry.Lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	sort.Strings(ids)
	locked, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		acct, ok := locked[id]
		if !ok || acct.IsDeleted() || !acct.IsActive {
			return nil, fmt.Errorf("%w: account %s is missing or inactive", apperrors.ErrMissingAccount, id)
		}
	}

	for _, l := range entry.Lines {
		if err := s.projector.ApplyLine(ctx, l.AccountID, l.Amount(), l.Direction(), postedBy); err != nil {
			return nil, err
		}
	}

	now := s.Now()
	if err := s.journalRepo.MarkPosted(ctx, entry.EntryID, postedBy, now); err != nil {
		return nil, err
	}
	entry.Status = domain.Posted
	entry.PostedBy = postedBy
	entry.PostedAt = &now
	return entry, nil
}

func (s *journalService) Post(ctx context.Context, entryID string, postedBy string) (entry *domain.JournalEntry, err error) {
	ctx, span := s.StartSpan(ctx, "journal.post", trace.WithAttributes(attribute.String("entry_id", entryID)))
	defer func() { EndSpan(span, err) }()

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.postLocked(ctx, entryID, postedBy)
		return err
	})
	if err != nil {
		s.logPostFailure(ctx, err, "Failed to post entry", slog.String("entry_id", entryID))
		return nil, err
	}
	s.LogInfo(ctx, "Entry posted", slog.String("entry_id", entry.EntryID), slog.String("entry_number", entry.EntryNumber))
	return entry, nil
}

func (s *journalService) Reverse(ctx context.Context, entryID string, reversedBy string, reason string) (reversal *domain.JournalEntry, err error) {
	ctx, span := s.StartSpan(ctx, "journal.reverse", trace.WithAttributes(attribute.String("entry_id", entryID)))
	defer func() { EndSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reversal reason is required")
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		original, err := s.journalRepo.FindEntryByIDForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := original.CheckReversible(); err != nil {
			return err
		}

		mirrored := make([]domain.JournalEntryLine, len(original.Lines))
		for i, l := range original.Lines {
			mirrored[i] = domain.JournalEntryLine{
				AccountID:   l.AccountID,
				Description: l.Description,
				Debit:       l.Credit,
				Credit:      l.Debit,
			}
		}
		originalID := original.EntryID
		draft, err := s.newDraft(ctx, domain.JournalEntry{
			EntryDate:         s.Now(),
			Reference:         "REV-" + original.EntryNumber,
			Description:       fmt.Sprintf("Reversal of %s: %s", original.EntryNumber, reason),
			ReversalOfEntryID: &originalID,
		}, mirrored, reversedBy)
		if err != nil {
			return err
		}
		reversal, err = s.postLocked(ctx, draft.EntryID, reversedBy)
		if err != nil {
			return err
		}
		return s.journalRepo.MarkReversed(ctx, original.EntryID, reversedBy, s.Now(), reason, reversal.EntryID)
	})
	if err != nil {
		s.logPostFailure(ctx, err, "Failed to reverse entry", slog.String("entry_id", entryID))
		return nil, err
	}
	s.LogInfo(ctx, "Entry reversed", slog.String("entry_id", entryID), slog.String("reversal_entry_id", reversal.EntryID))
	return reversal, nil
}

func (s *journalService) CreateAndPost(ctx context.Context, header domain.JournalEntry, lines []domain.JournalEntryLine, userID string) (*domain.JournalEntry, error) {
	if err := s.checkLines(ctx, lines); err != nil {
		return nil, err
	}
	var entry *domain.JournalEntry
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		draft, err := s.newDraft(ctx, header, lines, userID)
		if err != nil {
			return err
		}
		entry, err = s.postLocked(ctx, draft.EntryID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *journalService) NextEntryNumber(ctx context.Context) (string, error) {
	seq, err := s.journalRepo.NextEntryNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to draw entry number: %w", err)
	}
	return domain.FormatEntryNumber(seq), nil
}

func (s *journalService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}
	return entry, nil
}

func (s *journalService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	filter := portsrepo.EntryFilter{
		From:      params.From,
		To:        params.To,
		Reference: params.Reference,
		AccountID: params.AccountID,
		Limit:     params.Limit,
		NextToken: params.NextToken,
	}
	if params.Status != "" {
		status := domain.JournalStatus(params.Status)
		filter.Status = &status
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	entries, next, err := s.journalRepo.ListEntries(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list entries")
		return nil, err
	}
	resp := &dto.ListEntriesResponse{Entries: make([]dto.JournalEntryResponse, len(entries)), NextToken: next}
	for i := range entries {
		resp.Entries[i] = dto.ToJournalEntryResponse(&entries[i])
	}
	return resp, nil
}

// logPostFailure keeps caller mistakes at warn level and everything else at error.
func (s *journalService) logPostFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	switch {
	case errors.Is(err, apperrors.ErrNotBalanced),
		errors.Is(err, apperrors.ErrInsufficientLines),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrValidation):
		s.LogWarn(ctx, msg, append(keyvals, slog.String("error", err.Error()))...)
	default:
		s.LogError(ctx, err, msg, keyvals...)
	}
}
