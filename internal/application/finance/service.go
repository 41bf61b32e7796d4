// Package finance implements the chart of accounts, journal vouchers,
// account ledgers and the trial balance.
package finance

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/drymix/erp/internal/domain/finance"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps are the collaborators of the finance Service
type Deps struct {
	Accounts finance.AccountRepository
	Vouchers finance.VoucherRepository
	Ledger   finance.LedgerRepository
	Numbers  shared.NumberGenerator
	Tx       shared.TxManager
}

// Service runs the accounting use cases
type Service struct {
	Deps
	now func() time.Time
}

// NewService creates a new finance Service
func NewService(deps Deps) *Service {
	return &Service{Deps: deps, now: time.Now}
}

// CreateAccount adds an account with a code unique in the organization
func (s *Service) CreateAccount(ctx context.Context, orgID uuid.UUID, req CreateAccountRequest) (*finance.Account, error) {
	a, err := finance.NewAccount(orgID, req.Code, finance.AccountType(req.AccountType), req.IsGroup,
		finance.AccountDetails{Name: req.Name, Description: req.Description})
	if err != nil {
		return nil, err
	}
	exists, err := s.Accounts.CodeExists(ctx, orgID, a.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.Errorf(shared.ErrAlreadyExists, "account code %s is already in use", a.Code)
	}
	if err := s.move(ctx, orgID, a, req.ParentAccountID); err != nil {
		return nil, err
	}
	a.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("account created",
		zap.String("account_id", a.ID.String()),
		zap.String("code", a.Code),
		zap.String("account_type", string(a.AccountType)))
	return a, nil
}

func (s *Service) move(ctx context.Context, orgID uuid.UUID, a *finance.Account, parentID *uuid.UUID) error {
	var parent *finance.Account
	if parentID != nil {
		var err error
		if parent, err = s.Accounts.FindByID(ctx, orgID, *parentID); err != nil {
			return shared.AsReference(err, "parent account")
		}
	}
	lookup := func(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
		return s.Accounts.ParentOf(ctx, orgID, id)
	}
	return a.MoveTo(ctx, parent, lookup)
}

// GetAccount returns one account
func (s *Service) GetAccount(ctx context.Context, orgID, id uuid.UUID) (*finance.Account, error) {
	return s.Accounts.FindByID(ctx, orgID, id)
}

// ListAccounts returns a page of accounts
func (s *Service) ListAccounts(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[finance.Account], error) {
	items, total, err := s.Accounts.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[finance.Account]{}, err
	}
	return page(items, total, filter), nil
}

// AccountTree returns the whole chart of accounts as a forest
func (s *Service) AccountTree(ctx context.Context, orgID uuid.UUID) ([]*shared.TreeNode[finance.Account], error) {
	all, err := s.Accounts.FindAll(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return finance.AccountTree(all), nil
}

// UpdateAccount renames, re-parents or changes the status of an account
func (s *Service) UpdateAccount(ctx context.Context, orgID, id uuid.UUID, req UpdateAccountRequest) (*finance.Account, error) {
	var a *finance.Account
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.Accounts.FindForUpdate(ctx, orgID, id); err != nil {
			return err
		}
		if a.Version != req.Version {
			return shared.ErrConcurrencyConflict
		}
		if err := a.Update(finance.AccountDetails{Name: req.Name, Description: req.Description}); err != nil {
			return err
		}
		if req.Status != "" {
			if err := a.SetStatus(finance.AccountStatus(req.Status)); err != nil {
				return err
			}
		}
		switch {
		case req.MoveToRoot:
			if err := a.MoveTo(ctx, nil, nil); err != nil {
				return err
			}
		case req.ParentAccountID != nil:
			if err := s.move(ctx, orgID, a, req.ParentAccountID); err != nil {
				return err
			}
		}
		return s.Accounts.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAccount removes an account that has no children and was never posted to
func (s *Service) DeleteAccount(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.Accounts.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		children, err := s.Accounts.HasChildren(ctx, orgID, id)
		if err != nil {
			return err
		}
		if children {
			return shared.Errorf(shared.ErrInvalidState, "account %s has sub-accounts", a.Code)
		}
		posted, err := s.Accounts.HasPostings(ctx, orgID, id)
		if err != nil {
			return err
		}
		if posted {
			return shared.Errorf(shared.ErrInvalidState, "account %s is used by vouchers", a.Code)
		}
		return s.Accounts.Delete(ctx, orgID, id)
	})
}

// CreateVoucher drafts a journal voucher
func (s *Service) CreateVoucher(ctx context.Context, orgID uuid.UUID, req VoucherRequest) (*finance.JournalVoucher, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	var jv *finance.JournalVoucher
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqVoucher)
		if err != nil {
			return err
		}
		if jv, err = finance.NewJournalVoucher(orgID, number, d); err != nil {
			return err
		}
		if _, err := s.loadAccounts(ctx, orgID, jv.AccountIDs(), false); err != nil {
			return err
		}
		jv.CreatedBy = shared.ActorFrom(ctx)
		return s.Vouchers.Create(ctx, jv)
	})
	if err != nil {
		return nil, err
	}
	return jv, nil
}

// GetVoucher returns a voucher with its entries
func (s *Service) GetVoucher(ctx context.Context, orgID, id uuid.UUID) (*finance.JournalVoucher, error) {
	return s.Vouchers.FindByID(ctx, orgID, id)
}

// ListVouchers returns a page of vouchers
func (s *Service) ListVouchers(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[finance.JournalVoucher], error) {
	items, total, err := s.Vouchers.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[finance.JournalVoucher]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateVoucher revises a draft voucher
func (s *Service) UpdateVoucher(ctx context.Context, orgID, id uuid.UUID, req VoucherRequest) (*finance.JournalVoucher, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	var jv *finance.JournalVoucher
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		if jv, err = s.Vouchers.FindForUpdate(ctx, orgID, id); err != nil {
			return err
		}
		if req.Version != 0 && jv.Version != req.Version {
			return shared.ErrConcurrencyConflict
		}
		if err := jv.Revise(d); err != nil {
			return err
		}
		if _, err := s.loadAccounts(ctx, orgID, jv.AccountIDs(), false); err != nil {
			return err
		}
		if err := s.Vouchers.Update(ctx, jv); err != nil {
			return err
		}
		return s.Vouchers.ReplaceEntries(ctx, jv)
	})
	if err != nil {
		return nil, err
	}
	return jv, nil
}

// DeleteVoucher removes a draft voucher
func (s *Service) DeleteVoucher(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		jv, err := s.Vouchers.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if jv.Status != finance.VoucherDraft {
			return shared.Errorf(shared.ErrInvalidState, "voucher %s is %s", jv.VoucherNumber, jv.Status)
		}
		return s.Vouchers.Delete(ctx, orgID, id)
	})
}

// PostVoucher posts a balanced draft: ledger rows are written and account
// balances move by their normal side, all in one transaction.
func (s *Service) PostVoucher(ctx context.Context, orgID, id uuid.UUID) (*finance.JournalVoucher, error) {
	var jv *finance.JournalVoucher
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if jv, err = s.Vouchers.FindForUpdate(ctx, orgID, id); err != nil {
			return err
		}
		if err := s.post(ctx, jv); err != nil {
			return err
		}
		return s.Vouchers.Update(ctx, jv)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("voucher posted",
		zap.String("voucher_number", jv.VoucherNumber),
		zap.String("amount", jv.TotalDebit.StringFixed(2)))
	return jv, nil
}

// post applies jv to its accounts. The voucher row itself is written by
// the caller; the ledger rows need it to exist first.
func (s *Service) post(ctx context.Context, jv *finance.JournalVoucher) error {
	accounts, err := s.loadAccounts(ctx, jv.OrganizationID, jv.AccountIDs(), true)
	if err != nil {
		return err
	}
	rows, err := jv.Post(accounts, shared.ActorFrom(ctx), s.now())
	if err != nil {
		return err
	}
	for _, id := range sortedIDs(accounts) {
		if err := s.Accounts.Update(ctx, accounts[id]); err != nil {
			return err
		}
	}
	return s.Ledger.Append(ctx, rows)
}

// ReverseVoucher posts the mirror of a posted voucher and marks it reversed
func (s *Service) ReverseVoucher(ctx context.Context, orgID, id uuid.UUID, req ReverseRequest) (*ReverseResult, error) {
	date, err := shared.ParseOptionalDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	res := &ReverseResult{}
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		jv, err := s.Vouchers.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		day := jv.VoucherDate
		if date != nil {
			day = *date
		} else if today := shared.Day(s.now()); today.After(day) {
			day = today
		}
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqVoucher)
		if err != nil {
			return err
		}
		mirror, err := jv.Reverse(number, day)
		if err != nil {
			return err
		}
		mirror.CreatedBy = shared.ActorFrom(ctx)
		if err := s.Vouchers.Create(ctx, mirror); err != nil {
			return err
		}
		if err := s.post(ctx, mirror); err != nil {
			return err
		}
		if err := s.Vouchers.Update(ctx, mirror); err != nil {
			return err
		}
		res.Original, res.Reversal = jv, mirror
		return s.Vouchers.Update(ctx, jv)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("voucher reversed",
		zap.String("voucher_number", res.Original.VoucherNumber),
		zap.String("reversal_number", res.Reversal.VoucherNumber))
	return res, nil
}

// loadAccounts loads every account of ids, locking them in id order when
// forUpdate is set. A missing account is an INVALID_REFERENCE.
func (s *Service) loadAccounts(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID, forUpdate bool) (map[uuid.UUID]*finance.Account, error) {
	ids = append([]uuid.UUID(nil), ids...)
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	out := make(map[uuid.UUID]*finance.Account, len(ids))
	for _, id := range ids {
		var (
			a   *finance.Account
			err error
		)
		if forUpdate {
			a, err = s.Accounts.FindForUpdate(ctx, orgID, id)
		} else {
			a, err = s.Accounts.FindByID(ctx, orgID, id)
		}
		if err != nil {
			return nil, shared.AsReference(err, "account "+id.String())
		}
		out[id] = a
	}
	return out, nil
}

func sortedIDs(m map[uuid.UUID]*finance.Account) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}

// AccountLedger returns the statement of one account with its opening balance
func (s *Service) AccountLedger(ctx context.Context, orgID, accountID uuid.UUID, q LedgerQuery) (*finance.Statement, error) {
	from, err := shared.ParseOptionalDate("from", q.From)
	if err != nil {
		return nil, err
	}
	to, err := shared.ParseOptionalDate("to", q.To)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, shared.NewValidationError("to", "must not be before from")
	}
	a, err := s.Accounts.FindByID(ctx, orgID, accountID)
	if err != nil {
		return nil, err
	}
	var before finance.Totals
	if from != nil {
		if before, err = s.Ledger.TotalsBefore(ctx, orgID, accountID, *from); err != nil {
			return nil, err
		}
	}
	rows, err := s.Ledger.Range(ctx, orgID, accountID, from, to)
	if err != nil {
		return nil, err
	}
	return finance.NewStatement(a, from, to, before, rows), nil
}

// TrialBalance nets every account's postings up to the given day
func (s *Service) TrialBalance(ctx context.Context, orgID uuid.UUID, q TrialBalanceQuery) (*finance.TrialBalance, error) {
	asOf := shared.Day(s.now())
	if q.AsOf != "" {
		d, err := shared.ParseDate("as_of", q.AsOf)
		if err != nil {
			return nil, err
		}
		asOf = d
	}
	accounts, err := s.Accounts.FindAll(ctx, orgID)
	if err != nil {
		return nil, err
	}
	sums, err := s.Ledger.TotalsAsOf(ctx, orgID, asOf)
	if err != nil {
		return nil, err
	}
	return finance.NewTrialBalance(asOf, accounts, sums), nil
}

func page[T any](items []T, total int64, filter shared.Filter) shared.Paginated[T] {
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize)
}
