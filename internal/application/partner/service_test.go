package partner

import (
	"context"
	"errors"
	"testing"

	"github.com/drymix/erp/internal/domain/partner"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCustomerRepo struct{ mock.Mock }

func (m *mockCustomerRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *mockCustomerRepo) FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*partner.Customer, error) {
	return m.FindByID(ctx, orgID, id)
}

func (m *mockCustomerRepo) List(ctx context.Context, orgID uuid.UUID, f shared.Filter) ([]partner.Customer, int64, error) {
	args := m.Called(ctx, orgID, f)
	return args.Get(0).([]partner.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *mockCustomerRepo) Create(ctx context.Context, c *partner.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCustomerRepo) Update(ctx context.Context, c *partner.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCustomerRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return m.Called(ctx, orgID, id).Error(0)
}

func (m *mockCustomerRepo) FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*partner.Customer, error) {
	args := m.Called(ctx, orgID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *mockCustomerRepo) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, orgID, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockCustomerRepo) FindAllActive(ctx context.Context, orgID uuid.UUID) ([]partner.Customer, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]partner.Customer), args.Error(1)
}

// inlineTx runs fn directly, without a database
type inlineTx struct{}

func (inlineTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type publisherFunc func(ctx context.Context, events ...shared.DomainEvent) error

func (f publisherFunc) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return f(ctx, events...)
}

func TestService_CreateCustomer(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	req := CreateCustomerRequest{Code: "c-9", CustomerRequest: CustomerRequest{
		Name: "Site Works Ltd", CreditLimit: decimal.NewFromInt(20000),
	}}

	t.Run("publishes CustomerCreated with defaults applied", func(t *testing.T) {
		repo := &mockCustomerRepo{}
		repo.On("CodeExists", ctx, orgID, "C-9").Return(false, nil)
		repo.On("Create", ctx, mock.Anything).Return(nil)

		var published []shared.DomainEvent
		svc := NewService(repo, nil, inlineTx{}, publisherFunc(func(_ context.Context, ev ...shared.DomainEvent) error {
			published = append(published, ev...)
			return nil
		}))

		c, err := svc.CreateCustomer(ctx, orgID, req)
		require.NoError(t, err)
		assert.Equal(t, partner.CustomerTypeRetail, c.CustomerType)
		assert.Equal(t, 30, c.PaymentTermsDays)
		require.Len(t, published, 1)
		assert.Equal(t, partner.EventTypeCustomerCreated, published[0].EventType())
	})

	t.Run("handler failure fails the create", func(t *testing.T) {
		repo := &mockCustomerRepo{}
		repo.On("CodeExists", ctx, orgID, "C-9").Return(false, nil)
		repo.On("Create", ctx, mock.Anything).Return(nil)
		boom := errors.New("credit control insert failed")
		svc := NewService(repo, nil, inlineTx{}, publisherFunc(func(context.Context, ...shared.DomainEvent) error {
			return boom
		}))

		_, err := svc.CreateCustomer(ctx, orgID, req)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("duplicate code", func(t *testing.T) {
		repo := &mockCustomerRepo{}
		repo.On("CodeExists", ctx, orgID, "C-9").Return(true, nil)
		svc := NewService(repo, nil, inlineTx{}, nil)

		_, err := svc.CreateCustomer(ctx, orgID, req)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestService_SetCreditLimit(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	c, err := partner.NewCustomer(orgID, "C-1", partner.CustomerDetails{Name: "A", CustomerType: partner.CustomerTypeDealer})
	require.NoError(t, err)

	repo := &mockCustomerRepo{}
	repo.On("FindByID", ctx, orgID, c.ID).Return(c, nil)
	repo.On("Update", ctx, c).Return(nil)
	svc := NewService(repo, nil, inlineTx{}, nil)

	require.NoError(t, svc.SetCreditLimit(ctx, orgID, c.ID, decimal.RequireFromString("1500.555")))
	assert.True(t, c.CreditLimit.Equal(decimal.RequireFromString("1500.56")))
	assert.Error(t, svc.SetCreditLimit(ctx, orgID, c.ID, decimal.NewFromInt(-1)))
}
