package partner

import (
	"context"
	"strings"
	"testing"

	"github.com/drymix/erp/internal/domain/partner"
	"github.com/drymix/erp/internal/domain/shared"
	csvimport "github.com/drymix/erp/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSupplierRepo struct{ mock.Mock }

func (m *mockSupplierRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *mockSupplierRepo) FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*partner.Supplier, error) {
	args := m.Called(ctx, orgID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *mockSupplierRepo) List(ctx context.Context, orgID uuid.UUID, f shared.Filter) ([]partner.Supplier, int64, error) {
	args := m.Called(ctx, orgID, f)
	return args.Get(0).([]partner.Supplier), args.Get(1).(int64), args.Error(2)
}

func (m *mockSupplierRepo) Create(ctx context.Context, s *partner.Supplier) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSupplierRepo) Update(ctx context.Context, s *partner.Supplier) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSupplierRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return m.Called(ctx, orgID, id).Error(0)
}

func (m *mockSupplierRepo) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, orgID, code)
	return args.Bool(0), args.Error(1)
}

func readTable(t *testing.T, csv string) *csvimport.Table {
	t.Helper()
	table, err := csvimport.Read("upload.csv", strings.NewReader(csv), csvimport.Options{})
	require.NoError(t, err)
	return table
}

func TestService_ImportCustomers(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	repo := &mockCustomerRepo{}
	repo.On("CodeExists", ctx, orgID, "C-1").Return(false, nil)
	repo.On("CodeExists", ctx, orgID, "C-2").Return(true, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(c *partner.Customer) bool {
		return c.Code == "C-1" && c.CustomerType == partner.CustomerTypeContractor &&
			c.PaymentTermsDays == 45 && c.CreditLimit.String() == "5000"
	})).Return(nil).Once()

	var published []shared.DomainEvent
	svc := NewService(repo, nil, inlineTx{}, publisherFunc(func(_ context.Context, ev ...shared.DomainEvent) error {
		published = append(published, ev...)
		return nil
	}))

	report, err := svc.ImportCustomers(ctx, orgID, readTable(t,
		"Code,Name,Customer Type,Email,Credit Limit,Payment Terms Days\n"+
			"c-1,Site Works,Contractor,ap@site.test,5000,45\n"+
			"C-2,Retail Co,,,,\n"+
			"C-3,Bad,wholesale,x@,,\n"), csvimport.ModeSkip, false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.TotalErrors)
	require.Len(t, published, 1)
	assert.Equal(t, partner.EventTypeCustomerCreated, published[0].EventType())
	repo.AssertExpectations(t)
}

func TestService_ImportSuppliers(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("fail mode writes nothing when a code exists", func(t *testing.T) {
		repo := &mockSupplierRepo{}
		repo.On("CodeExists", ctx, orgID, "S-1").Return(false, nil)
		repo.On("CodeExists", ctx, orgID, "S-2").Return(true, nil)
		svc := NewService(nil, repo, inlineTx{}, nil)

		report, err := svc.ImportSuppliers(ctx, orgID, readTable(t, "code,name\nS-1,Lime Works\nS-2,Sand Co\n"), csvimport.ModeFail, false)
		require.NoError(t, err)
		assert.Zero(t, report.Created)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, csvimport.CodeExists, report.Errors[0].Code)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("update mode rewrites existing suppliers", func(t *testing.T) {
		existing, err := partner.NewSupplier(orgID, "S-2", partner.SupplierDetails{Name: "Sand Co", PaymentTermsDays: 30})
		require.NoError(t, err)
		repo := &mockSupplierRepo{}
		repo.On("CodeExists", ctx, orgID, "S-2").Return(true, nil)
		repo.On("FindByCode", ctx, orgID, "S-2").Return(existing, nil)
		repo.On("FindByID", ctx, orgID, existing.ID).Return(existing, nil)
		repo.On("Update", ctx, existing).Return(nil)
		svc := NewService(nil, repo, inlineTx{}, nil)

		report, err := svc.ImportSuppliers(ctx, orgID, readTable(t, "code,name,rating,payment_terms_days\nS-2,Sand Company,4.5,60\n"), csvimport.ModeUpdate, false)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Updated)
		assert.Equal(t, "Sand Company", existing.Name)
		assert.Equal(t, 60, existing.PaymentTermsDays)
	})

	t.Run("rating above five", func(t *testing.T) {
		svc := NewService(nil, &mockSupplierRepo{}, inlineTx{}, nil)
		report, err := svc.ImportSuppliers(ctx, orgID, readTable(t, "code,name,rating\nS-9,Gravel Ltd,7\n"), csvimport.ModeSkip, true)
		require.NoError(t, err)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, "rating", report.Errors[0].Column)
		assert.Equal(t, csvimport.CodeOutOfRange, report.Errors[0].Code)
	})
}
