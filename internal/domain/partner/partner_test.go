package partner

import (
	"testing"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerDetails() CustomerDetails {
	return CustomerDetails{
		Name:             "BuildRight Contractors",
		CustomerType:     CustomerTypeContractor,
		CreditLimit:      decimal.NewFromInt(50000),
		PaymentTermsDays: 30,
	}
}

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer(uuid.New(), "c-001", customerDetails())
	require.NoError(t, err)
	assert.Equal(t, "C-001", c.Code)
	assert.Equal(t, StatusActive, c.Status)
	require.Len(t, c.GetDomainEvents(), 1)
	ev := c.GetDomainEvents()[0].(*CustomerEvent)
	assert.Equal(t, EventTypeCustomerCreated, ev.EventType())
	assert.True(t, ev.CreditLimit.Equal(decimal.NewFromInt(50000)))

	d := customerDetails()
	d.CustomerType = "wholesale"
	d.CreditLimit = decimal.NewFromInt(-5)
	_, err = NewCustomer(uuid.New(), "C-002", d)
	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 2)
}

func TestCustomerUpdate_AnnouncesLimitChange(t *testing.T) {
	c, err := NewCustomer(uuid.New(), "C-001", customerDetails())
	require.NoError(t, err)
	c.ClearDomainEvents()

	d := customerDetails()
	d.Phone = "555-0100"
	require.NoError(t, c.Update(d))
	assert.Empty(t, c.GetDomainEvents())

	d.CreditLimit = decimal.NewFromInt(75000)
	require.NoError(t, c.Update(d))
	require.Len(t, c.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeCustomerCreditLimitChanged, c.GetDomainEvents()[0].EventType())
}

func TestSupplier(t *testing.T) {
	s, err := NewSupplier(uuid.New(), "s-01", SupplierDetails{Name: "Quarry Sands", Rating: decimal.RequireFromString("4.256")})
	require.NoError(t, err)
	assert.True(t, s.Rating.Equal(decimal.RequireFromString("4.26")))

	require.NoError(t, s.ChangeStatus(StatusBlocked))
	assert.False(t, s.CanOrder())

	_, err = NewSupplier(uuid.New(), "s-02", SupplierDetails{Name: "X", Rating: decimal.NewFromInt(6)})
	assert.Error(t, err)
}
