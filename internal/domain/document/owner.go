// Package document holds the document library: a category tree, versioned
// documents and raw cloud files, each owned by one business entity.
package document

import (
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// OwnerKind names the entity a document belongs to
type OwnerKind string

const (
	OwnerOrganization    OwnerKind = "organization"
	OwnerProject         OwnerKind = "project"
	OwnerCustomer        OwnerKind = "customer"
	OwnerSupplier        OwnerKind = "supplier"
	OwnerProduct         OwnerKind = "product"
	OwnerEmployee        OwnerKind = "employee"
	OwnerNCR             OwnerKind = "ncr"
	OwnerQualityDocument OwnerKind = "quality_document"
)

// Column returns the typed foreign key column of the kind, empty for
// organization-level documents
func (k OwnerKind) Column() string {
	switch k {
	case OwnerProject:
		return "project_id"
	case OwnerCustomer:
		return "customer_id"
	case OwnerSupplier:
		return "supplier_id"
	case OwnerProduct:
		return "product_id"
	case OwnerEmployee:
		return "employee_id"
	case OwnerNCR:
		return "ncr_id"
	case OwnerQualityDocument:
		return "quality_document_id"
	}
	return ""
}

// Valid reports whether k is a known owner kind
func (k OwnerKind) Valid() bool {
	return k == OwnerOrganization || k.Column() != ""
}

// Owner identifies the entity a document belongs to. ID is unset for
// organization-level documents.
type Owner struct {
	Kind OwnerKind
	ID   uuid.UUID
}

// Validate checks the kind and that an ID is given exactly when needed
func (o Owner) Validate() error {
	var v shared.ValidationError
	switch {
	case !o.Kind.Valid():
		v.Add("owner_kind", "unknown owner kind %q", o.Kind)
	case o.Kind == OwnerOrganization:
		v.Check(o.ID == uuid.Nil, "owner_id", "must be empty for organization documents")
	default:
		v.Check(o.ID != uuid.Nil, "owner_id", "is required for %s documents", o.Kind)
	}
	return v.Err()
}

// OwnerColumns stores an Owner as owner_kind plus one typed column per
// kind; exactly the column matching the kind is set.
type OwnerColumns struct {
	OwnerKind         OwnerKind  `gorm:"type:varchar(30);not null" json:"owner_kind"`
	ProjectID         *uuid.UUID `gorm:"type:uuid" json:"project_id,omitempty"`
	CustomerID        *uuid.UUID `gorm:"type:uuid" json:"customer_id,omitempty"`
	SupplierID        *uuid.UUID `gorm:"type:uuid" json:"supplier_id,omitempty"`
	ProductID         *uuid.UUID `gorm:"type:uuid" json:"product_id,omitempty"`
	EmployeeID        *uuid.UUID `gorm:"type:uuid" json:"employee_id,omitempty"`
	NCRID             *uuid.UUID `gorm:"column:ncr_id;type:uuid" json:"ncr_id,omitempty"`
	QualityDocumentID *uuid.UUID `gorm:"type:uuid" json:"quality_document_id,omitempty"`
}

func (c *OwnerColumns) set(o Owner) {
	*c = OwnerColumns{OwnerKind: o.Kind}
	if o.Kind == OwnerOrganization {
		return
	}
	id := o.ID
	switch o.Kind {
	case OwnerProject:
		c.ProjectID = &id
	case OwnerCustomer:
		c.CustomerID = &id
	case OwnerSupplier:
		c.SupplierID = &id
	case OwnerProduct:
		c.ProductID = &id
	case OwnerEmployee:
		c.EmployeeID = &id
	case OwnerNCR:
		c.NCRID = &id
	case OwnerQualityDocument:
		c.QualityDocumentID = &id
	}
}

// Owner reads the owner back from the columns
func (c OwnerColumns) Owner() Owner {
	var id *uuid.UUID
	switch c.OwnerKind {
	case OwnerProject:
		id = c.ProjectID
	case OwnerCustomer:
		id = c.CustomerID
	case OwnerSupplier:
		id = c.SupplierID
	case OwnerProduct:
		id = c.ProductID
	case OwnerEmployee:
		id = c.EmployeeID
	case OwnerNCR:
		id = c.NCRID
	case OwnerQualityDocument:
		id = c.QualityDocumentID
	}
	if id == nil {
		return Owner{Kind: c.OwnerKind}
	}
	return Owner{Kind: c.OwnerKind, ID: *id}
}
