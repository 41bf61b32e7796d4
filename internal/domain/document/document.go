package document

import (
	"context"
	"encoding/hex"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxFileSize bounds a single upload
const MaxFileSize int64 = 100 << 20

// UploadStatus tells whether the object has reached storage
type UploadStatus string

const (
	UploadPending  UploadStatus = "pending"
	UploadUploaded UploadStatus = "uploaded"
)

// Category groups documents; categories form a tree
type Category struct {
	shared.TenantAggregateRoot
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Name        string     `gorm:"type:varchar(200);not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "document_categories"
}

// NewCategory creates a root category
func NewCategory(orgID uuid.UUID, name, description string) (*Category, error) {
	var v shared.ValidationError
	v.CheckText("name", name, 200)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &Category{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		Name:                name,
		Description:         description,
	}, nil
}

// Rename changes name and description
func (c *Category) Rename(name, description string) error {
	var v shared.ValidationError
	v.CheckText("name", name, 200)
	if err := v.Err(); err != nil {
		return err
	}
	c.Name = name
	c.Description = description
	return nil
}

// MoveTo re-parents the category; a nil parent makes it a root
func (c *Category) MoveTo(ctx context.Context, parentID *uuid.UUID, parentOf shared.ParentLookup) error {
	if err := shared.EnsureAcyclic(ctx, c.ID, parentID, parentOf); err != nil {
		return err
	}
	c.ParentID = parentID
	return nil
}

// CategoryTree arranges categories into a forest
func CategoryTree(all []Category) []*shared.TreeNode[Category] {
	return shared.BuildTree(all,
		func(c Category) uuid.UUID { return c.ID },
		func(c Category) *uuid.UUID { return c.ParentID })
}

// FileInfo describes an object about to be uploaded
type FileInfo struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	Checksum  string
}

// Validate checks the name, the media type, the size bound and, when
// given, that the checksum is a hex SHA-256
func (f FileInfo) Validate(checksumRequired bool) error {
	var v shared.ValidationError
	v.CheckText("file_name", f.FileName, 255)
	if _, _, err := mime.ParseMediaType(f.MimeType); err != nil || !strings.Contains(f.MimeType, "/") {
		v.Add("mime_type", "must be a media type such as application/pdf")
	}
	v.Check(f.SizeBytes >= 0 && f.SizeBytes <= MaxFileSize, "size_bytes", "must be between 0 and %d", MaxFileSize)
	switch {
	case f.Checksum != "":
		v.Check(validChecksum(f.Checksum), "checksum", "must be a hex encoded SHA-256")
	case checksumRequired:
		v.Add("checksum", "is required")
	}
	return v.Err()
}

func validChecksum(s string) bool {
	b, err := hex.DecodeString(s)
	return err == nil && len(b) == 32
}

// StorageKey is the object key of a file: prefix/org/id/name, with the
// name reduced to a safe character set
func StorageKey(prefix string, orgID, id uuid.UUID, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	if safe == "" || safe == "." || safe == ".." {
		safe = "file"
	}
	return fmt.Sprintf("%s/%s/%s/%s", prefix, orgID, id, safe)
}

// Document is one version of a titled file. Versions form a chain through
// ParentID; only the newest uploaded version is latest.
type Document struct {
	shared.TenantEntity
	shared.SoftDelete
	OwnerColumns
	CategoryID   *uuid.UUID   `gorm:"type:uuid" json:"category_id,omitempty"`
	Title        string       `gorm:"type:varchar(255);not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	FileName     string       `gorm:"type:varchar(255);not null" json:"file_name"`
	MimeType     string       `gorm:"type:varchar(100);not null" json:"mime_type"`
	SizeBytes    int64        `gorm:"not null;default:0" json:"size_bytes"`
	StorageKey   string       `gorm:"type:varchar(500);not null;uniqueIndex:unique_documents_storage_key" json:"storage_key"`
	Checksum     string       `gorm:"type:varchar(128)" json:"checksum,omitempty"`
	UploadStatus UploadStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"upload_status"`
	Version      int          `gorm:"column:version;not null;default:1" json:"version"`
	ParentID     *uuid.UUID   `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	IsLatest     bool         `gorm:"not null" json:"is_latest"`
	UploadedBy   *uuid.UUID   `gorm:"type:uuid" json:"uploaded_by,omitempty"`
	CreatedBy    *uuid.UUID   `gorm:"type:uuid" json:"created_by,omitempty"`
}

// TableName returns the table name for GORM
func (Document) TableName() string {
	return "documents"
}

// NewDocument creates version 1 of a document waiting for its upload
func NewDocument(orgID uuid.UUID, owner Owner, categoryID *uuid.UUID, title, description string, file FileInfo) (*Document, error) {
	var v shared.ValidationError
	v.CheckText("title", title, 255)
	v.Merge("owner", owner.Validate())
	v.Merge("file", file.Validate(false))
	if err := v.Err(); err != nil {
		return nil, err
	}
	d := &Document{
		TenantEntity: shared.NewTenantEntity(orgID),
		CategoryID:   categoryID,
		Title:        title,
		Description:  description,
		FileName:     file.FileName,
		MimeType:     file.MimeType,
		SizeBytes:    file.SizeBytes,
		Checksum:     strings.ToLower(file.Checksum),
		UploadStatus: UploadPending,
		Version:      1,
		IsLatest:     true,
	}
	d.OwnerColumns.set(owner)
	d.StorageKey = StorageKey("documents", orgID, d.ID, file.FileName)
	return d, nil
}

// NextVersion creates the successor of the latest version. It keeps the
// owner, category and title and stays hidden until its upload is confirmed.
func (d *Document) NextVersion(file FileInfo) (*Document, error) {
	if !d.IsLatest || d.UploadStatus != UploadUploaded {
		return nil, shared.Errorf(shared.ErrInvalidState, "only the latest uploaded version of %q can be revised", d.Title)
	}
	next, err := NewDocument(d.OrganizationID, d.Owner(), d.CategoryID, d.Title, d.Description, file)
	if err != nil {
		return nil, err
	}
	parent := d.ID
	next.ParentID = &parent
	next.Version = d.Version + 1
	next.IsLatest = false
	return next, nil
}

// ConfirmUpload marks the object as stored. A confirmed successor becomes
// the latest version.
func (d *Document) ConfirmUpload(checksum string, by *uuid.UUID) error {
	if d.UploadStatus == UploadUploaded {
		return shared.Errorf(shared.ErrInvalidState, "upload of %s is already confirmed", d.FileName)
	}
	if checksum != "" {
		if !validChecksum(checksum) {
			return shared.NewValidationError("checksum", "must be a hex encoded SHA-256")
		}
		d.Checksum = strings.ToLower(checksum)
	}
	d.UploadStatus = UploadUploaded
	d.UploadedBy = by
	d.IsLatest = true
	return nil
}

// Downloadable rejects documents whose upload has not been confirmed
func (d *Document) Downloadable() error {
	if d.UploadStatus != UploadUploaded {
		return shared.Errorf(shared.ErrInvalidState, "upload of %s has not been confirmed", d.FileName)
	}
	return nil
}

// CloudStorageFile is a raw uploaded object with its checksum
type CloudStorageFile struct {
	shared.TenantEntity
	shared.SoftDelete
	OwnerColumns
	FileName     string       `gorm:"type:varchar(255);not null" json:"file_name"`
	MimeType     string       `gorm:"type:varchar(100);not null" json:"mime_type"`
	SizeBytes    int64        `gorm:"not null;default:0" json:"size_bytes"`
	StorageKey   string       `gorm:"type:varchar(500);not null;uniqueIndex:unique_cloud_storage_files_key" json:"storage_key"`
	Bucket       string       `gorm:"type:varchar(100);not null;uniqueIndex:unique_cloud_storage_files_key" json:"bucket"`
	Checksum     string       `gorm:"type:varchar(128)" json:"checksum"`
	UploadStatus UploadStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"upload_status"`
	Version      int          `gorm:"column:version;not null;default:1" json:"version"`
	ParentID     *uuid.UUID   `gorm:"type:uuid" json:"parent_id,omitempty"`
	IsLatest     bool         `gorm:"not null" json:"is_latest"`
	UploadedBy   *uuid.UUID   `gorm:"type:uuid" json:"uploaded_by,omitempty"`
	CreatedBy    *uuid.UUID   `gorm:"type:uuid" json:"created_by,omitempty"`
}

// TableName returns the table name for GORM
func (CloudStorageFile) TableName() string {
	return "cloud_storage_files"
}

// NewCloudStorageFile registers a pending upload into bucket. The checksum
// is mandatory: it is what the file is later verified against.
func NewCloudStorageFile(orgID uuid.UUID, owner Owner, bucket string, file FileInfo) (*CloudStorageFile, error) {
	var v shared.ValidationError
	v.Merge("owner", owner.Validate())
	v.Merge("file", file.Validate(true))
	v.CheckText("bucket", bucket, 100)
	if err := v.Err(); err != nil {
		return nil, err
	}
	f := &CloudStorageFile{
		TenantEntity: shared.NewTenantEntity(orgID),
		FileName:     file.FileName,
		MimeType:     file.MimeType,
		SizeBytes:    file.SizeBytes,
		Bucket:       bucket,
		Checksum:     strings.ToLower(file.Checksum),
		UploadStatus: UploadPending,
		Version:      1,
		IsLatest:     true,
	}
	f.OwnerColumns.set(owner)
	f.StorageKey = StorageKey("files", orgID, f.ID, file.FileName)
	return f, nil
}

// ConfirmUpload marks the file as stored
func (f *CloudStorageFile) ConfirmUpload(by *uuid.UUID) error {
	if f.UploadStatus == UploadUploaded {
		return shared.Errorf(shared.ErrInvalidState, "upload of %s is already confirmed", f.FileName)
	}
	f.UploadStatus = UploadUploaded
	f.UploadedBy = by
	return nil
}
