package document

import (
	"time"

	"github.com/drymix/erp/internal/domain/document"
	"github.com/google/uuid"
)

// CategoryRequest creates or updates a category
type CategoryRequest struct {
	Name        string     `json:"name" binding:"required,max=200"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	MoveToRoot  bool       `json:"move_to_root"`
	Version     int        `json:"version"`
}

// FileRequest describes the file a client is about to upload
type FileRequest struct {
	FileName  string `json:"file_name" binding:"required,max=255"`
	MimeType  string `json:"mime_type" binding:"required,max=100"`
	SizeBytes int64  `json:"size_bytes" binding:"min=0"`
	Checksum  string `json:"checksum" binding:"omitempty,len=64,hexadecimal"`
}

func (r FileRequest) info() document.FileInfo {
	return document.FileInfo{
		FileName:  r.FileName,
		MimeType:  r.MimeType,
		SizeBytes: r.SizeBytes,
		Checksum:  r.Checksum,
	}
}

// OwnerRequest names the owner of a document or file
type OwnerRequest struct {
	OwnerKind string    `json:"owner_kind" binding:"required,oneof=organization project customer supplier product employee ncr quality_document"`
	OwnerID   uuid.UUID `json:"owner_id"`
}

func (r OwnerRequest) owner() document.Owner {
	return document.Owner{Kind: document.OwnerKind(r.OwnerKind), ID: r.OwnerID}
}

// UploadRequest starts the upload of a new document
type UploadRequest struct {
	OwnerRequest
	FileRequest
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

// VersionRequest starts the upload of a new version
type VersionRequest struct {
	FileRequest
}

// ConfirmRequest confirms that the object was stored
type ConfirmRequest struct {
	Checksum string `json:"checksum" binding:"omitempty,len=64,hexadecimal"`
}

// UploadTicket is a pending document with the URL to PUT its content to
type UploadTicket struct {
	Document  *document.Document `json:"document"`
	UploadURL string             `json:"upload_url"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// FileUploadRequest starts the upload of a raw file
type FileUploadRequest struct {
	OwnerRequest
	FileRequest
}

// FileTicket is a pending cloud file with the URL to PUT its content to
type FileTicket struct {
	File      *document.CloudStorageFile `json:"file"`
	UploadURL string                     `json:"upload_url"`
	ExpiresAt time.Time                  `json:"expires_at"`
}

// DownloadLink is a presigned GET URL
type DownloadLink struct {
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	ExpiresAt time.Time `json:"expires_at"`
}
