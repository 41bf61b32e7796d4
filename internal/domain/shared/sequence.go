package shared

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SequenceKind is the prefix of a generated document number
type SequenceKind string

const (
	SeqSalesOrder      SequenceKind = "SO"
	SeqInvoice         SequenceKind = "INV"
	SeqPurchaseOrder   SequenceKind = "PO"
	SeqGoodsReceipt    SequenceKind = "GRN"
	SeqPayment         SequenceKind = "PAY"
	SeqProductionOrder SequenceKind = "PRO"
	SeqBatch           SequenceKind = "BAT"
	SeqInspection      SequenceKind = "INS"
	SeqNCR             SequenceKind = "NCR"
	SeqQualityDocument SequenceKind = "QD"
	SeqVoucher         SequenceKind = "JV"
	SeqCollection      SequenceKind = "COL"
	SeqRFI             SequenceKind = "RFI"
	SeqSubmittal       SequenceKind = "SUB"
)

// NumberGenerator hands out gap-free, per-organization document numbers
// such as SO-2026-000001. Numbers restart every calendar year.
type NumberGenerator interface {
	Next(ctx context.Context, orgID uuid.UUID, kind SequenceKind) (string, error)
}

// FormatNumber renders a document number
func FormatNumber(kind SequenceKind, year int, value int64) string {
	return fmt.Sprintf("%s-%d-%06d", kind, year, value)
}
