package handler

import (
	"context"
	"fmt"
	"time"

	appcredit "github.com/drymix/erp/internal/application/credit"
	"github.com/drymix/erp/internal/domain/credit"
	"github.com/drymix/erp/internal/infrastructure/export"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentRenderer renders a print template for an organization as HTML
// or PDF
type DocumentRenderer interface {
	RenderHTML(ctx context.Context, orgID uuid.UUID, template string, document any) ([]byte, error)
	RenderPDF(ctx context.Context, orgID uuid.UUID, template string, document any) ([]byte, error)
}

// Print template names used by the credit endpoints
const (
	TemplateAgingReport     = "aging_report"
	TemplateCreditStatement = "credit_statement"
)

// CreditHandler serves credit control, aging, reminders, collections and reviews
type CreditHandler struct {
	BaseHandler
	svc      *appcredit.Service
	renderer DocumentRenderer
}

// NewCreditHandler creates a new CreditHandler. renderer may be nil, in
// which case HTML and PDF output are unavailable.
func NewCreditHandler(svc *appcredit.Service, renderer DocumentRenderer) *CreditHandler {
	return &CreditHandler{svc: svc, renderer: renderer}
}

// Register mounts the credit routes
func (h *CreditHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/credit")
	g.GET("/controls", h.ListControls)
	g.GET("/controls/:customerId", h.GetControl)
	g.POST("/controls/:customerId/recompute", h.Recompute)
	g.GET("/controls/:customerId/statement", h.Statement)
	g.GET("/transactions", h.ListTransactions)
	g.POST("/adjustments", h.PostAdjustment)
	g.POST("/write-offs", h.PostWriteOff)
	g.GET("/aging", h.Aging)
	g.POST("/run", h.RunDaily)

	r := g.Group("/reminders")
	r.GET("", h.ListReminders)
	r.POST("/generate", h.GenerateReminders)
	r.POST("/send", h.SendDueReminders)
	r.POST("/:id/send", h.SendReminder)
	r.POST("/:id/cancel", h.CancelReminder)

	col := g.Group("/collections")
	col.GET("", h.ListCollections)
	col.POST("", h.CreateCollection)
	col.GET("/:id", h.GetCollection)
	col.PUT("/:id", h.UpdateCollection)
	col.DELETE("/:id", h.DeleteCollection)
	col.POST("/:id/collect", h.RecordCollected)
	col.POST("/:id/promise", h.PromiseToPay)
	col.POST("/:id/resolve", h.ResolveCollection)
	col.POST("/:id/write-off", h.WriteOffCollection)

	rev := g.Group("/reviews")
	rev.GET("", h.ListReviews)
	rev.POST("", h.CreateReview)
	rev.GET("/:id", h.GetReview)
	rev.POST("/:id/approve", h.ApproveReview)
	rev.POST("/:id/reject", h.RejectReview)
}

func (h *CreditHandler) ListControls(c *gin.Context) {
	filter, ok := h.ListParams(c, "risk_level", "on_hold", "customer_id")
	if !ok {
		return
	}
	page, err := h.svc.ListControls(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *CreditHandler) GetControl(c *gin.Context) {
	id, ok := h.ParseID(c, "customerId")
	if !ok {
		return
	}
	ctl, err := h.svc.GetControl(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ctl)
}

func (h *CreditHandler) Recompute(c *gin.Context) {
	id, ok := h.ParseID(c, "customerId")
	if !ok {
		return
	}
	ctl, err := h.svc.Recompute(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ctl)
}

// Statement returns the customer position as JSON or, with format=html, printable HTML
func (h *CreditHandler) Statement(c *gin.Context) {
	id, ok := h.ParseID(c, "customerId")
	if !ok {
		return
	}
	asOf, ok := h.QueryTime(c, "as_of")
	if !ok {
		return
	}
	st, err := h.svc.Statement(c.Request.Context(), h.OrgID(c), id, derefTime(asOf))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	switch format := c.Query("format"); format {
	case "html", "pdf":
		renderDocument(&h.BaseHandler, c, h.renderer, TemplateCreditStatement, st, format, "statement-"+st.Aging.CustomerCode)
	default:
		h.Success(c, st)
	}
}

func (h *CreditHandler) ListTransactions(c *gin.Context) {
	base, ok := h.ListParams(c)
	if !ok {
		return
	}
	f := credit.TransactionFilter{Filter: base, Type: credit.TransactionType(c.Query("transaction_type"))}
	if f.CustomerID, ok = h.QueryUUID(c, "customer_id"); !ok {
		return
	}
	if f.From, ok = h.QueryTime(c, "from"); !ok {
		return
	}
	if f.To, ok = h.QueryTime(c, "to"); !ok {
		return
	}
	page, err := h.svc.ListTransactions(c.Request.Context(), h.OrgID(c), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *CreditHandler) PostAdjustment(c *gin.Context) {
	h.post(c, h.svc.PostAdjustment)
}

func (h *CreditHandler) PostWriteOff(c *gin.Context) {
	h.post(c, h.svc.PostWriteOff)
}

func (h *CreditHandler) post(c *gin.Context, op func(context.Context, uuid.UUID, appcredit.PostRequest) (*credit.CreditTransaction, error)) {
	var req appcredit.PostRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tx, err := op(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// Aging returns the receivables aging report. format selects json
// (default), xlsx or html.
func (h *CreditHandler) Aging(c *gin.Context) {
	customerID, ok := h.QueryUUID(c, "customer_id")
	if !ok {
		return
	}
	asOf, ok := h.QueryTime(c, "as_of")
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "json")
	withLines := c.Query("lines") == "true" || format != "json"

	report, err := h.svc.Aging(c.Request.Context(), h.OrgID(c), customerID, derefTime(asOf), withLines)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	switch format {
	case "json":
		h.Success(c, report)
	case "xlsx":
		writeXLSX(c, fmt.Sprintf("aging-%s.xlsx", report.AsOf.Format("20060102")), agingSheets(report)...)
	case "html", "pdf":
		renderDocument(&h.BaseHandler, c, h.renderer, TemplateAgingReport, report, format, "aging-"+report.AsOf.Format("20060102"))
	default:
		h.BadRequest(c, "Invalid format, expected json, xlsx, html or pdf")
	}
}

// agingSheets lays the report out as a summary sheet and an invoice sheet
func agingSheets(r credit.AgingReport) []export.Sheet {
	summary := export.Sheet{Name: "Summary", Headers: append(append([]string{"Customer code", "Customer"}, r.Buckets...), "Overdue", "Total")}
	lines := export.Sheet{Name: "Invoices", Headers: []string{"Customer code", "Invoice", "Invoice date", "Due date", "Days overdue", "Bucket", "Outstanding"}}

	for _, ca := range r.Customers {
		row := []any{ca.CustomerCode, ca.CustomerName}
		for _, b := range ca.Buckets {
			row = append(row, b)
		}
		summary.Rows = append(summary.Rows, append(row, ca.Overdue, ca.Total))
		for _, l := range ca.Lines {
			lines.Rows = append(lines.Rows, []any{
				ca.CustomerCode, l.InvoiceNumber, l.InvoiceDate.Format(time.DateOnly), l.DueDate.Format(time.DateOnly),
				l.DaysOverdue, l.Bucket, l.Outstanding,
			})
		}
	}
	totals := []any{"", "Total"}
	for _, b := range r.Totals {
		totals = append(totals, b)
	}
	summary.Rows = append(summary.Rows, append(totals, r.Overdue, r.GrandTotal))
	return []export.Sheet{summary, lines}
}

// RunDaily runs the daily credit job for the caller's organization
func (h *CreditHandler) RunDaily(c *gin.Context) {
	res, err := h.svc.RunForOrganization(c.Request.Context(), h.OrgID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

func (h *CreditHandler) ListReminders(c *gin.Context) {
	filter, ok := h.ListParams(c, "status", "customer_id", "invoice_id", "reminder_level", "channel")
	if !ok {
		return
	}
	page, err := h.svc.ListReminders(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *CreditHandler) GenerateReminders(c *gin.Context) {
	asOf, ok := h.QueryTime(c, "as_of")
	if !ok {
		return
	}
	at := time.Now()
	if asOf != nil {
		at = *asOf
	}
	res, err := h.svc.GenerateReminders(c.Request.Context(), h.OrgID(c), at)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

func (h *CreditHandler) SendDueReminders(c *gin.Context) {
	res, err := h.svc.SendDueReminders(c.Request.Context(), h.OrgID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

func (h *CreditHandler) SendReminder(c *gin.Context) {
	h.reminder(c, h.svc.SendReminder)
}

func (h *CreditHandler) CancelReminder(c *gin.Context) {
	h.reminder(c, h.svc.CancelReminder)
}

func (h *CreditHandler) reminder(c *gin.Context, op func(context.Context, uuid.UUID, uuid.UUID) (*credit.PaymentReminder, error)) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	r, err := op(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

func (h *CreditHandler) ListCollections(c *gin.Context) {
	filter, ok := h.ListParams(c, "status", "customer_id", "invoice_id", "assigned_to")
	if !ok {
		return
	}
	page, err := h.svc.ListCollections(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *CreditHandler) CreateCollection(c *gin.Context) {
	var req appcredit.CreateCollectionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	col, err := h.svc.CreateCollection(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, col)
}

func (h *CreditHandler) GetCollection(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	col, err := h.svc.GetCollection(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, col)
}

func (h *CreditHandler) UpdateCollection(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appcredit.UpdateCollectionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	col, err := h.svc.UpdateCollection(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, col)
}

func (h *CreditHandler) DeleteCollection(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCollection(c.Request.Context(), h.OrgID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CreditHandler) RecordCollected(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appcredit.CollectRequest
	if !h.BindJSON(c, &req) {
		return
	}
	col, err := h.svc.RecordCollected(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, col)
}

func (h *CreditHandler) PromiseToPay(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appcredit.PromiseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	col, err := h.svc.PromiseToPay(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, col)
}

func (h *CreditHandler) ResolveCollection(c *gin.Context) {
	h.closeCollection(c, h.svc.ResolveCollection)
}

func (h *CreditHandler) WriteOffCollection(c *gin.Context) {
	h.closeCollection(c, h.svc.WriteOffCollection)
}

func (h *CreditHandler) closeCollection(c *gin.Context, op func(context.Context, uuid.UUID, uuid.UUID, appcredit.CloseCollectionRequest) (*credit.Collection, error)) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appcredit.CloseCollectionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	col, err := op(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, col)
}

func (h *CreditHandler) ListReviews(c *gin.Context) {
	filter, ok := h.ListParams(c, "status", "customer_id")
	if !ok {
		return
	}
	page, err := h.svc.ListReviews(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *CreditHandler) CreateReview(c *gin.Context) {
	var req appcredit.CreateReviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.svc.CreateReview(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, r)
}

func (h *CreditHandler) GetReview(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.GetReview(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

func (h *CreditHandler) ApproveReview(c *gin.Context) {
	h.decide(c, h.svc.ApproveReview)
}

func (h *CreditHandler) RejectReview(c *gin.Context) {
	h.decide(c, h.svc.RejectReview)
}

func (h *CreditHandler) decide(c *gin.Context, op func(context.Context, uuid.UUID, uuid.UUID, appcredit.DecideReviewRequest) (*credit.CreditReview, error)) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appcredit.DecideReviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := op(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
