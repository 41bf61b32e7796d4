package handler

import (
	appfinance "github.com/drymix/erp/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// FinanceHandler serves the chart of accounts, journal vouchers and ledgers
type FinanceHandler struct {
	BaseHandler
	svc *appfinance.Service
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(svc *appfinance.Service) *FinanceHandler {
	return &FinanceHandler{svc: svc}
}

// Register mounts the finance routes
func (h *FinanceHandler) Register(rg *gin.RouterGroup) {
	f := rg.Group("/finance")

	acc := f.Group("/accounts")
	acc.GET("", h.ListAccounts)
	acc.POST("", h.CreateAccount)
	acc.GET("/tree", h.AccountTree)
	acc.GET("/:id", h.GetAccount)
	acc.PUT("/:id", h.UpdateAccount)
	acc.DELETE("/:id", h.DeleteAccount)
	acc.GET("/:id/ledger", h.AccountLedger)

	jv := f.Group("/vouchers")
	jv.GET("", h.ListVouchers)
	jv.POST("", h.CreateVoucher)
	jv.GET("/:id", h.GetVoucher)
	jv.PUT("/:id", h.UpdateVoucher)
	jv.DELETE("/:id", h.DeleteVoucher)
	jv.POST("/:id/post", h.PostVoucher)
	jv.POST("/:id/reverse", h.ReverseVoucher)

	f.GET("/trial-balance", h.TrialBalance)
}

func (h *FinanceHandler) ListAccounts(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListAccounts, "account_type", "status", "is_group", "parent_account_id")
}

func (h *FinanceHandler) CreateAccount(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateAccount)
}

// AccountTree answers GET /finance/accounts/tree
func (h *FinanceHandler) AccountTree(c *gin.Context) {
	tree, err := h.svc.AccountTree(c.Request.Context(), h.OrgID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tree)
}

func (h *FinanceHandler) GetAccount(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetAccount)
}

func (h *FinanceHandler) UpdateAccount(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateAccount)
}

func (h *FinanceHandler) DeleteAccount(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteAccount)
}

// AccountLedger answers GET /finance/accounts/:id/ledger?from=&to=
func (h *FinanceHandler) AccountLedger(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var q appfinance.LedgerQuery
	if !h.BindQuery(c, &q) {
		return
	}
	st, err := h.svc.AccountLedger(c.Request.Context(), h.OrgID(c), id, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

func (h *FinanceHandler) ListVouchers(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListVouchers, "status", "voucher_type", "reversal_of")
}

func (h *FinanceHandler) CreateVoucher(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateVoucher)
}

func (h *FinanceHandler) GetVoucher(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetVoucher)
}

func (h *FinanceHandler) UpdateVoucher(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateVoucher)
}

func (h *FinanceHandler) DeleteVoucher(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteVoucher)
}

// PostVoucher answers POST /finance/vouchers/:id/post
func (h *FinanceHandler) PostVoucher(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.PostVoucher)
}

// ReverseVoucher answers POST /finance/vouchers/:id/reverse
func (h *FinanceHandler) ReverseVoucher(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.ReverseVoucher)
}

// TrialBalance answers GET /finance/trial-balance?as_of=
func (h *FinanceHandler) TrialBalance(c *gin.Context) {
	var q appfinance.TrialBalanceQuery
	if !h.BindQuery(c, &q) {
		return
	}
	tb, err := h.svc.TrialBalance(c.Request.Context(), h.OrgID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tb)
}
