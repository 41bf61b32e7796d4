package handler

import (
	apporg "github.com/drymix/erp/internal/application/organization"
	"github.com/gin-gonic/gin"
)

// OrganizationHandler serves organizations and their stored configuration
type OrganizationHandler struct {
	BaseHandler
	svc *apporg.Service
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(svc *apporg.Service) *OrganizationHandler {
	return &OrganizationHandler{svc: svc}
}

// RegisterAdmin mounts the routes that manage organizations themselves.
// They run before tenant resolution.
func (h *OrganizationHandler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.POST("/organizations", h.Create)
	rg.GET("/organizations", h.List)
	rg.GET("/organizations/:id", h.Get)
	rg.PUT("/organizations/:id", h.Update)
	rg.PUT("/organizations/:id/status", h.ChangeStatus)
	rg.DELETE("/organizations/:id", h.Delete)
}

// Register mounts the tenant scoped configuration routes
func (h *OrganizationHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/organization", h.Current)
	rg.GET("/settings", h.ListSettings)
	rg.GET("/settings/:key", h.GetSetting)
	rg.PUT("/settings/:key", h.PutSetting)
	rg.DELETE("/settings/:key", h.DeleteSetting)
	rg.GET("/toggles", h.ListToggles)
	rg.PUT("/toggles/:key", h.SetToggle)
	rg.DELETE("/toggles/:key", h.DeleteToggle)
	rg.GET("/toggles/:key/enabled", h.IsEnabled)
	rg.GET("/theme", h.GetTheme)
	rg.PUT("/theme", h.PutTheme)
}

func (h *OrganizationHandler) Create(c *gin.Context) {
	var req apporg.CreateOrganizationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	org, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, org)
}

func (h *OrganizationHandler) List(c *gin.Context) {
	filter, ok := h.ListParams(c, "status")
	if !ok {
		return
	}
	orgs, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orgs, total, filter.Page, filter.PageSize)
}

func (h *OrganizationHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	org, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

func (h *OrganizationHandler) Current(c *gin.Context) {
	org, err := h.svc.Get(c.Request.Context(), h.OrgID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

func (h *OrganizationHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req apporg.UpdateOrganizationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	org, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

func (h *OrganizationHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req apporg.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	org, err := h.svc.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Delete removes the organization and, through the foreign keys, every row it owns
func (h *OrganizationHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *OrganizationHandler) ListSettings(c *gin.Context) {
	settings, err := h.svc.ListSettings(c.Request.Context(), h.OrgID(c), c.Query("group"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

func (h *OrganizationHandler) GetSetting(c *gin.Context) {
	setting, err := h.svc.GetSetting(c.Request.Context(), h.OrgID(c), c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, setting)
}

func (h *OrganizationHandler) PutSetting(c *gin.Context) {
	var req apporg.SettingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	setting, err := h.svc.PutSetting(c.Request.Context(), h.OrgID(c), c.Param("key"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, setting)
}

func (h *OrganizationHandler) DeleteSetting(c *gin.Context) {
	if err := h.svc.DeleteSetting(c.Request.Context(), h.OrgID(c), c.Param("key")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *OrganizationHandler) ListToggles(c *gin.Context) {
	toggles, err := h.svc.ListToggles(c.Request.Context(), h.OrgID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toggles)
}

func (h *OrganizationHandler) SetToggle(c *gin.Context) {
	var req apporg.ToggleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	toggle, err := h.svc.SetToggle(c.Request.Context(), h.OrgID(c), c.Param("key"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toggle)
}

func (h *OrganizationHandler) DeleteToggle(c *gin.Context) {
	if err := h.svc.DeleteToggle(c.Request.Context(), h.OrgID(c), c.Param("key")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// IsEnabled evaluates a toggle, optionally for a rollout subject (?subject=)
func (h *OrganizationHandler) IsEnabled(c *gin.Context) {
	key, subject := c.Param("key"), c.Query("subject")
	enabled, err := h.svc.IsEnabled(c.Request.Context(), h.OrgID(c), key, subject)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, apporg.ToggleStatus{Key: key, Subject: subject, Enabled: enabled})
}

func (h *OrganizationHandler) GetTheme(c *gin.Context) {
	theme, err := h.svc.GetTheme(c.Request.Context(), h.OrgID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, theme)
}

func (h *OrganizationHandler) PutTheme(c *gin.Context) {
	var req apporg.ThemeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	theme, err := h.svc.PutTheme(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, theme)
}
