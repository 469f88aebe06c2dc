package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain/reports"
)

// DashboardService is implemented by reports.Service.
type DashboardService interface {
	GetDashboard(ctx context.Context, accountID id.ID) (*reports.Dashboard, error)
}

// ReportsHandler serves the account dashboard.
type ReportsHandler struct {
	*BaseHandler
	service DashboardService
}

func NewReportsHandler(base *BaseHandler, service DashboardService) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// Dashboard handles GET /dashboard
func (h *ReportsHandler) Dashboard(c *gin.Context) {
	accountID, ok := h.AccountID(c)
	if !ok {
		return
	}
	d, err := h.service.GetDashboard(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}
