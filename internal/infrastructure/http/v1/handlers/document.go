package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"invoicepro/internal/core/clock"
	"invoicepro/internal/core/id"
	"invoicepro/internal/domain/audit"
	"invoicepro/internal/domain/billing"
	"invoicepro/internal/infrastructure/http/v1/dto"
)

const defaultHistoryLimit = 100

// ClientChecker confirms a client belongs to the account.
type ClientChecker interface {
	Exists(ctx context.Context, accountID, clientID id.ID) error
}

// DocumentSupport holds what quotation, invoice and payment handlers share:
// request preparation and audit history.
type DocumentSupport struct {
	clients       ClientChecker
	items         *ItemResolver
	historyReader audit.Reader
	clock         clock.Clock
}

// NewDocumentSupport wires the shared document collaborators.
func NewDocumentSupport(clients ClientChecker, items *ItemResolver, history audit.Reader, clk clock.Clock) *DocumentSupport {
	return &DocumentSupport{clients: clients, items: items, historyReader: history, clock: clk}
}

// prepare checks the client, defaults the issue date to today and resolves
// line items.
func (d *DocumentSupport) prepare(ctx context.Context, accountID id.ID, req *dto.DocumentRequest) ([]billing.LineItem, error) {
	if err := d.clients.Exists(ctx, accountID, req.ClientID); err != nil {
		return nil, err
	}
	if req.IssueDate.IsZero() {
		req.IssueDate = dto.Date{Time: d.clock.Now().UTC().Truncate(24 * time.Hour)}
	}
	return d.items.Resolve(ctx, accountID, req.Items)
}

func (d *DocumentSupport) history(c *gin.Context, h *BaseHandler, entityType string, exists func(ctx context.Context, accountID, docID id.ID) error) {
	accountID, docID, ok := h.Target(c)
	if !ok {
		return
	}
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultHistoryLimit
	}
	ctx := c.Request.Context()
	if err := exists(ctx, accountID, docID); err != nil {
		h.Error(c, err)
		return
	}
	records, err := d.historyReader.History(ctx, accountID, entityType, docID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	h.OK(c, gin.H{"items": records})
}
