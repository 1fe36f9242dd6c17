package postgres

import (
	"context"
	"fmt"

	"github.com/crestline-labs/crestline-go/internal/platform/auditlog"
)

// AuditAppender is the append-only audit sink backed by the audit_events
// table.
type AuditAppender struct {
	db auditlog.QueryRower
}

func NewAuditAppender(db auditlog.QueryRower) *AuditAppender {
	if db == nil {
		return nil
	}
	return &AuditAppender{db: db}
}

func (a *AuditAppender) Append(ctx context.Context, event auditlog.Event) (int64, error) {
	if a == nil || a.db == nil {
		return 0, fmt.Errorf("audit appender not initialized")
	}
	return auditlog.Insert(ctx, a.db, event)
}
