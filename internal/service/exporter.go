package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/export"
	"github.com/boddenberg/realty-portal-bfa/internal/scope"
	"github.com/boddenberg/realty-portal-bfa/internal/session"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Exporter renders the agent performance table the session can see.
type Exporter struct {
	fetcher *Fetcher
	now     func() time.Time
}

// NewExporter creates a new exporter.
func NewExporter(fetcher *Fetcher) *Exporter {
	return &Exporter{fetcher: fetcher, now: time.Now}
}

// AgentPerformance (GET /api/analytics/agents/export?format=csv|xlsx)
//
// Exports the snapshot as served, so a failed refresh still exports the
// last good rows. Nothing ever fetched is reported as the refresh error.
func (e *Exporter) AgentPerformance(ctx context.Context, st *session.Store, sel scope.Selection, format string) (*ExportFile, error) {
	ctx, span := tracer.Start(ctx, "Exporter.AgentPerformance")
	defer span.End()

	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, &domain.ErrValidation{Field: "format", Message: "must be csv or xlsx"}
	}

	snap, err := e.fetcher.AgentPerformance(ctx, st, sel)
	if err != nil {
		return nil, err
	}
	if snap.Error != "" && snap.FetchedAt == nil {
		return nil, &domain.ErrExternalService{Service: "backend", Err: errors.New(snap.Error)}
	}

	name := "agent-performance-" + e.now().Format(time.DateOnly)
	if format == FormatXLSX {
		data, err := export.AgentPerformanceXLSX(snap.Items)
		if err != nil {
			return nil, fmt.Errorf("render xlsx: %w", err)
		}
		return &ExportFile{Filename: name + ".xlsx", ContentType: export.XLSXContentType, Data: data}, nil
	}
	return &ExportFile{
		Filename:    name + ".csv",
		ContentType: export.CSVContentType,
		Data:        export.AgentPerformanceCSV(snap.Items),
	}, nil
}
