// Package store persists analysis reports. Two backends are provided:
// Postgres for shared deployments and SQLite for local single-user use.
package store

import (
	"context"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

// ReportFilter specifies criteria for listing stored reports.
type ReportFilter struct {
	Company        string               `json:"company,omitempty"`
	Recommendation model.Recommendation `json:"recommendation,omitempty"`
	Limit          int                  `json:"limit,omitempty"`
	Offset         int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface for analysis reports.
type Store interface {
	SaveReport(ctx context.Context, report *model.AnalysisReport) error
	GetReport(ctx context.Context, runID string) (*model.AnalysisReport, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]model.ReportSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
