package asset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyhub/portal/internal/metrics"
)

// Report lists the inconsistencies found for one asset kind.
type Report struct {
	Kind string
	// Orphaned are object keys not referenced by any row.
	Orphaned []string
	// Dangling are file URLs whose object is missing or whose key cannot
	// be derived.
	Dangling []string
}

// Audit compares the bucket contents with the rows' file URLs.
func (w *Workflow[R]) Audit(ctx context.Context) (Report, error) {
	report := Report{Kind: w.kind, Orphaned: []string{}, Dangling: []string{}}

	keys, err := w.store.List(ctx)
	if err != nil {
		return report, fmt.Errorf("listing %s objects: %w", w.kind, err)
	}
	urls, err := w.rows.FileURLs(ctx)
	if err != nil {
		return report, fmt.Errorf("listing %s file urls: %w", w.kind, err)
	}

	stored := make(map[string]bool, len(keys))
	for _, k := range keys {
		stored[k] = true
	}

	referenced := make(map[string]bool, len(urls))
	for _, u := range urls {
		key, err := ExtractKey(w.store.Bucket(), u)
		if err != nil || !stored[key] {
			report.Dangling = append(report.Dangling, u)
			continue
		}
		referenced[key] = true
	}

	for _, k := range keys {
		if !referenced[k] {
			report.Orphaned = append(report.Orphaned, k)
		}
	}

	return report, nil
}

// Auditable is an asset kind that can report its inconsistencies.
type Auditable interface {
	Kind() string
	Audit(ctx context.Context) (Report, error)
}

// Auditor periodically audits asset kinds and reports what it finds. It
// never repairs anything.
type Auditor struct {
	targets  []Auditable
	interval time.Duration
}

// NewAuditor creates an Auditor over targets.
func NewAuditor(interval time.Duration, targets ...Auditable) *Auditor {
	return &Auditor{targets: targets, interval: interval}
}

// Start runs the audit loop. It blocks until ctx is cancelled.
func (a *Auditor) Start(ctx context.Context) {
	slog.Info("asset auditor started", "interval", a.interval.String())
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("asset auditor stopped")
			return
		case <-ticker.C:
			a.RunOnce(ctx)
		}
	}
}

// RunOnce audits every target a single time.
func (a *Auditor) RunOnce(ctx context.Context) {
	for _, t := range a.targets {
		if ctx.Err() != nil {
			return
		}

		report, err := t.Audit(ctx)
		if err != nil {
			slog.Error("asset audit failed", "kind", t.Kind(), "error", err)
			continue
		}

		metrics.OrphanedObjects.WithLabelValues(report.Kind).Set(float64(len(report.Orphaned)))
		metrics.DanglingRows.WithLabelValues(report.Kind).Set(float64(len(report.Dangling)))

		for _, k := range report.Orphaned {
			slog.Error("orphaned object", "kind", report.Kind, "key", k)
		}
		for _, u := range report.Dangling {
			slog.Error("record points at missing object", "kind", report.Kind, "fileUrl", u)
		}
	}
}
