package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studyhub/portal/internal/metrics"
)

// Strategy selects the ordering used when a record's file is replaced.
type Strategy int

const (
	// DeleteFirst removes the old object before uploading the new one. A
	// failed upload leaves the row pointing at a deleted object.
	DeleteFirst Strategy = iota
	// UploadFirst uploads and links the new object, then removes the old
	// one. A failed removal leaves an orphaned object that is logged.
	UploadFirst
)

// ParseStrategy maps a config value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "delete-first":
		return DeleteFirst, nil
	case "upload-first":
		return UploadFirst, nil
	default:
		return 0, fmt.Errorf("unknown replace strategy %q", s)
	}
}

type settings struct {
	strategy Strategy
	now      func() time.Time
}

// Option configures a Workflow.
type Option func(*settings)

// WithStrategy sets the replace ordering.
func WithStrategy(s Strategy) Option {
	return func(o *settings) { o.strategy = s }
}

// WithClock overrides the clock used for storage key timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *settings) { o.now = now }
}

// Workflow orchestrates the storage and row calls for one asset kind. Every
// step is awaited before the next starts; there is no locking across
// concurrent requests.
type Workflow[R Record] struct {
	kind     string
	store    ObjectStore
	rows     Rows[R]
	strategy Strategy
	now      func() time.Time
}

// NewWorkflow creates a Workflow for kind.
func NewWorkflow[R Record](kind string, store ObjectStore, rows Rows[R], opts ...Option) *Workflow[R] {
	s := settings{strategy: DeleteFirst, now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return &Workflow[R]{
		kind:     kind,
		store:    store,
		rows:     rows,
		strategy: s.strategy,
		now:      s.now,
	}
}

// Kind returns the asset kind handled by the workflow.
func (w *Workflow[R]) Kind() string {
	return w.kind
}

// Create uploads f and inserts rec linked to it. A failed insert triggers a
// single compensating delete of the upload.
func (w *Workflow[R]) Create(ctx context.Context, rec R, f File) (err error) {
	defer func() { w.observe("create", err) }()

	key := rec.StorageKey(w.now(), f.Name)
	if err := w.store.Upload(ctx, key, f.Body, f.Size, f.ContentType, false); err != nil {
		return fmt.Errorf("%w: upload failed: %w", ErrUpstream, err)
	}

	publicURL := w.store.PublicURL(key)
	rec.SetAssetURL(&publicURL)

	if err := w.rows.Insert(ctx, rec); err != nil {
		rec.SetAssetURL(nil)
		w.compensate(ctx, key, err)
		return fmt.Errorf("%w: database insert failed: %w", ErrUpstream, err)
	}

	slog.Info("asset created", "kind", w.kind, "key", key)
	return nil
}

// Update writes rec's metadata to row id. When f is non-nil the file is
// replaced using the configured strategy; otherwise the current file_url
// is kept.
func (w *Workflow[R]) Update(ctx context.Context, id uuid.UUID, rec R, f *File) (err error) {
	op := "update"
	if f != nil {
		op = "replace"
	}
	defer func() { w.observe(op, err) }()

	current, err := w.rows.Get(ctx, id)
	if err != nil {
		return rowError("fetching record", err)
	}

	if f == nil {
		rec.SetAssetURL(current.AssetURL())
		if err := w.rows.Update(ctx, id, rec); err != nil {
			return rowError("update failed", err)
		}
		return nil
	}

	oldKey := ""
	if u := current.AssetURL(); u != nil && *u != "" {
		oldKey, err = ExtractKey(w.store.Bucket(), *u)
		if err != nil {
			return fmt.Errorf("could not resolve current file path for replacement: %w", err)
		}
	}

	if w.strategy == UploadFirst {
		return w.replaceUploadFirst(ctx, id, rec, *f, oldKey)
	}
	return w.replaceDeleteFirst(ctx, id, rec, *f, oldKey)
}

func (w *Workflow[R]) replaceDeleteFirst(ctx context.Context, id uuid.UUID, rec R, f File, oldKey string) error {
	if oldKey != "" {
		if err := w.store.Remove(ctx, oldKey); err != nil {
			return fmt.Errorf("%w: failed to delete old file: %w", ErrUpstream, err)
		}
	}

	newKey := rec.StorageKey(w.now(), f.Name)
	if err := w.store.Upload(ctx, newKey, f.Body, f.Size, f.ContentType, false); err != nil {
		if oldKey != "" {
			slog.Error("replace left record without a file",
				"kind", w.kind, "id", id, "removedKey", oldKey, "error", err)
			return fmt.Errorf("%w: %w: new file upload failed after the old file was removed: %w",
				ErrInconsistent, ErrUpstream, err)
		}
		return fmt.Errorf("%w: new file upload failed: %w", ErrUpstream, err)
	}

	publicURL := w.store.PublicURL(newKey)
	rec.SetAssetURL(&publicURL)

	if err := w.rows.Update(ctx, id, rec); err != nil {
		w.compensate(ctx, newKey, err)
		if oldKey != "" {
			return fmt.Errorf("%w: %w: update failed after the old file was removed: %w",
				ErrInconsistent, ErrUpstream, err)
		}
		return rowError("update failed", err)
	}

	slog.Info("asset replaced", "kind", w.kind, "id", id, "oldKey", oldKey, "newKey", newKey)
	return nil
}

func (w *Workflow[R]) replaceUploadFirst(ctx context.Context, id uuid.UUID, rec R, f File, oldKey string) error {
	newKey := rec.StorageKey(w.now(), f.Name)
	if err := w.store.Upload(ctx, newKey, f.Body, f.Size, f.ContentType, false); err != nil {
		return fmt.Errorf("%w: new file upload failed: %w", ErrUpstream, err)
	}

	publicURL := w.store.PublicURL(newKey)
	rec.SetAssetURL(&publicURL)

	if err := w.rows.Update(ctx, id, rec); err != nil {
		w.compensate(ctx, newKey, err)
		return rowError("update failed", err)
	}

	if oldKey != "" {
		if err := w.store.Remove(ctx, oldKey); err != nil {
			metrics.CompensationFailures.WithLabelValues(w.kind).Inc()
			slog.Error("old file not removed after replace; object is orphaned",
				"kind", w.kind, "id", id, "key", oldKey, "error", err)
		}
	}

	slog.Info("asset replaced", "kind", w.kind, "id", id, "oldKey", oldKey, "newKey", newKey)
	return nil
}

// Delete removes the file referenced by row id and then the row. The row is
// kept whenever the file cannot be located or removed.
func (w *Workflow[R]) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { w.observe("delete", err) }()

	current, err := w.rows.Get(ctx, id)
	if err != nil {
		return rowError("fetching record", err)
	}

	removed := ""
	if u := current.AssetURL(); u != nil && *u != "" {
		key, err := ExtractKey(w.store.Bucket(), *u)
		if err != nil {
			return fmt.Errorf("could not extract file path from %s URL: %w", w.kind, err)
		}
		if err := w.store.Remove(ctx, key); err != nil {
			return fmt.Errorf("%w: file deletion failed: %w. Database record was NOT deleted", ErrUpstream, err)
		}
		removed = key
	}

	if err := w.rows.Delete(ctx, id); err != nil {
		if removed != "" {
			slog.Error("file removed but record delete failed",
				"kind", w.kind, "id", id, "key", removed, "error", err)
			return fmt.Errorf("%w: %w: file was removed but the record delete failed: %w",
				ErrInconsistent, ErrUpstream, err)
		}
		return rowError("delete failed", err)
	}

	slog.Info("asset deleted", "kind", w.kind, "id", id, "key", removed)
	return nil
}

// compensationTimeout bounds the single compensating delete.
const compensationTimeout = 10 * time.Second

// compensate makes one attempt to remove an upload whose row write failed.
// The attempt survives cancellation of ctx, since a cancelled request is a
// common reason for the row write to fail.
func (w *Workflow[R]) compensate(ctx context.Context, key string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := w.store.Remove(ctx, key); err != nil {
		metrics.CompensationFailures.WithLabelValues(w.kind).Inc()
		slog.Error("compensating delete failed; object is orphaned",
			"kind", w.kind, "key", key, "cause", cause, "error", err)
		return
	}
	slog.Warn("removed upload after failed row write", "kind", w.kind, "key", key, "cause", cause)
}

func (w *Workflow[R]) observe(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInconsistent):
		outcome = "inconsistent"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "upstream"
	}
	metrics.AssetOperations.WithLabelValues(w.kind, op, outcome).Inc()
}

// rowError keeps not-found errors distinguishable and classifies the rest
// as upstream failures.
func rowError(step string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s: %w", step, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, step, err)
}
