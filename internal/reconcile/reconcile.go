// Package reconcile joins a loaded file-item collection against an
// externally supplied name-to-description dataset and applies the matching
// descriptions remotely. The pass is best-effort: one failing item never
// aborts the loop, and the final tallies always cover every item.
package reconcile

import (
	"context"
	"strings"

	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/events"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/logging"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/metrics"
	"github.com/SvN-Architects-Planners/WWP-Revit-BIM-Tools/internal/model"
)

// Updater issues the per-item description PATCH.
type Updater interface {
	UpdateFileDescription(ctx context.Context, projectID, itemID, description string) error
}

// Outcome classifies what happened to one item during a pass.
type Outcome string

const (
	OutcomeUpdated            Outcome = "updated"
	OutcomeSkippedUnsupported Outcome = "skipped: unsupported type"
	OutcomeSkippedNoMatch     Outcome = "skipped: no match"
	OutcomeSkippedEmpty       Outcome = "skipped: empty description"
	OutcomeFailed             Outcome = "failed"
)

// Entry is one line of the per-item log trail.
type Entry struct {
	Item    string
	Outcome Outcome
	Detail  string
}

// Result is the final tally of one pass. Failed updates count as skips; the
// Entries trail tells them apart.
type Result struct {
	Updated int
	Skipped int
	Entries []Entry
}

// Dataset maps lower-cased file names to descriptions.
type Dataset map[string]string

// NewDataset normalizes an externally supplied name-to-description mapping:
// keys compare case-insensitively and the last row wins on duplicates. Both
// are defined behavior, not errors.
func NewDataset(rows map[string]string) Dataset {
	ds := make(Dataset, len(rows))
	for name, description := range rows {
		ds[strings.ToLower(name)] = description
	}
	return ds
}

// Lookup finds the description for a file name, case-insensitively.
func (d Dataset) Lookup(name string) (string, bool) {
	description, ok := d[strings.ToLower(name)]
	return description, ok
}

// Driver applies dataset descriptions to file items.
type Driver struct {
	updater Updater
	bus     *events.Broadcaster
}

// New creates a reconciliation driver. bus may be nil when no shell is
// listening.
func New(updater Updater, bus *events.Broadcaster) *Driver {
	return &Driver{updater: updater, bus: bus}
}

// Run applies the dataset to items in their given order. Items whose type
// does not support description updates are skipped without consulting the
// dataset; unmatched names and blank descriptions are skipped; everything
// else is PATCHed. Update failures are logged and the pass continues: this
// is best-effort reconciliation, not a two-phase commit.
func (r *Driver) Run(ctx context.Context, projectID string, items []*model.FileItem, dataset Dataset) Result {
	var result Result

	for _, item := range items {
		entry := r.reconcileItem(ctx, projectID, item, dataset)
		result.Entries = append(result.Entries, entry)
		if entry.Outcome == OutcomeUpdated {
			result.Updated++
		} else {
			result.Skipped++
		}
	}

	logging.Info("reconciliation finished",
		logging.Int("updated", result.Updated),
		logging.Int("skipped", result.Skipped))
	r.publish(events.EventInfo, "", "reconciliation finished")
	return result
}

func (r *Driver) reconcileItem(ctx context.Context, projectID string, item *model.FileItem, dataset Dataset) Entry {
	name := item.DisplayName

	if !item.CanUpdateDescription {
		logging.Debug("skipping item of unsupported type",
			logging.String("item", name), logging.String("extension", item.ExtensionType))
		r.publish(events.EventSkipped, name, "unsupported type")
		metrics.RecordReconcileItem("skipped_unsupported")
		return Entry{Item: name, Outcome: OutcomeSkippedUnsupported}
	}

	description, ok := dataset.Lookup(name)
	if !ok {
		logging.Debug("no dataset row for item", logging.String("item", name))
		r.publish(events.EventSkipped, name, "no match")
		metrics.RecordReconcileItem("skipped_no_match")
		return Entry{Item: name, Outcome: OutcomeSkippedNoMatch}
	}

	if strings.TrimSpace(description) == "" {
		logging.Debug("dataset row has empty description", logging.String("item", name))
		r.publish(events.EventSkipped, name, "empty description")
		metrics.RecordReconcileItem("skipped_empty")
		return Entry{Item: name, Outcome: OutcomeSkippedEmpty}
	}

	if err := r.updater.UpdateFileDescription(ctx, projectID, item.ID, description); err != nil {
		logging.Error("item update failed", logging.String("item", name), logging.Err(err))
		r.publish(events.EventError, name, err.Error())
		metrics.RecordReconcileItem("failed")
		return Entry{Item: name, Outcome: OutcomeFailed, Detail: err.Error()}
	}

	item.Description = description
	logging.Info("item updated",
		logging.String("item", name), logging.String("description", description))
	r.publish(events.EventUpdated, name, description)
	metrics.RecordReconcileItem("updated")
	return Entry{Item: name, Outcome: OutcomeUpdated}
}

func (r *Driver) publish(eventType, item, message string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.Event{Type: eventType, Item: item, Message: message})
}
