// Package mirror owns the linked updates between a project entry's
// application refs and the authoritative application ledger. The store has no
// cross-document transactions, so every linked update here is a fixed-order
// sequence of single-document writes; when a later write fails the earlier
// ones stand, and the ordering is chosen so the stale side is always the
// project-side mirror, never the authoritative record.
package mirror

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	applicationmodels "researchmatch/internal/application/models"
	applicationstore "researchmatch/internal/application/store"
	projectmodels "researchmatch/internal/project/models"
	projectstore "researchmatch/internal/project/store"
	"researchmatch/pkg/platform/sentinel"
)

// Link binds the two ledgers of one application reference.
type Link struct {
	projects     projectstore.ProjectStore
	applications applicationstore.ApplicationStore
	logger       *slog.Logger
	tracer       trace.Tracer
}

func NewLink(projects projectstore.ProjectStore, applications applicationstore.ApplicationStore, logger *slog.Logger) *Link {
	return &Link{
		projects:     projects,
		applications: applications,
		logger:       logger,
		tracer:       otel.Tracer("researchmatch/mirror"),
	}
}

// Attach persists a new application entry and pushes the matching Pending ref
// onto the referenced project entry. The authoritative entry is written first;
// if the ref push then fails, the entry exists without a mirror and the error
// is returned so the caller reports a server failure.
func (l *Link) Attach(ctx context.Context, applicationLedgerID bson.ObjectID, entry applicationmodels.Entry) error {
	ctx, span := l.tracer.Start(ctx, "mirror.attach")
	defer span.End()
	span.SetAttributes(
		attribute.String("application.entry_id", entry.ID.Hex()),
		attribute.String("project.entry_id", entry.ProjectEntryID.Hex()),
	)

	if err := l.applications.AppendEntry(ctx, applicationLedgerID, entry); err != nil {
		return err
	}

	ref := projectmodels.ApplicationRef{
		LedgerID: applicationLedgerID,
		EntryID:  entry.ID,
		Status:   projectmodels.StatusPending,
	}
	if err := l.projects.PushApplicationRef(ctx, entry.ProjectLedgerID, entry.ProjectEntryID, ref); err != nil {
		l.logger.WarnContext(ctx, "application entry persisted without project mirror",
			"application_entry_id", entry.ID.Hex(),
			"project_entry_id", entry.ProjectEntryID.Hex(),
			"error", err)
		return err
	}
	return nil
}

// Detach removes one application reference from both sides. The mirror ref is
// pulled first so a partial failure leaves an authoritative entry whose
// project no longer advertises it, which Detach itself detects as
// sentinel.ErrNoChange on a retry.
func (l *Link) Detach(ctx context.Context, applicationLedgerID bson.ObjectID, entry *applicationmodels.Entry) error {
	ctx, span := l.tracer.Start(ctx, "mirror.detach")
	defer span.End()
	span.SetAttributes(attribute.String("application.entry_id", entry.ID.Hex()))

	if err := l.projects.PullApplicationRef(ctx, entry.ProjectLedgerID, entry.ProjectEntryID, entry.ID); err != nil {
		return err
	}
	if err := l.applications.RemoveEntry(ctx, applicationLedgerID, entry.ID); err != nil {
		l.logger.WarnContext(ctx, "mirror ref removed but application entry removal failed",
			"application_entry_id", entry.ID.Hex(),
			"error", err)
		return err
	}
	return nil
}

// Decide moves one application out of Pending on both sides. The ref is the
// mirror element already located by the caller inside the project entry.
// Returns sentinel.ErrConflict when either side has already left Pending and
// sentinel.ErrNotFound when the authoritative entry is missing. The
// authoritative status is written first; a crash before the second write
// leaves the mirror stale at Pending, which a retry resolves as ErrConflict.
func (l *Link) Decide(ctx context.Context, projectLedgerID, projectEntryID bson.ObjectID, ref projectmodels.ApplicationRef, decision projectmodels.Status) error {
	ctx, span := l.tracer.Start(ctx, "mirror.decide")
	defer span.End()
	span.SetAttributes(
		attribute.String("application.entry_id", ref.EntryID.Hex()),
		attribute.String("decision", string(decision)),
	)

	if ref.Status != projectmodels.StatusPending {
		return sentinel.ErrConflict
	}

	ledger, err := l.applications.FindByID(ctx, ref.LedgerID)
	if err != nil {
		return err
	}
	entry := ledger.FindEntry(ref.EntryID)
	if entry == nil {
		return sentinel.ErrNotFound
	}
	if entry.Status != projectmodels.StatusPending {
		return sentinel.ErrConflict
	}

	if err := l.applications.SetEntryStatus(ctx, ref.LedgerID, ref.EntryID, decision); err != nil {
		if errors.Is(err, sentinel.ErrNoChange) {
			return sentinel.ErrNotFound
		}
		return err
	}
	if err := l.projects.SetApplicationRefStatus(ctx, projectLedgerID, projectEntryID, ref.EntryID, decision); err != nil {
		l.logger.WarnContext(ctx, "decision recorded but project mirror update failed",
			"application_entry_id", ref.EntryID.Hex(),
			"decision", string(decision),
			"error", err)
		return err
	}
	return nil
}
