package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"researchmatch/internal/project/models"
	"researchmatch/internal/project/store"
	dErrors "researchmatch/pkg/domain-errors"
	"researchmatch/pkg/platform/audit"
	"researchmatch/pkg/platform/sentinel"
	"researchmatch/pkg/requestcontext"
)

// CreateProjectParams are the validated project inputs. The transport owns
// field formats; the service owns the bucket rule and the questions /
// requirements pairing.
type CreateProjectParams struct {
	Bucket       models.Bucket
	Name         string
	Description  string
	Questions    []string
	Requirements []models.Requirement
}

// ProjectsView is the caller's three ledgers. A nil ledger means the bucket
// has never been used.
type ProjectsView struct {
	Draft    *models.Ledger `json:"draftProjects"`
	Active   *models.Ledger `json:"activeProjects"`
	Archived *models.Ledger `json:"archivedProjects"`
}

// CreateProject appends a project entry to the caller's ledger for the given
// bucket, creating the ledger on first use. Projects cannot be created
// directly in the Archived bucket.
func (s *Service) CreateProject(ctx context.Context, params CreateProjectParams) (*models.Entry, error) {
	account, err := s.facultyAccount(ctx)
	if err != nil {
		return nil, err
	}

	if params.Bucket != models.BucketDraft && params.Bucket != models.BucketActive {
		return nil, dErrors.New(dErrors.CodeBadRequest, "INPUT_ERROR")
	}
	if len(params.Questions) != len(params.Requirements) {
		return nil, dErrors.NewValidation("INPUT_ERROR",
			fmt.Sprintf("%d questions but %d requirements", len(params.Questions), len(params.Requirements)))
	}

	ledgerID, err := s.ensureLedger(ctx, account, params.Bucket)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	entry := models.Entry{
		ID:           bson.NewObjectID(),
		Name:         params.Name,
		OwnerID:      account.ID,
		PostedAt:     requestcontext.Now(ctx),
		Description:  params.Description,
		Questions:    params.Questions,
		Requirements: params.Requirements,
		Applications: []models.ApplicationRef{},
	}
	if err := s.projects.AppendEntry(ctx, ledgerID, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.metrics.IncProjectsCreated()
	s.emit(ctx, audit.EventProjectCreated, account, entry.ID.Hex(), "")
	return &entry, nil
}

// UpdateProject replaces the mutable fields of an entry in place. Application
// refs are never touched by an update.
func (s *Service) UpdateProject(ctx context.Context, bucket models.Bucket, projectID bson.ObjectID, update store.EntryUpdate) error {
	account, err := s.facultyAccount(ctx)
	if err != nil {
		return err
	}

	if !bucket.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "INPUT_ERROR")
	}
	if len(update.Questions) != len(update.Requirements) {
		return dErrors.NewValidation("INPUT_ERROR",
			fmt.Sprintf("%d questions but %d requirements", len(update.Questions), len(update.Requirements)))
	}

	ref := bucketRef(account, bucket)
	if ref == nil {
		return dErrors.New(dErrors.CodeNotFound, "PROJECT_LIST_NOT_FOUND")
	}

	if err := s.projects.UpdateEntry(ctx, *ref, projectID, update); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "PROJECT_LIST_NOT_FOUND")
		case errors.Is(err, sentinel.ErrNoChange):
			return dErrors.New(dErrors.CodeNotFound, "PROJECT_NOT_FOUND")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	return nil
}

// ArchiveProject moves an entry from the Active ledger to the Archived one.
// The archived copy is written before the active original is removed, so a
// failure between the two writes duplicates the entry rather than losing it;
// the duplicate is visible and can be deleted from Active.
func (s *Service) ArchiveProject(ctx context.Context, projectID bson.ObjectID) error {
	ctx, span := s.tracer.Start(ctx, "project.archive")
	defer span.End()

	account, err := s.facultyAccount(ctx)
	if err != nil {
		return err
	}

	activeRef := bucketRef(account, models.BucketActive)
	if activeRef == nil {
		return dErrors.New(dErrors.CodeNotFound, "PROJECT_LIST_NOT_FOUND")
	}
	ledger, err := s.projects.FindByID(ctx, *activeRef)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "PROJECT_LIST_NOT_FOUND")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	entry := ledger.FindEntry(projectID)
	if entry == nil {
		return dErrors.New(dErrors.CodeNotFound, "PROJECT_NOT_FOUND")
	}

	archivedID, err := s.ensureLedger(ctx, account, models.BucketArchived)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	archived := *entry
	now := requestcontext.Now(ctx)
	archived.ArchivedAt = &now
	if err := s.projects.AppendEntry(ctx, archivedID, archived); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	if err := s.projects.RemoveEntry(ctx, *activeRef, projectID); err != nil {
		s.logger.WarnContext(ctx, "archived copy written but active entry removal failed",
			"project_id", projectID.Hex(), "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.emit(ctx, audit.EventProjectArchived, account, projectID.Hex(), "")
	return nil
}

// DeleteProject removes an entry from the named bucket's ledger.
func (s *Service) DeleteProject(ctx context.Context, bucket models.Bucket, projectID bson.ObjectID) error {
	account, err := s.facultyAccount(ctx)
	if err != nil {
		return err
	}

	if !bucket.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "INPUT_ERROR")
	}
	ref := bucketRef(account, bucket)
	if ref == nil {
		return dErrors.New(dErrors.CodeNotFound, "PROJECT_LIST_NOT_FOUND")
	}

	if err := s.projects.RemoveEntry(ctx, *ref, projectID); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "PROJECT_LIST_NOT_FOUND")
		case errors.Is(err, sentinel.ErrNoChange):
			return dErrors.New(dErrors.CodeNotFound, "PROJECT_NOT_FOUND")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.emit(ctx, audit.EventProjectDeleted, account, projectID.Hex(), "")
	return nil
}

// GetProjects returns the caller's three ledgers in one batch read. Buckets
// never used come back nil.
func (s *Service) GetProjects(ctx context.Context) (*ProjectsView, error) {
	account, err := s.facultyAccount(ctx)
	if err != nil {
		return nil, err
	}

	refs := account.Faculty.Projects
	ids := make([]bson.ObjectID, 0, 3)
	for _, ref := range []*bson.ObjectID{refs.Draft, refs.Active, refs.Archived} {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}

	view := &ProjectsView{}
	if len(ids) == 0 {
		return view, nil
	}

	ledgers, err := s.projects.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	for _, ledger := range ledgers {
		switch ledger.Bucket {
		case models.BucketDraft:
			view.Draft = ledger
		case models.BucketActive:
			view.Active = ledger
		case models.BucketArchived:
			view.Archived = ledger
		}
	}
	return view, nil
}
