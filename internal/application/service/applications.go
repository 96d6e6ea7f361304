package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"

	accountmodels "researchmatch/internal/account/models"
	"researchmatch/internal/application/models"
	projectmodels "researchmatch/internal/project/models"
	dErrors "researchmatch/pkg/domain-errors"
	"researchmatch/pkg/platform/audit"
	"researchmatch/pkg/platform/sentinel"
	"researchmatch/pkg/requestcontext"
)

// CreateApplicationParams are the validated application inputs.
type CreateApplicationParams struct {
	ProjectID    bson.ObjectID
	FacultyEmail string
	Questions    []string
	Answers      []string
}

// CreateApplication submits an application to an Active project. Validation
// happens before any write so a rejected submission never leaves a ledger
// behind. The authoritative entry is written first, then the project-side
// mirror ref.
func (s *Service) CreateApplication(ctx context.Context, params CreateApplicationParams) (*models.Entry, error) {
	account, err := s.studentAccount(ctx)
	if err != nil {
		return nil, err
	}

	if len(params.Questions) != len(params.Answers) {
		return nil, dErrors.NewValidation("INPUT_ERROR",
			fmt.Sprintf("%d questions but %d answers", len(params.Questions), len(params.Answers)))
	}

	faculty, err := s.accounts.FindByEmail(ctx, params.FacultyEmail)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "BAD_REQUEST")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	if faculty.Faculty == nil || faculty.Faculty.Projects.Active == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "PROJECT_LIST_NOT_FOUND")
	}
	activeRef := *faculty.Faculty.Projects.Active

	ledger, err := s.projects.FindByID(ctx, activeRef)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "PROJECT_LIST_NOT_FOUND")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	if ledger.FindEntry(params.ProjectID) == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "PROJECT_NOT_FOUND")
	}

	ledgerID, err := s.ensureLedger(ctx, account)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	entry := models.Entry{
		ID:              bson.NewObjectID(),
		ProjectLedgerID: activeRef,
		ProjectEntryID:  params.ProjectID,
		Questions:       params.Questions,
		Answers:         params.Answers,
		Status:          projectmodels.StatusPending,
		SubmittedAt:     requestcontext.Now(ctx),
	}
	if err := s.link.Attach(ctx, ledgerID, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.metrics.IncApplicationsSubmitted()
	s.emit(ctx, audit.EventApplicationSubmitted, account, entry.ID.Hex())
	return &entry, nil
}

// DeleteApplication withdraws one of the caller's applications, removing the
// project-side mirror ref before the authoritative entry.
func (s *Service) DeleteApplication(ctx context.Context, applicationEntryID bson.ObjectID) error {
	account, err := s.studentAccount(ctx)
	if err != nil {
		return err
	}

	ref := account.Student.ApplicationLedger
	if ref == nil {
		return dErrors.New(dErrors.CodeNotFound, "APPLICATION_LIST_NOT_FOUND")
	}
	ledger, err := s.applications.FindByID(ctx, *ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "APPLICATION_LIST_NOT_FOUND")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	entry := ledger.FindEntry(applicationEntryID)
	if entry == nil {
		return dErrors.New(dErrors.CodeNotFound, "APPLICATION_NOT_FOUND")
	}

	if err := s.link.Detach(ctx, *ref, entry); err != nil {
		if errors.Is(err, sentinel.ErrNoChange) || errors.Is(err, sentinel.ErrNotFound) {
			// One side changed nothing; the pair is partially detached or
			// already gone.
			return dErrors.New(dErrors.CodeNotFound, "APPLICATION_NOT_FOUND")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.emit(ctx, audit.EventApplicationWithdrawn, account, applicationEntryID.Hex())
	return nil
}

// GetApplications joins the caller's applications against their referenced
// projects into denormalized rows. Project ledgers are batch-fetched once;
// owning faculty accounts are resolved concurrently.
func (s *Service) GetApplications(ctx context.Context) ([]models.View, error) {
	account, err := s.studentAccount(ctx)
	if err != nil {
		return nil, err
	}

	views := []models.View{}
	ref := account.Student.ApplicationLedger
	if ref == nil {
		return views, nil
	}
	ledger, err := s.applications.FindByID(ctx, *ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return views, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	ledgerIDs := distinctLedgerIDs(ledger.Entries)
	projectLedgers, err := s.projects.FindByIDs(ctx, ledgerIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	byID := make(map[bson.ObjectID]*projectmodels.Ledger, len(projectLedgers))
	for _, pl := range projectLedgers {
		byID[pl.ID] = pl
	}

	emails, err := s.ownerEmails(ctx, projectLedgers)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	for _, entry := range ledger.Entries {
		pl, ok := byID[entry.ProjectLedgerID]
		if !ok {
			s.logger.WarnContext(ctx, "application references missing project ledger",
				"application_entry_id", entry.ID.Hex(),
				"project_ledger_id", entry.ProjectLedgerID.Hex())
			continue
		}
		project := pl.FindEntry(entry.ProjectEntryID)
		if project == nil {
			s.logger.WarnContext(ctx, "application references missing project entry",
				"application_entry_id", entry.ID.Hex(),
				"project_entry_id", entry.ProjectEntryID.Hex())
			continue
		}
		views = append(views, models.View{
			ID:              entry.ID,
			ProjectLedgerID: entry.ProjectLedgerID,
			ProjectEntryID:  entry.ProjectEntryID,
			Questions:       entry.Questions,
			Answers:         entry.Answers,
			Status:          entry.Status,
			ProjectName:     project.Name,
			Description:     project.Description,
			PostedAt:        project.PostedAt,
			FacultyEmail:    emails[pl.OwnerID],
		})
	}
	return views, nil
}

// ensureLedger returns the caller's application ledger id, creating the
// ledger and setting the ref on first use.
func (s *Service) ensureLedger(ctx context.Context, account *accountmodels.Account) (bson.ObjectID, error) {
	if ref := account.Student.ApplicationLedger; ref != nil {
		return *ref, nil
	}
	ledger := &models.Ledger{OwnerID: account.ID}
	if err := s.applications.Create(ctx, ledger); err != nil {
		return bson.ObjectID{}, err
	}
	if err := s.accounts.SetApplicationRef(ctx, account.ID, ledger.ID); err != nil {
		return bson.ObjectID{}, err
	}
	return ledger.ID, nil
}

// ownerEmails resolves each distinct ledger owner to its account email.
func (s *Service) ownerEmails(ctx context.Context, ledgers []*projectmodels.Ledger) (map[bson.ObjectID]string, error) {
	owners := make(map[bson.ObjectID]struct{}, len(ledgers))
	for _, l := range ledgers {
		owners[l.OwnerID] = struct{}{}
	}

	var mu sync.Mutex
	emails := make(map[bson.ObjectID]string, len(owners))
	g, ctx := errgroup.WithContext(ctx)
	for ownerID := range owners {
		g.Go(func() error {
			owner, err := s.accounts.FindByID(ctx, ownerID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return nil
				}
				return err
			}
			mu.Lock()
			emails[ownerID] = owner.Email
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return emails, nil
}

func distinctLedgerIDs(entries []models.Entry) []bson.ObjectID {
	seen := make(map[bson.ObjectID]struct{}, len(entries))
	ids := make([]bson.ObjectID, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.ProjectLedgerID]; ok {
			continue
		}
		seen[e.ProjectLedgerID] = struct{}{}
		ids = append(ids, e.ProjectLedgerID)
	}
	return ids
}
