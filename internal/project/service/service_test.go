package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	accountmodels "researchmatch/internal/account/models"
	accountstore "researchmatch/internal/account/store"
	applicationmodels "researchmatch/internal/application/models"
	applicationstore "researchmatch/internal/application/store"
	"researchmatch/internal/mirror"
	"researchmatch/internal/project/models"
	"researchmatch/internal/project/store"
	dErrors "researchmatch/pkg/domain-errors"
	"researchmatch/pkg/requestcontext"
)

type fixture struct {
	svc          *Service
	accounts     *accountstore.Memory
	projects     *store.Memory
	applications *applicationstore.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := accountstore.NewMemory()
	projects := store.NewMemory()
	applications := applicationstore.NewMemory()
	logger := slog.New(slog.DiscardHandler)
	link := mirror.NewLink(projects, applications, logger)
	return &fixture{
		svc:          NewService(projects, accounts, link, nil, nil, logger),
		accounts:     accounts,
		projects:     projects,
		applications: applications,
	}
}

func (f *fixture) addFaculty(t *testing.T, email string) context.Context {
	t.Helper()
	account := &accountmodels.Account{
		Email:       email,
		DisplayName: "Prof X",
		Kind:        accountmodels.KindFaculty,
		Faculty:     &accountmodels.FacultyProfile{},
	}
	require.NoError(t, f.accounts.Create(context.Background(), account))
	return requestcontext.WithEmail(context.Background(), email)
}

func activeParams(name string) CreateProjectParams {
	return CreateProjectParams{
		Bucket:      models.BucketActive,
		Name:        name,
		Description: "study of things",
		Questions:   []string{"Q1"},
		Requirements: []models.Requirement{
			{Kind: 1, Value: "v", Mandatory: true},
		},
	}
}

func TestCreateProjectLazyLedger(t *testing.T) {
	f := newFixture(t)
	ctx := f.addFaculty(t, "f@x.com")

	entry, err := f.svc.CreateProject(ctx, activeParams("P1"))
	require.NoError(t, err)
	assert.False(t, entry.ID.IsZero())

	// First create set the Active ref on the account.
	account, err := f.accounts.FindByEmail(ctx, "f@x.com")
	require.NoError(t, err)
	require.NotNil(t, account.Faculty.Projects.Active)
	assert.Nil(t, account.Faculty.Projects.Draft)

	// Second create appends to the same ledger.
	_, err = f.svc.CreateProject(ctx, activeParams("P2"))
	require.NoError(t, err)
	ledger, err := f.projects.FindByID(ctx, *account.Faculty.Projects.Active)
	require.NoError(t, err)
	assert.Len(t, ledger.Entries, 2)
}

func TestCreateProjectRejectsArchivedBucket(t *testing.T) {
	f := newFixture(t)
	ctx := f.addFaculty(t, "f@x.com")

	params := activeParams("P1")
	params.Bucket = models.BucketArchived
	_, err := f.svc.CreateProject(ctx, params)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestCreateProjectQuestionRequirementMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := f.addFaculty(t, "f@x.com")

	params := activeParams("P1")
	params.Questions = []string{"Q1", "Q2"}
	_, err := f.svc.CreateProject(ctx, params)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	// Validation failed before any write; no ledger exists.
	account, err := f.accounts.FindByEmail(ctx, "f@x.com")
	require.NoError(t, err)
	assert.Nil(t, account.Faculty.Projects.Active)
}

func TestCreateProjectRequiresFaculty(t *testing.T) {
	f := newFixture(t)
	student := &accountmodels.Account{
		Email:   "s@x.com",
		Kind:    accountmodels.KindStudent,
		Student: &accountmodels.StudentProfile{},
	}
	require.NoError(t, f.accounts.Create(context.Background(), student))
	ctx := requestcontext.WithEmail(context.Background(), "s@x.com")

	_, err := f.svc.CreateProject(ctx, activeParams("P1"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestUpdateProject(t *testing.T) {
	f := newFixture(t)
	ctx := f.addFaculty(t, "f@x.com")
	entry, err := f.svc.CreateProject(ctx, activeParams("P1"))
	require.NoError(t, err)

	update := store.EntryUpdate{
		Name:        "P1 renamed",
		Description: "updated",
		Questions:   []string{"Q1"},
		Requirements: []models.Requirement{
			{Kind: 2, Value: "w", Mandatory: false},
		},
	}
	require.NoError(t, f.svc.UpdateProject(ctx, models.BucketActive, entry.ID, update))

	view, err := f.svc.GetProjects(ctx)
	require.NoError(t, err)
	require.NotNil(t, view.Active)
	assert.Equal(t, "P1 renamed", view.Active.Entries[0].Name)

	// Unknown entry id inside an existing ledger.
	err = f.svc.UpdateProject(ctx, models.BucketActive, bson.NewObjectID(), update)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	// Bucket whose ledger was never created.
	err = f.svc.UpdateProject(ctx, models.BucketDraft, entry.ID, update)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestArchiveThenDeleteRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := f.addFaculty(t, "f@x.com")
	entry, err := f.svc.CreateProject(ctx, activeParams("P1"))
	require.NoError(t, err)

	view, err := f.svc.GetProjects(ctx)
	require.NoError(t, err)
	require.NotNil(t, view.Active)
	assert.Len(t, view.Active.Entries, 1)

	require.NoError(t, f.svc.ArchiveProject(ctx, entry.ID))

	view, err = f.svc.GetProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, view.Active.Entries)
	require.NotNil(t, view.Archived)
	require.Len(t, view.Archived.Entries, 1)
	assert.NotNil(t, view.Archived.Entries[0].ArchivedAt)

	// The entry left Active, so deleting it there reports not found.
	err = f.svc.DeleteProject(ctx, models.BucketActive, entry.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	// Deleting from Archived succeeds.
	require.NoError(t, f.svc.DeleteProject(ctx, models.BucketArchived, entry.ID))
	view, err = f.svc.GetProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, view.Archived.Entries)
}

// seedApplication wires an application entry and its mirror ref by hand so
// decision tests don't depend on the application service.
func (f *fixture) seedApplication(t *testing.T, ctx context.Context, projectLedgerID, projectEntryID bson.ObjectID) bson.ObjectID {
	t.Helper()
	appLedger := &applicationmodels.Ledger{OwnerID: bson.NewObjectID()}
	require.NoError(t, f.applications.Create(ctx, appLedger))

	appEntry := applicationmodels.Entry{
		ID:              bson.NewObjectID(),
		ProjectLedgerID: projectLedgerID,
		ProjectEntryID:  projectEntryID,
		Questions:       []string{"Q1"},
		Answers:         []string{"A1"},
		Status:          models.StatusPending,
	}
	require.NoError(t, f.applications.AppendEntry(ctx, appLedger.ID, appEntry))
	require.NoError(t, f.projects.PushApplicationRef(ctx, projectLedgerID, projectEntryID, models.ApplicationRef{
		LedgerID: appLedger.ID,
		EntryID:  appEntry.ID,
		Status:   models.StatusPending,
	}))
	return appEntry.ID
}

func TestDecideApplication(t *testing.T) {
	f := newFixture(t)
	ctx := f.addFaculty(t, "f@x.com")
	entry, err := f.svc.CreateProject(ctx, activeParams("P1"))
	require.NoError(t, err)

	account, err := f.accounts.FindByEmail(ctx, "f@x.com")
	require.NoError(t, err)
	ledgerID := *account.Faculty.Projects.Active
	appEntryID := f.seedApplication(t, ctx, ledgerID, entry.ID)

	require.NoError(t, f.svc.DecideApplication(ctx, entry.ID, appEntryID, models.StatusAccept))

	// Both sides left Pending together.
	projectLedger, err := f.projects.FindByID(ctx, ledgerID)
	require.NoError(t, err)
	ref := projectLedger.FindEntry(entry.ID).Applications[0]
	assert.Equal(t, models.StatusAccept, ref.Status)
	appLedger, err := f.applications.FindByID(ctx, ref.LedgerID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccept, appLedger.FindEntry(appEntryID).Status)

	// Decisions are single-use.
	err = f.svc.DecideApplication(ctx, entry.ID, appEntryID, models.StatusReject)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestDecideApplicationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := f.addFaculty(t, "f@x.com")
	entry, err := f.svc.CreateProject(ctx, activeParams("P1"))
	require.NoError(t, err)

	// Only Accept and Reject are decisions.
	err = f.svc.DecideApplication(ctx, entry.ID, bson.NewObjectID(), models.StatusPending)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	// Unknown application ref on an existing project.
	err = f.svc.DecideApplication(ctx, entry.ID, bson.NewObjectID(), models.StatusAccept)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
