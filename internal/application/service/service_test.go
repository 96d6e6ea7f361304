package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	accountmodels "researchmatch/internal/account/models"
	accountstore "researchmatch/internal/account/store"
	"researchmatch/internal/application/store"
	"researchmatch/internal/mirror"
	projectmodels "researchmatch/internal/project/models"
	projectstore "researchmatch/internal/project/store"
	dErrors "researchmatch/pkg/domain-errors"
	"researchmatch/pkg/requestcontext"
)

type fixture struct {
	svc          *Service
	accounts     *accountstore.Memory
	projects     *projectstore.Memory
	applications *store.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := accountstore.NewMemory()
	projects := projectstore.NewMemory()
	applications := store.NewMemory()
	logger := slog.New(slog.DiscardHandler)
	link := mirror.NewLink(projects, applications, logger)
	return &fixture{
		svc:          NewService(applications, projects, accounts, link, nil, nil, logger),
		accounts:     accounts,
		projects:     projects,
		applications: applications,
	}
}

// seedProject creates a faculty account with one Active project and returns
// the project entry id.
func (f *fixture) seedProject(t *testing.T, facultyEmail string) bson.ObjectID {
	t.Helper()
	ctx := context.Background()

	faculty := &accountmodels.Account{
		Email:       facultyEmail,
		DisplayName: "Prof X",
		Kind:        accountmodels.KindFaculty,
		Faculty:     &accountmodels.FacultyProfile{},
	}
	require.NoError(t, f.accounts.Create(ctx, faculty))

	entry := projectmodels.Entry{
		ID:        bson.NewObjectID(),
		Name:      "P1",
		OwnerID:   faculty.ID,
		PostedAt:  time.Now(),
		Questions: []string{"Q1"},
		Requirements: []projectmodels.Requirement{
			{Kind: 1, Value: "v", Mandatory: true},
		},
	}
	ledger := &projectmodels.Ledger{
		Bucket:  projectmodels.BucketActive,
		OwnerID: faculty.ID,
		Entries: []projectmodels.Entry{entry},
	}
	require.NoError(t, f.projects.Create(ctx, ledger))
	require.NoError(t, f.accounts.SetProjectRef(ctx, faculty.ID, projectmodels.BucketActive, ledger.ID))
	return entry.ID
}

func (f *fixture) addStudent(t *testing.T, email string) context.Context {
	t.Helper()
	student := &accountmodels.Account{
		Email:       email,
		DisplayName: "Stu Dent",
		Kind:        accountmodels.KindStudent,
		Student:     &accountmodels.StudentProfile{},
	}
	require.NoError(t, f.accounts.Create(context.Background(), student))
	return requestcontext.WithEmail(context.Background(), email)
}

func applyParams(projectID bson.ObjectID) CreateApplicationParams {
	return CreateApplicationParams{
		ProjectID:    projectID,
		FacultyEmail: "f@x.com",
		Questions:    []string{"Q1"},
		Answers:      []string{"A1"},
	}
}

func TestCreateApplicationMaintainsMirror(t *testing.T) {
	f := newFixture(t)
	projectID := f.seedProject(t, "f@x.com")
	ctx := f.addStudent(t, "s@x.com")

	entry, err := f.svc.CreateApplication(ctx, applyParams(projectID))
	require.NoError(t, err)
	assert.Equal(t, projectmodels.StatusPending, entry.Status)

	// The student account gained a ledger ref.
	student, err := f.accounts.FindByEmail(ctx, "s@x.com")
	require.NoError(t, err)
	require.NotNil(t, student.Student.ApplicationLedger)

	// Exactly one mirror ref exists with matching ids and equal status.
	projectLedger, err := f.projects.FindByID(ctx, entry.ProjectLedgerID)
	require.NoError(t, err)
	refs := projectLedger.FindEntry(projectID).Applications
	require.Len(t, refs, 1)
	assert.Equal(t, *student.Student.ApplicationLedger, refs[0].LedgerID)
	assert.Equal(t, entry.ID, refs[0].EntryID)
	assert.Equal(t, entry.Status, refs[0].Status)
}

func TestCreateApplicationLengthMismatchWritesNothing(t *testing.T) {
	f := newFixture(t)
	projectID := f.seedProject(t, "f@x.com")
	ctx := f.addStudent(t, "s@x.com")

	params := applyParams(projectID)
	params.Answers = []string{"A1", "A2"}
	_, err := f.svc.CreateApplication(ctx, params)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	// Validation failed before any write; no orphaned ledger was created.
	student, err := f.accounts.FindByEmail(ctx, "s@x.com")
	require.NoError(t, err)
	assert.Nil(t, student.Student.ApplicationLedger)
}

func TestCreateApplicationUnknownProject(t *testing.T) {
	f := newFixture(t)
	f.seedProject(t, "f@x.com")
	ctx := f.addStudent(t, "s@x.com")

	_, err := f.svc.CreateApplication(ctx, applyParams(bson.NewObjectID()))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCreateApplicationRequiresStudent(t *testing.T) {
	f := newFixture(t)
	projectID := f.seedProject(t, "f@x.com")
	ctx := requestcontext.WithEmail(context.Background(), "f@x.com")

	_, err := f.svc.CreateApplication(ctx, applyParams(projectID))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestDeleteApplicationDetachesBothSides(t *testing.T) {
	f := newFixture(t)
	projectID := f.seedProject(t, "f@x.com")
	ctx := f.addStudent(t, "s@x.com")

	entry, err := f.svc.CreateApplication(ctx, applyParams(projectID))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteApplication(ctx, entry.ID))

	projectLedger, err := f.projects.FindByID(ctx, entry.ProjectLedgerID)
	require.NoError(t, err)
	assert.Empty(t, projectLedger.FindEntry(projectID).Applications)

	student, err := f.accounts.FindByEmail(ctx, "s@x.com")
	require.NoError(t, err)
	appLedger, err := f.applications.FindByID(ctx, *student.Student.ApplicationLedger)
	require.NoError(t, err)
	assert.Empty(t, appLedger.Entries)

	// A second delete finds nothing.
	err = f.svc.DeleteApplication(ctx, entry.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestGetApplicationsJoinsProjectFields(t *testing.T) {
	f := newFixture(t)
	projectID := f.seedProject(t, "f@x.com")
	ctx := f.addStudent(t, "s@x.com")

	entry, err := f.svc.CreateApplication(ctx, applyParams(projectID))
	require.NoError(t, err)

	views, err := f.svc.GetApplications(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, entry.ID, views[0].ID)
	assert.Equal(t, "P1", views[0].ProjectName)
	assert.Equal(t, "f@x.com", views[0].FacultyEmail)
	assert.Equal(t, projectmodels.StatusPending, views[0].Status)
}

func TestGetApplicationsEmptyWithoutLedger(t *testing.T) {
	f := newFixture(t)
	ctx := f.addStudent(t, "s@x.com")

	views, err := f.svc.GetApplications(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
}
