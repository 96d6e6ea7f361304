// Package service implements the faculty project operations: bucket-scoped
// create, update, archive, delete, listing, and the application decision
// protocol.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	accountmodels "researchmatch/internal/account/models"
	accountstore "researchmatch/internal/account/store"
	"researchmatch/internal/mirror"
	"researchmatch/internal/platform/metrics"
	"researchmatch/internal/project/models"
	"researchmatch/internal/project/store"
	dErrors "researchmatch/pkg/domain-errors"
	"researchmatch/pkg/platform/audit"
	"researchmatch/pkg/platform/sentinel"
	"researchmatch/pkg/requestcontext"
)

// Emitter enqueues audit events without blocking the request path.
type Emitter interface {
	Emit(event audit.Event)
}

type Service struct {
	projects store.ProjectStore
	accounts accountstore.AccountStore
	link     *mirror.Link
	audit    Emitter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewService(
	projects store.ProjectStore,
	accounts accountstore.AccountStore,
	link *mirror.Link,
	emitter Emitter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		projects: projects,
		accounts: accounts,
		link:     link,
		audit:    emitter,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("researchmatch/project"),
	}
}

// facultyAccount resolves the caller and requires the faculty profile. Role
// checks happen here once, not per field access.
func (s *Service) facultyAccount(ctx context.Context) (*accountmodels.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, requestcontext.Email(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "BAD_REQUEST")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	if account.Faculty == nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "BAD_REQUEST")
	}
	return account, nil
}

// bucketRef returns the account's ledger ref for the bucket, or nil.
func bucketRef(account *accountmodels.Account, bucket models.Bucket) *bson.ObjectID {
	refs := account.Faculty.Projects
	switch bucket {
	case models.BucketDraft:
		return refs.Draft
	case models.BucketActive:
		return refs.Active
	case models.BucketArchived:
		return refs.Archived
	}
	return nil
}

// ensureLedger returns the account's ledger id for the bucket, creating the
// ledger and setting the ref on first use.
func (s *Service) ensureLedger(ctx context.Context, account *accountmodels.Account, bucket models.Bucket) (bson.ObjectID, error) {
	if ref := bucketRef(account, bucket); ref != nil {
		return *ref, nil
	}
	ledger := &models.Ledger{Bucket: bucket, OwnerID: account.ID}
	if err := s.projects.Create(ctx, ledger); err != nil {
		return bson.ObjectID{}, err
	}
	if err := s.accounts.SetProjectRef(ctx, account.ID, bucket, ledger.ID); err != nil {
		return bson.ObjectID{}, err
	}
	return ledger.ID, nil
}

func (s *Service) emit(ctx context.Context, action string, account *accountmodels.Account, subject, decision string) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    action,
		AccountID: account.ID.Hex(),
		Email:     account.Email,
		Subject:   subject,
		Decision:  decision,
		RequestID: requestcontext.RequestID(ctx),
	})
}
