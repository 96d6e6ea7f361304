// Package service implements the student application operations: submit,
// withdraw, and the denormalized applications listing.
package service

import (
	"context"
	"errors"
	"log/slog"

	accountmodels "researchmatch/internal/account/models"
	accountstore "researchmatch/internal/account/store"
	"researchmatch/internal/application/store"
	"researchmatch/internal/mirror"
	"researchmatch/internal/platform/metrics"
	projectstore "researchmatch/internal/project/store"
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
	applications store.ApplicationStore
	projects     projectstore.ProjectStore
	accounts     accountstore.AccountStore
	link         *mirror.Link
	audit        Emitter
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewService(
	applications store.ApplicationStore,
	projects projectstore.ProjectStore,
	accounts accountstore.AccountStore,
	link *mirror.Link,
	emitter Emitter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		applications: applications,
		projects:     projects,
		accounts:     accounts,
		link:         link,
		audit:        emitter,
		metrics:      m,
		logger:       logger,
	}
}

// studentAccount resolves the caller and requires the student profile.
func (s *Service) studentAccount(ctx context.Context) (*accountmodels.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, requestcontext.Email(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "BAD_REQUEST")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	if account.Student == nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "BAD_REQUEST")
	}
	return account, nil
}

func (s *Service) emit(ctx context.Context, action string, account *accountmodels.Account, subject string) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    action,
		AccountID: account.ID.Hex(),
		Email:     account.Email,
		Subject:   subject,
		RequestID: requestcontext.RequestID(ctx),
	})
}
