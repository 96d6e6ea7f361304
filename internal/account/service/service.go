// Package service implements the account lifecycle flows: registration,
// login, access-token refresh, email confirmation, password reset, and email
// change. Each flow is an independent short state machine over the account
// store and the token service.
package service

import (
	"context"
	"log/slog"

	"researchmatch/internal/account/store"
	"researchmatch/internal/platform/metrics"
	"researchmatch/internal/token"
	"researchmatch/pkg/platform/audit"
	"researchmatch/pkg/requestcontext"
)

// Notifier delivers account emails. Delivery is fire-and-forget; the
// implementation logs failures and never reports them back.
type Notifier interface {
	SendEmailConfirmation(ctx context.Context, recipient, token string)
	SendPasswordReset(ctx context.Context, recipient, token string)
	SendEmailChange(ctx context.Context, recipient, token string)
}

// Emitter enqueues audit events without blocking the request path.
type Emitter interface {
	Emit(event audit.Event)
}

type Service struct {
	accounts store.AccountStore
	tokens   *token.Service
	notifier Notifier
	audit    Emitter
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(
	accounts store.AccountStore,
	tokens *token.Service,
	notifier Notifier,
	emitter Emitter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		notifier: notifier,
		audit:    emitter,
		metrics:  m,
		logger:   logger,
	}
}

func (s *Service) emit(ctx context.Context, action, accountID, email, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    action,
		AccountID: accountID,
		Email:     email,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
}
