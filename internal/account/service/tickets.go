package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"researchmatch/internal/account/models"
	dErrors "researchmatch/pkg/domain-errors"
	"researchmatch/pkg/platform/audit"
	"researchmatch/pkg/platform/sentinel"
	"researchmatch/pkg/requestcontext"
)

// ticketTTL bounds every one-time ticket (password reset, email change).
const ticketTTL = 10 * time.Minute

// ConfirmEmail marks the caller's address confirmed when the submitted
// ticket matches the one issued at registration.
func (s *Service) ConfirmEmail(ctx context.Context, email, submittedTicket string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return s.translateLookup(err)
	}

	if account.EmailConfirmed {
		return dErrors.New(dErrors.CodeUnauthorized, "EMAIL_ALREADY_CONFIRMED")
	}
	if submittedTicket == "" || submittedTicket != account.EmailTicket {
		return dErrors.New(dErrors.CodeUnauthorized, "INVALID_EMAIL_TOKEN")
	}

	if err := s.accounts.ConfirmEmail(ctx, email); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.emit(ctx, audit.EventEmailConfirmed, account.ID.Hex(), email, "")
	return nil
}

// RequestPasswordReset stages a hashed candidate password behind a fresh
// ticket. The response is success whether or not the email matches an
// account, so the endpoint cannot be used to enumerate registered addresses.
func (s *Service) RequestPasswordReset(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < 6 || len(newPassword) > 255 {
		return dErrors.New(dErrors.CodeBadRequest, "INPUT_ERROR")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	ticket := &models.PasswordResetTicket{
		Token:       uuid.NewString(),
		PendingHash: string(hash),
		ExpiresAt:   requestcontext.Now(ctx).Add(ticketTTL),
	}
	// Overwrites any prior ticket; silent no-op when the account is absent.
	if err := s.accounts.SetPasswordResetTicket(ctx, email, ticket); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.notifier.SendPasswordReset(ctx, email, ticket.Token)
	s.emit(ctx, audit.EventPasswordResetStart, "", email, "")
	return nil
}

// ConfirmPasswordReset commits the staged password when the ticket matches
// and is still live. The ticket is single-use regardless of outcome: expiry
// clears it just as success does.
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, submittedTicket string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "INVALID_PWD_TOKEN")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	ticket := account.Security.PasswordReset
	if ticket == nil || submittedTicket == "" || ticket.Token != submittedTicket {
		return dErrors.New(dErrors.CodeUnauthorized, "INVALID_PWD_TOKEN")
	}

	if ticket.Expired(requestcontext.Now(ctx)) {
		if err := s.accounts.ClearPasswordResetTicket(ctx, email); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
		}
		return dErrors.New(dErrors.CodeUnauthorized, "PWD_TOKEN_EXPIRED")
	}

	if err := s.accounts.CommitPasswordReset(ctx, email, ticket.PendingHash); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.emit(ctx, audit.EventPasswordResetDone, account.ID.Hex(), email, "")
	return nil
}

// RequestEmailChange stages a pending address behind a fresh ticket. Unlike
// password reset the caller is authenticated, so an already-taken address is
// reported outright.
func (s *Service) RequestEmailChange(ctx context.Context, callerEmail, newEmail string) error {
	_, err := s.accounts.FindByEmail(ctx, newEmail)
	switch {
	case err == nil:
		return dErrors.New(dErrors.CodeConflict, "EMAIL_EXISTS")
	case !errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	ticket := &models.EmailChangeTicket{
		Token:        uuid.NewString(),
		PendingEmail: newEmail,
		ExpiresAt:    requestcontext.Now(ctx).Add(ticketTTL),
	}
	if err := s.accounts.SetEmailChangeTicket(ctx, callerEmail, ticket); err != nil {
		return s.translateLookup(err)
	}

	s.notifier.SendEmailChange(ctx, newEmail, ticket.Token)
	s.emit(ctx, audit.EventEmailChangeStart, "", callerEmail, "")
	return nil
}

// ConfirmEmailChange commits the staged address. If a third party claimed
// the pending address since the request, the ticket is cleared and the
// conflict reported; the change is abandoned, not retried.
func (s *Service) ConfirmEmailChange(ctx context.Context, callerEmail, submittedTicket string) error {
	account, err := s.accounts.FindByEmail(ctx, callerEmail)
	if err != nil {
		return s.translateLookup(err)
	}

	ticket := account.Security.EmailChange
	if ticket == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "INVALID_EMAIL_TOKEN")
	}

	// Stale-state cleanup: the pending address has been registered by
	// someone else while the ticket was outstanding.
	if _, err := s.accounts.FindByEmail(ctx, ticket.PendingEmail); err == nil {
		if clearErr := s.accounts.ClearEmailChangeTicket(ctx, callerEmail); clearErr != nil {
			return dErrors.Wrap(clearErr, dErrors.CodeInternal, "SERVER_ERROR")
		}
		s.emit(ctx, audit.EventEmailChangeConflict, account.ID.Hex(), callerEmail, ticket.PendingEmail)
		return dErrors.New(dErrors.CodeConflict, "EMAIL_EXISTS")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	if submittedTicket == "" || ticket.Token != submittedTicket {
		return dErrors.New(dErrors.CodeUnauthorized, "INVALID_EMAIL_TOKEN")
	}

	if ticket.Expired(requestcontext.Now(ctx)) {
		if err := s.accounts.ClearEmailChangeTicket(ctx, callerEmail); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
		}
		return dErrors.New(dErrors.CodeUnauthorized, "EMAIL_TOKEN_EXPIRED")
	}

	if err := s.accounts.CommitEmailChange(ctx, callerEmail, ticket.PendingEmail); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "EMAIL_EXISTS")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.emit(ctx, audit.EventEmailChangeDone, account.ID.Hex(), ticket.PendingEmail, "")
	return nil
}

func (s *Service) translateLookup(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeBadRequest, "BAD_REQUEST")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
}
