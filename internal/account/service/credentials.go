package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"researchmatch/internal/account/models"
	"researchmatch/internal/token"
	dErrors "researchmatch/pkg/domain-errors"
	"researchmatch/pkg/platform/audit"
	"researchmatch/pkg/platform/sentinel"
	"researchmatch/pkg/requestcontext"
)

// RegisterParams are the validated registration inputs. Field-level format
// and length checks happen at the transport; the service owns the semantic
// rules (kind validity, email uniqueness).
type RegisterParams struct {
	Email       string
	DisplayName string
	Password    string
	Kind        models.Kind
}

// AccountSummary is the client-facing slice of an account.
type AccountSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	Account      AccountSummary
}

// Register creates the account, issues the first token pair, admits the
// refresh token, and fires the confirmation email. A notification failure
// never fails the registration.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if !params.Kind.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "INPUT_ERROR")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	account := &models.Account{
		Email:          params.Email,
		DisplayName:    params.DisplayName,
		PasswordHash:   string(hash),
		EmailConfirmed: false,
		EmailTicket:    uuid.NewString(),
		Kind:           params.Kind,
		CreatedAt:      requestcontext.Now(ctx),
	}
	switch params.Kind {
	case models.KindFaculty:
		account.Faculty = &models.FacultyProfile{}
	case models.KindStudent:
		account.Student = &models.StudentProfile{}
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "EMAIL_EXISTS")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	result, err := s.issueTokenPair(ctx, account)
	if err != nil {
		// The account row exists at this point; the caller sees a server
		// error and may retry login.
		return nil, err
	}

	s.notifier.SendEmailConfirmation(ctx, account.Email, account.EmailTicket)

	s.metrics.IncAccountsRegistered()
	s.emit(ctx, audit.EventAccountRegistered, account.ID.Hex(), account.Email, "")
	return result, nil
}

// Login verifies the credentials and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncLogins("invalid_email")
			s.emit(ctx, audit.EventLoginFailed, "", email, "unknown email")
			return nil, dErrors.New(dErrors.CodeForbidden, "INVALID_EMAIL")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.metrics.IncLogins("invalid_password")
		s.emit(ctx, audit.EventLoginFailed, account.ID.Hex(), email, "password mismatch")
		return nil, dErrors.New(dErrors.CodeForbidden, "INVALID_PASSWORD")
	}

	result, err := s.issueTokenPair(ctx, account)
	if err != nil {
		return nil, err
	}

	s.metrics.IncLogins("success")
	s.emit(ctx, audit.EventLoginSucceeded, account.ID.Hex(), email, "")
	return result, nil
}

// RefreshAccessToken exchanges a still-admitted refresh token for a new
// access token. The refresh token itself is not rotated.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Verify(refreshToken, token.ClassRefresh)
	if err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "INVALID_REFRESH_TOKEN")
	}

	account, err := s.accounts.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "INVALID_REFRESH_TOKEN")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	// A token absent from the ring was either evicted by newer logins or
	// already cleaned up; both look the same to the caller.
	if !account.HasRefreshToken(refreshToken) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "EXPIRED_REFRESH_TOKEN")
	}

	accessToken, err := s.tokens.IssueAccessToken(account.ID.Hex(), account.Email, account.DisplayName)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.metrics.IncAccessTokensMinted()
	s.emit(ctx, audit.EventTokenRefreshed, account.ID.Hex(), account.Email, "")
	return accessToken, nil
}

// DeleteAccount removes an account outright. Admin and test tooling only.
func (s *Service) DeleteAccount(ctx context.Context, email string) error {
	if err := s.accounts.Delete(ctx, email); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "BAD_REQUEST")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	return nil
}

// issueTokenPair mints both token classes and admits the refresh token into
// the account's ring. Admission failure is fatal for the enclosing flow.
func (s *Service) issueTokenPair(ctx context.Context, account *models.Account) (*AuthResult, error) {
	accessToken, err := s.tokens.IssueAccessToken(account.ID.Hex(), account.Email, account.DisplayName)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	refreshToken, err := s.tokens.IssueRefreshToken(account.ID.Hex(), account.Email, account.DisplayName)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	if err := s.admitRefreshToken(ctx, account, refreshToken); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.metrics.IncAccessTokensMinted()
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account: AccountSummary{
			ID:          account.ID.Hex(),
			Email:       account.Email,
			DisplayName: account.DisplayName,
		},
	}, nil
}

// admitRefreshToken applies the bounded-FIFO admission policy to the stored
// ring: evict the oldest entry when full, then append the new token. The two
// writes are separate single-document updates; losing the race between them
// only costs one stale slot until the next login.
func (s *Service) admitRefreshToken(ctx context.Context, account *models.Account, newToken string) error {
	stored := make([]string, 0, len(account.Security.RefreshTokens))
	for _, rt := range account.Security.RefreshTokens {
		stored = append(stored, rt.Token)
	}

	ring := token.NewRingFrom(token.RingCapacity, stored)
	evicted, didEvict := ring.Admit(newToken)
	if didEvict {
		if err := s.accounts.PullRefreshToken(ctx, account.Email, evicted); err != nil {
			return err
		}
	}
	return s.accounts.PushRefreshToken(ctx, account.Email, models.RefreshToken{
		Token:    newToken,
		IssuedAt: requestcontext.Now(ctx),
	})
}
