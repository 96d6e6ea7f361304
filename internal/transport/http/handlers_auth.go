package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	accountmodels "researchmatch/internal/account/models"
	accountservice "researchmatch/internal/account/service"
	dErrors "researchmatch/pkg/domain-errors"
	"researchmatch/pkg/requestcontext"
)

type AccountHandler struct {
	accounts *accountservice.Service
	logger   *slog.Logger
}

func NewAccountHandler(accounts *accountservice.Service, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// PublicRoutes mounts the endpoints that do not require a bearer token.
func (h *AccountHandler) PublicRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/token", h.handleToken)
	r.Post("/resetPassword", h.handleResetPassword)
	r.Post("/confirmResetPassword", h.handleConfirmResetPassword)
}

// AuthedRoutes mounts the endpoints that act on the authenticated caller.
func (h *AccountHandler) AuthedRoutes(r chi.Router) {
	r.Post("/confirmEmail", h.handleConfirmEmail)
	r.Post("/changeEmail", h.handleChangeEmail)
	r.Post("/changeEmailConfirm", h.handleChangeEmailConfirm)
}

type registerRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Password    string `json:"password"`
	AccountType int    `json:"accountType"`
}

func (h *AccountHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validateCredentials(req.Email, req.Password); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !govalidator.StringLength(req.Name, "2", "25") {
		writeError(w, h.logger, dErrors.NewValidation("INPUT_ERROR", "invalid name"))
		return
	}

	result, err := h.accounts.Register(r.Context(), accountservice.RegisterParams{
		Email:       req.Email,
		DisplayName: req.Name,
		Password:    req.Password,
		Kind:        accountmodels.Kind(req.AccountType),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "REGISTER_SUCCESS", map[string]any{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         result.Account,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validateCredentials(req.Email, req.Password); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "LOGIN_SUCCESS", map[string]any{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         result.Account,
	})
}

type tokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AccountHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	accessToken, err := h.accounts.RefreshAccessToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "ACCESS_TOKEN_GENERATED", map[string]any{
		"accessToken": accessToken,
	})
}

type confirmEmailRequest struct {
	EmailToken string `json:"emailToken"`
}

func (h *AccountHandler) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req confirmEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.accounts.ConfirmEmail(r.Context(), requestcontext.Email(r.Context()), req.EmailToken); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "EMAIL_CONFIRMED", nil)
}

type resetPasswordRequest struct {
	Email               string `json:"email"`
	ProvisionalPassword string `json:"provisionalPassword"`
}

func (h *AccountHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validateEmail(req.Email); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !govalidator.StringLength(req.ProvisionalPassword, "6", "255") {
		writeError(w, h.logger, dErrors.NewValidation("INPUT_ERROR", "invalid provisionalPassword"))
		return
	}

	if err := h.accounts.RequestPasswordReset(r.Context(), req.Email, req.ProvisionalPassword); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "PWD_RESET_EMAIL_SENT", nil)
}

type confirmResetPasswordRequest struct {
	Email              string `json:"email"`
	PasswordResetToken string `json:"passwordResetToken"`
}

func (h *AccountHandler) handleConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	var req confirmResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.accounts.ConfirmPasswordReset(r.Context(), req.Email, req.PasswordResetToken); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "PWD_RESET_SUCCESS", nil)
}

type changeEmailRequest struct {
	ProvisionalEmail string `json:"provisionalEmail"`
}

func (h *AccountHandler) handleChangeEmail(w http.ResponseWriter, r *http.Request) {
	var req changeEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validateEmail(req.ProvisionalEmail); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.accounts.RequestEmailChange(r.Context(), requestcontext.Email(r.Context()), req.ProvisionalEmail); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "CHANGE_EMAIL_SENT", nil)
}

type changeEmailConfirmRequest struct {
	ChangeEmailToken string `json:"changeEmailToken"`
}

func (h *AccountHandler) handleChangeEmailConfirm(w http.ResponseWriter, r *http.Request) {
	var req changeEmailConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.accounts.ConfirmEmailChange(r.Context(), requestcontext.Email(r.Context()), req.ChangeEmailToken); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "EMAIL_RESET_SUCCESS", nil)
}

func validateEmail(email string) error {
	if !govalidator.StringLength(email, "6", "25") || !govalidator.IsEmail(email) {
		return dErrors.NewValidation("INPUT_ERROR", "invalid email")
	}
	return nil
}

func validateCredentials(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if !govalidator.StringLength(password, "10", "255") {
		return dErrors.NewValidation("INPUT_ERROR", "invalid password")
	}
	return nil
}
