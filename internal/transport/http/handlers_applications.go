package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	applicationservice "researchmatch/internal/application/service"
)

type ApplicationHandler struct {
	applications *applicationservice.Service
	logger       *slog.Logger
}

func NewApplicationHandler(applications *applicationservice.Service, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, logger: logger}
}

func (h *ApplicationHandler) Routes(r chi.Router) {
	r.Post("/createApplication", h.handleCreate)
	r.Delete("/deleteApplication", h.handleDelete)
	r.Get("/getApplications", h.handleList)
}

type createApplicationRequest struct {
	ProjectID      string   `json:"projectID"`
	ProfessorEmail string   `json:"professorEmail"`
	Questions      []string `json:"questions"`
	Answers        []string `json:"answers"`
}

func (h *ApplicationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	projectID, err := parseObjectID(req.ProjectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validateEmail(req.ProfessorEmail); err != nil {
		writeError(w, h.logger, err)
		return
	}

	_, err = h.applications.CreateApplication(r.Context(), applicationservice.CreateApplicationParams{
		ProjectID:    projectID,
		FacultyEmail: req.ProfessorEmail,
		Questions:    req.Questions,
		Answers:      req.Answers,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "APPLICATION_CREATED", nil)
}

type deleteApplicationRequest struct {
	ApplicationID string `json:"applicationID"`
}

func (h *ApplicationHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	applicationID, err := parseObjectID(req.ApplicationID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.applications.DeleteApplication(r.Context(), applicationID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "APPLICATION_DELETED", nil)
}

func (h *ApplicationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.applications.GetApplications(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "APPLICATIONS_FOUND", map[string]any{
		"applications": views,
	})
}
