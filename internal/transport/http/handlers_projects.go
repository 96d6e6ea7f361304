package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"researchmatch/internal/project/models"
	projectservice "researchmatch/internal/project/service"
	projectstore "researchmatch/internal/project/store"
	dErrors "researchmatch/pkg/domain-errors"
)

type ProjectHandler struct {
	projects *projectservice.Service
	logger   *slog.Logger
}

func NewProjectHandler(projects *projectservice.Service, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

func (h *ProjectHandler) Routes(r chi.Router) {
	r.Post("/createProject", h.handleCreate)
	r.Put("/updateProject", h.handleUpdate)
	r.Put("/archiveProject", h.handleArchive)
	r.Delete("/deleteProject", h.handleDelete)
	r.Get("/getProjects", h.handleList)
	r.Put("/application", h.handleDecision)
}

type requirementDTO struct {
	RequirementType  int    `json:"requirementType"`
	RequirementValue string `json:"requirementValue"`
	Required         bool   `json:"required"`
}

type projectDetailsDTO struct {
	Project struct {
		ProjectName  string           `json:"projectName"`
		Description  string           `json:"description"`
		Questions    []string         `json:"questions"`
		Requirements []requirementDTO `json:"requirements"`
	} `json:"project"`
}

func toRequirements(dtos []requirementDTO) []models.Requirement {
	reqs := make([]models.Requirement, len(dtos))
	for i, d := range dtos {
		reqs[i] = models.Requirement{Kind: d.RequirementType, Value: d.RequirementValue, Mandatory: d.Required}
	}
	return reqs
}

type createProjectRequest struct {
	ProjectType    string            `json:"projectType"`
	ProjectDetails projectDetailsDTO `json:"projectDetails"`
}

func (h *ProjectHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	project := req.ProjectDetails.Project
	if project.ProjectName == "" || project.Description == "" {
		writeError(w, h.logger, dErrors.NewValidation("INPUT_ERROR", "projectName and description are required"))
		return
	}

	_, err := h.projects.CreateProject(r.Context(), projectservice.CreateProjectParams{
		Bucket:       models.Bucket(req.ProjectType),
		Name:         project.ProjectName,
		Description:  project.Description,
		Questions:    project.Questions,
		Requirements: toRequirements(project.Requirements),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "PROJECT_CREATED", nil)
}

type updateProjectRequest struct {
	ProjectID      string            `json:"projectID"`
	ProjectType    string            `json:"projectType"`
	ProjectDetails projectDetailsDTO `json:"projectDetails"`
}

func (h *ProjectHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	projectID, err := parseObjectID(req.ProjectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	project := req.ProjectDetails.Project
	err = h.projects.UpdateProject(r.Context(), models.Bucket(req.ProjectType), projectID, projectstore.EntryUpdate{
		Name:         project.ProjectName,
		Description:  project.Description,
		Questions:    project.Questions,
		Requirements: toRequirements(project.Requirements),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "PROJECT_UPDATED", nil)
}

type archiveProjectRequest struct {
	ProjectID string `json:"projectID"`
}

func (h *ProjectHandler) handleArchive(w http.ResponseWriter, r *http.Request) {
	var req archiveProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	projectID, err := parseObjectID(req.ProjectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.projects.ArchiveProject(r.Context(), projectID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "PROJECT_ARCHIVED", nil)
}

type deleteProjectRequest struct {
	ProjectID   string `json:"projectID"`
	ProjectType string `json:"projectType"`
}

func (h *ProjectHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	projectID, err := parseObjectID(req.ProjectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.projects.DeleteProject(r.Context(), models.Bucket(req.ProjectType), projectID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "PROJECT_DELETED", nil)
}

func (h *ProjectHandler) handleList(w http.ResponseWriter, r *http.Request) {
	view, err := h.projects.GetProjects(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "PROJECTS_FOUND", map[string]any{
		"projects": view,
	})
}

type decisionRequest struct {
	ProjectID     string `json:"projectID"`
	ApplicationID string `json:"applicationID"`
	Decision      string `json:"decision"`
}

func (h *ProjectHandler) handleDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	projectID, err := parseObjectID(req.ProjectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	applicationID, err := parseObjectID(req.ApplicationID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.projects.DecideApplication(r.Context(), projectID, applicationID, models.Status(req.Decision)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "APPLICATION_STATUS_UPDATED", nil)
}

func parseObjectID(raw string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return bson.ObjectID{}, dErrors.NewValidation("INPUT_ERROR", "invalid object id")
	}
	return id, nil
}
