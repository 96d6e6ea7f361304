package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"

	"researchmatch/internal/project/models"
	dErrors "researchmatch/pkg/domain-errors"
	"researchmatch/pkg/platform/audit"
	"researchmatch/pkg/platform/sentinel"
)

// DecideApplication records an Accept or Reject for one application of an
// Active project. Decisions are single-use: both the authoritative entry and
// the project-side mirror must still be Pending.
func (s *Service) DecideApplication(ctx context.Context, projectID, applicationEntryID bson.ObjectID, decision models.Status) error {
	account, err := s.facultyAccount(ctx)
	if err != nil {
		return err
	}

	if !models.ValidDecision(decision) {
		return dErrors.New(dErrors.CodeBadRequest, "INPUT_ERROR")
	}

	activeRef := bucketRef(account, models.BucketActive)
	if activeRef == nil {
		return dErrors.New(dErrors.CodeNotFound, "PROJECT_LIST_NOT_FOUND")
	}
	ledger, err := s.projects.FindByID(ctx, *activeRef)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "PROJECT_LIST_NOT_FOUND")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}
	entry := ledger.FindEntry(projectID)
	if entry == nil {
		return dErrors.New(dErrors.CodeNotFound, "PROJECT_NOT_FOUND")
	}

	idx := entry.FindApplicationRef(applicationEntryID)
	if idx < 0 {
		return dErrors.New(dErrors.CodeNotFound, "APPLICATION_NOT_FOUND")
	}

	if err := s.link.Decide(ctx, *activeRef, projectID, entry.Applications[idx], decision); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "DECISION_ALREADY_UPDATED")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "APPLICATION_NOT_FOUND")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "SERVER_ERROR")
	}

	s.metrics.IncDecisions(string(decision))
	s.emit(ctx, audit.EventApplicationDecided, account, applicationEntryID.Hex(), string(decision))
	return nil
}
