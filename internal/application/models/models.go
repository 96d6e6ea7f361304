package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	projectmodels "researchmatch/internal/project/models"
)

// Entry is one submitted application. The referenced project entry carries a
// mirrored ApplicationRef whose status the decision protocol keeps equal to
// Status here; this side is the authoritative record.
type Entry struct {
	ID              bson.ObjectID        `bson:"_id" json:"id"`
	ProjectLedgerID bson.ObjectID        `bson:"project_ledger_id" json:"projectLedgerId"`
	ProjectEntryID  bson.ObjectID        `bson:"project_entry_id" json:"projectEntryId"`
	Questions       []string             `bson:"questions" json:"questions"`
	Answers         []string             `bson:"answers" json:"answers"`
	Status          projectmodels.Status `bson:"status" json:"status"`
	SubmittedAt     time.Time            `bson:"submitted_at" json:"submittedAt"`
}

// Ledger is the per-student application collection, created lazily on the
// first application.
type Ledger struct {
	ID      bson.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID bson.ObjectID `bson:"owner_id" json:"ownerStudentId"`
	Entries []Entry       `bson:"applications" json:"applications"`
}

// FindEntry returns the entry with the given id, or nil.
func (l *Ledger) FindEntry(id bson.ObjectID) *Entry {
	for i := range l.Entries {
		if l.Entries[i].ID == id {
			return &l.Entries[i]
		}
	}
	return nil
}

// View is the denormalized row returned by the applications listing: the
// authoritative entry joined with display fields of the referenced project.
type View struct {
	ID              bson.ObjectID        `json:"id"`
	ProjectLedgerID bson.ObjectID        `json:"projectLedgerId"`
	ProjectEntryID  bson.ObjectID        `json:"projectEntryId"`
	Questions       []string             `json:"questions"`
	Answers         []string             `json:"answers"`
	Status          projectmodels.Status `json:"status"`
	ProjectName     string               `json:"projectName"`
	Description     string               `json:"description"`
	PostedAt        time.Time            `json:"postedAt"`
	FacultyEmail    string               `json:"professorEmail"`
}
