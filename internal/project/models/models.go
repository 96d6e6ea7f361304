package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Bucket names one of the three per-faculty project ledgers.
type Bucket string

const (
	BucketDraft    Bucket = "Draft"
	BucketActive   Bucket = "Active"
	BucketArchived Bucket = "Archived"
)

func (b Bucket) Valid() bool {
	switch b {
	case BucketDraft, BucketActive, BucketArchived:
		return true
	}
	return false
}

// Status is the application state shared by the project-side mirror and the
// authoritative application entry. Decisions move it out of Pending exactly
// once.
type Status string

const (
	StatusPending Status = "Pending"
	StatusAccept  Status = "Accept"
	StatusReject  Status = "Reject"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusAccept || s == StatusReject
}

// Decision is the subset of Status a faculty member may set.
func ValidDecision(s Status) bool {
	return s == StatusAccept || s == StatusReject
}

// Requirement is one applicant requirement of a project.
type Requirement struct {
	Kind      int    `bson:"kind" json:"kind"`
	Value     string `bson:"value" json:"value"`
	Mandatory bool   `bson:"mandatory" json:"mandatory"`
}

// ApplicationRef is the project-side mirror of one submitted application.
// The (LedgerID, EntryID) pair locates the authoritative ApplicationEntry;
// Status is a denormalized copy the decision protocol keeps in sync.
type ApplicationRef struct {
	LedgerID bson.ObjectID `bson:"application_ledger_id" json:"applicationLedgerId"`
	EntryID  bson.ObjectID `bson:"application_entry_id" json:"applicationEntryId"`
	Status   Status        `bson:"status" json:"status"`
}

// Entry is one project inside a ledger.
type Entry struct {
	ID           bson.ObjectID    `bson:"_id" json:"id"`
	Name         string           `bson:"name" json:"name"`
	OwnerID      bson.ObjectID    `bson:"owner_id" json:"ownerFacultyId"`
	PostedAt     time.Time        `bson:"posted" json:"postedAt"`
	ArchivedAt   *time.Time       `bson:"archived,omitempty" json:"archivedAt,omitempty"`
	Description  string           `bson:"description" json:"description"`
	Questions    []string         `bson:"questions" json:"questions"`
	Requirements []Requirement    `bson:"requirements" json:"requirements"`
	Applications []ApplicationRef `bson:"applications" json:"applications"`
}

// FindApplicationRef returns the index of the mirror entry matching the
// given application entry id, or -1.
func (e *Entry) FindApplicationRef(entryID bson.ObjectID) int {
	for i, ref := range e.Applications {
		if ref.EntryID == entryID {
			return i
		}
	}
	return -1
}

// Ledger is one bucket's ordered project collection for one faculty account.
type Ledger struct {
	ID      bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Bucket  Bucket        `bson:"bucket" json:"bucket"`
	OwnerID bson.ObjectID `bson:"owner_id" json:"ownerFacultyId"`
	Entries []Entry       `bson:"projects" json:"projects"`
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
