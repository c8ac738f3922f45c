package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// ApprovalHistoryEntry is one immutable row of the audit trail. Entries are
// appended, never edited or removed.
type ApprovalHistoryEntry struct {
	id            string
	applicationID string
	actorID       string
	actorEmail    string
	stage         valueobject.Stage
	decision      valueobject.Decision
	remarks       string
	createdAt     time.Time
}

func NewApprovalHistoryEntry(
	applicationID string,
	actor Actor,
	stage valueobject.Stage,
	decision valueobject.Decision,
	remarks string,
	now time.Time,
) ApprovalHistoryEntry {
	return ApprovalHistoryEntry{
		id:            uuid.New().String(),
		applicationID: applicationID,
		actorID:       actor.ID(),
		actorEmail:    actor.Email(),
		stage:         stage,
		decision:      decision,
		remarks:       remarks,
		createdAt:     now,
	}
}

func ReconstructApprovalHistoryEntry(
	id, applicationID, actorID, actorEmail string,
	stage valueobject.Stage,
	decision valueobject.Decision,
	remarks string,
	createdAt time.Time,
) ApprovalHistoryEntry {
	return ApprovalHistoryEntry{
		id:            id,
		applicationID: applicationID,
		actorID:       actorID,
		actorEmail:    actorEmail,
		stage:         stage,
		decision:      decision,
		remarks:       remarks,
		createdAt:     createdAt,
	}
}

func (e ApprovalHistoryEntry) ID() string                     { return e.id }
func (e ApprovalHistoryEntry) ApplicationID() string          { return e.applicationID }
func (e ApprovalHistoryEntry) ActorID() string                { return e.actorID }
func (e ApprovalHistoryEntry) ActorEmail() string             { return e.actorEmail }
func (e ApprovalHistoryEntry) Stage() valueobject.Stage       { return e.stage }
func (e ApprovalHistoryEntry) Decision() valueobject.Decision { return e.decision }
func (e ApprovalHistoryEntry) Remarks() string                { return e.remarks }
func (e ApprovalHistoryEntry) CreatedAt() time.Time           { return e.createdAt }
