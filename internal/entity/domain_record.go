package entity

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
	"github.com/google/uuid"
)

// DomainRecord is the aggregate root for one owned domain name.
//
// It is a value: every operation returns the next state together with the
// events it produced and leaves the receiver untouched. Operations never look
// at other records; cross-record rules (name uniqueness) belong to the caller.
type DomainRecord struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"domain_name"`
	OwnerID           string     `json:"user_id"`
	VerificationToken string     `json:"-"`
	Verified          bool       `json:"is_verified"`
	Deleted           bool       `json:"is_deleted"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	Version           int64      `json:"-"`
}

// NewDomainRecord registers name for ownerID in the active, unverified state.
func NewDomainRecord(id uuid.UUID, name, ownerID, token string, now time.Time) (DomainRecord, []Event, error) {
	name = NormalizeName(name)
	if !ValidName(name) {
		return DomainRecord{}, nil, fmt.Errorf("%w: %q", errs.ErrInvalidName, name)
	}
	if !ValidOwner(ownerID) {
		return DomainRecord{}, nil, errs.ErrInvalidOwner
	}
	if token == "" {
		return DomainRecord{}, nil, errs.ErrInvalidToken
	}

	d := DomainRecord{
		ID:                id,
		Name:              name,
		OwnerID:           ownerID,
		VerificationToken: token,
		CreatedAt:         now,
	}

	next, events := d.emit(now, CreatedEvent{Name: d.Name, OwnerID: d.OwnerID})

	return next, events, nil
}

func (d DomainRecord) State() State {
	switch {
	case d.Deleted:
		return StateDeleted
	case d.Verified:
		return StateActiveVerified
	default:
		return StateActiveUnverified
	}
}

// Rename is a no-op when newName already is the current name.
func (d DomainRecord) Rename(newName string, now time.Time) (DomainRecord, []Event, error) {
	newName = NormalizeName(newName)
	if newName == d.Name {
		return d, nil, nil
	}
	if !ValidName(newName) {
		return d, nil, fmt.Errorf("%w: %q", errs.ErrInvalidName, newName)
	}

	old := d.Name
	d.Name = newName
	d.touch(now)

	next, events := d.emit(now, RenamedEvent{OldName: old, NewName: d.Name, OwnerID: d.OwnerID})

	return next, events, nil
}

// Delete soft-deletes the record and drops its verification. Deleting a
// deleted record is a no-op.
func (d DomainRecord) Delete(now time.Time) (DomainRecord, []Event) {
	if d.Deleted {
		return d, nil
	}

	d.Deleted = true
	d.Verified = false
	d.touch(now)

	return d.emit(now, DeletedEvent{Name: d.Name, OwnerID: d.OwnerID})
}

// Restore undeletes the record and replaces its verification token, so the
// owner has to prove ownership again. Restoring a live record is a no-op.
func (d DomainRecord) Restore(token string, now time.Time) (DomainRecord, []Event, error) {
	if !d.Deleted {
		return d, nil, nil
	}
	if token == "" {
		return d, nil, errs.ErrInvalidToken
	}

	d.Deleted = false
	d.Verified = false
	d.VerificationToken = token
	d.touch(now)

	next, events := d.emit(now, RestoredEvent{Name: d.Name, OwnerID: d.OwnerID})

	return next, events, nil
}

// Verify checks token against the current verification token. It succeeds
// without a new event when the record is already verified and always fails
// for deleted records.
func (d DomainRecord) Verify(token string, now time.Time) (DomainRecord, []Event, bool) {
	if d.Verified {
		return d, nil, true
	}
	if d.Deleted || token == "" {
		return d, nil, false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(d.VerificationToken)) != 1 {
		return d, nil, false
	}

	d.Verified = true
	d.touch(now)

	next, events := d.emit(now, VerifiedEvent{Name: d.Name, OwnerID: d.OwnerID})

	return next, events, true
}

func (d *DomainRecord) touch(now time.Time) {
	t := now
	d.UpdatedAt = &t
}

// emit bumps the version and returns the single event for this mutation.
func (d DomainRecord) emit(now time.Time, body EventBody) (DomainRecord, []Event) {
	d.Version++

	return d, []Event{{
		AggregateID: d.ID,
		Sequence:    d.Version,
		OccurredAt:  now,
		Body:        body,
	}}
}
