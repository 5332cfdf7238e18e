package dto

import (
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/google/uuid"
)

type CreateDomain struct {
	Name    string
	OwnerID string
}

type RenameDomain struct {
	ID      uuid.UUID
	OwnerID string
	NewName string
}

// DomainRef addresses one record on behalf of its owner.
type DomainRef struct {
	ID      uuid.UUID
	OwnerID string
}

type VerifyDomain struct {
	ID      uuid.UUID
	OwnerID string
	Token   string
}

// CreatedDomain is returned only from Create: it is the one place the
// verification token leaves the service.
type CreatedDomain struct {
	Record            entity.DomainRecord
	VerificationToken string
}

// RestoredDomain carries the token issued on restore.
type RestoredDomain struct {
	Record            entity.DomainRecord
	VerificationToken string
}
