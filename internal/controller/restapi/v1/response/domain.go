package response

import (
	"time"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
)

type Domain struct {
	ID         string     `json:"id"`
	DomainName string     `json:"domain_name"`
	UserID     string     `json:"user_id"`
	IsVerified bool       `json:"is_verified"`
	IsDeleted  bool       `json:"is_deleted"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

func NewDomain(d entity.DomainRecord) Domain {
	return Domain{
		ID:         d.ID.String(),
		DomainName: d.Name,
		UserID:     d.OwnerID,
		IsVerified: d.Verified,
		IsDeleted:  d.Deleted,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func NewDomains(ds []entity.DomainRecord) []Domain {
	out := make([]Domain, 0, len(ds))
	for _, d := range ds {
		out = append(out, NewDomain(d))
	}

	return out
}

// DomainWithToken is returned by create and restore, the only responses that
// carry the verification token.
type DomainWithToken struct {
	Domain
	VerificationToken string `json:"verification_token"`
}

type DomainSummary struct {
	ID         string    `json:"id"`
	DomainName string    `json:"domain_name"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

type DomainsPage struct {
	Items   []DomainSummary `json:"items"`
	Total   int64           `json:"total"`
	Skip    int             `json:"skip"`
	Take    int             `json:"take"`
	HasMore bool            `json:"has_more"`
}

func NewDomainsPage(p dto.PagedResult[entity.DomainRecord]) DomainsPage {
	items := make([]DomainSummary, 0, len(p.Items))
	for _, d := range p.Items {
		items = append(items, DomainSummary{
			ID:         d.ID.String(),
			DomainName: d.Name,
			IsVerified: d.Verified,
			CreatedAt:  d.CreatedAt,
		})
	}

	return DomainsPage{
		Items:   items,
		Total:   p.Total,
		Skip:    p.Skip,
		Take:    p.Take,
		HasMore: p.HasMore,
	}
}

type Verify struct {
	Verified bool `json:"verified"`
}

type Exists struct {
	Exists bool `json:"exists"`
}
