package response

import "github.com/andreyxaxa/Domain-Service/internal/dto"

type Activity struct {
	DomainID string             `json:"domain_id"`
	Items    []dto.ActivityItem `json:"items"`
}
