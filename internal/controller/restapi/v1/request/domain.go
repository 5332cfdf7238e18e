package request

type CreateDomain struct {
	DomainName string `json:"domain_name" example:"example.com"`
	UserID     string `json:"user_id" example:"user-42"`
}

type RenameDomain struct {
	NewDomainName string `json:"new_domain_name" example:"example.org"`
	UserID        string `json:"user_id" example:"user-42"`
}

type RestoreDomain struct {
	UserID string `json:"user_id" example:"user-42"`
}

type VerifyDomain struct {
	VerificationToken string `json:"verification_token"`
	UserID            string `json:"user_id" example:"user-42"`
}
