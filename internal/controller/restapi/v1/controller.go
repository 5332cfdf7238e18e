package v1

import (
	"github.com/andreyxaxa/Domain-Service/internal/usecase"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
)

type V1 struct {
	domains  usecase.DomainRecordUseCase
	activity usecase.ActivityUseCase
	logger   logger.Interface
}
