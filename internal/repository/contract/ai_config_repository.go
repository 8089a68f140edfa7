package contract

import (
	"context"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/repository/specification"
)

// IAiConfigRepository defines AI configuration repository operations
type IAiConfigRepository interface {
	FindAllConfigurations(ctx context.Context, specs ...specification.Specification) ([]*entity.AiConfiguration, error)
	FindConfigurationByKey(ctx context.Context, key string) (*entity.AiConfiguration, error)
	UpdateConfiguration(ctx context.Context, config *entity.AiConfiguration) error
	CreateConfiguration(ctx context.Context, config *entity.AiConfiguration) error
}
