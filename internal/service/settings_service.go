package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/internal/repository/unitofwork"
	"ai-qa-rag-be/pkg/apperror"
	"ai-qa-rag-be/pkg/chunker"
	"ai-qa-rag-be/pkg/rag/settings"
)

type ISettingsService interface {
	List(ctx context.Context) ([]*dto.AiConfigurationResponse, error)
	Update(ctx context.Context, key string, req dto.UpdateAiConfigurationRequest) (*dto.AiConfigurationResponse, error)
}

// SettingsCache is the effective settings view. Invalidate drops it so the next question
// reads fresh values.
type SettingsCache interface {
	Snapshot(ctx context.Context) settings.Snapshot
	Invalidate()
}

type settingsService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      SettingsCache
	logger     logger.ILogger
}

func NewSettingsService(uowFactory unitofwork.RepositoryFactory, cache SettingsCache, log logger.ILogger) ISettingsService {
	return &settingsService{
		uowFactory: uowFactory,
		cache:      cache,
		logger:     log,
	}
}

func (s *settingsService) List(ctx context.Context) ([]*dto.AiConfigurationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	configs, err := uow.AiConfigRepository().FindAllConfigurations(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(configs, func(i, j int) bool {
		if configs[i].Category != configs[j].Category {
			return configs[i].Category < configs[j].Category
		}
		return configs[i].Key < configs[j].Key
	})

	res := make([]*dto.AiConfigurationResponse, 0, len(configs))
	for _, c := range configs {
		res = append(res, configToResponse(c))
	}
	return res, nil
}

func (s *settingsService) Update(ctx context.Context, key string, req dto.UpdateAiConfigurationRequest) (*dto.AiConfigurationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	config, err := uow.AiConfigRepository().FindConfigurationByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, fmt.Errorf("%w: configuration with key '%s'", apperror.ErrNotFound, key)
	}

	value := strings.TrimSpace(req.Value)
	if err := checkValueType(config.ValueType, value); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperror.ErrValidation, key, err)
	}
	if err := s.checkChunking(ctx, key, value); err != nil {
		return nil, err
	}

	previous := config.Value
	config.Value = value
	if err := uow.AiConfigRepository().UpdateConfiguration(ctx, config); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate()
	}

	s.logger.Info("SETTINGS", "Configuration updated", map[string]interface{}{
		"key":      key,
		"previous": previous,
		"value":    value,
	})
	return configToResponse(config), nil
}

func checkValueType(valueType, value string) error {
	switch valueType {
	case entity.AiConfigValueTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("expected a number, got %q", value)
		}
	case entity.AiConfigValueTypeBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("expected a boolean, got %q", value)
		}
	}
	return nil
}

// checkChunking validates a chunking key against the other two effective chunking values,
// so an unusable combination is never stored.
func (s *settingsService) checkChunking(ctx context.Context, key, value string) error {
	switch key {
	case entity.AiConfigKeyChunkSize, entity.AiConfigKeyChunkOverlap, entity.AiConfigKeyMinChunkSize:
	default:
		return nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: %s: expected a whole number, got %q", apperror.ErrValidation, key, value)
	}

	cfg := chunker.DefaultConfig()
	if s.cache != nil {
		cfg = s.cache.Snapshot(ctx).Chunking
	}
	switch key {
	case entity.AiConfigKeyChunkSize:
		cfg.ChunkSize = n
	case entity.AiConfigKeyChunkOverlap:
		cfg.Overlap = n
	case entity.AiConfigKeyMinChunkSize:
		cfg.MinChunkSize = n
	}
	return cfg.Validate()
}

func configToResponse(c *entity.AiConfiguration) *dto.AiConfigurationResponse {
	return &dto.AiConfigurationResponse{
		Id:          c.Id,
		Key:         c.Key,
		Value:       c.Value,
		ValueType:   c.ValueType,
		Description: c.Description,
		Category:    c.Category,
		UpdatedAt:   c.UpdatedAt,
	}
}
