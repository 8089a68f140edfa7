package service

import (
	"context"
	"testing"

	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/internal/repository/contract"
	"ai-qa-rag-be/internal/repository/specification"
	"ai-qa-rag-be/internal/repository/unitofwork"
	"ai-qa-rag-be/pkg/apperror"
	"ai-qa-rag-be/pkg/chunker"
	"ai-qa-rag-be/pkg/rag/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memConfigRepo struct {
	contract.IAiConfigRepository
	rows map[string]*entity.AiConfiguration
}

func (r *memConfigRepo) FindAllConfigurations(ctx context.Context, specs ...specification.Specification) ([]*entity.AiConfiguration, error) {
	out := make([]*entity.AiConfiguration, 0, len(r.rows))
	for _, c := range r.rows {
		out = append(out, c)
	}
	return out, nil
}

func (r *memConfigRepo) FindConfigurationByKey(ctx context.Context, key string) (*entity.AiConfiguration, error) {
	c, ok := r.rows[key]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memConfigRepo) UpdateConfiguration(ctx context.Context, c *entity.AiConfiguration) error {
	r.rows[c.Key] = c
	return nil
}

type configUow struct {
	unitofwork.UnitOfWork
	repo *memConfigRepo
}

func (u configUow) AiConfigRepository() contract.IAiConfigRepository { return u.repo }

type configFactory struct{ repo *memConfigRepo }

func (f configFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return configUow{repo: f.repo}
}

type countingInvalidator struct {
	n    int
	snap settings.Snapshot
}

func (c *countingInvalidator) Snapshot(ctx context.Context) settings.Snapshot { return c.snap }

func (c *countingInvalidator) Invalidate() { c.n++ }

func newSettingsFixture() (*memConfigRepo, *countingInvalidator, ISettingsService) {
	repo := &memConfigRepo{rows: map[string]*entity.AiConfiguration{
		entity.AiConfigKeyRAGSimilarityThreshold: {Key: entity.AiConfigKeyRAGSimilarityThreshold, Value: "0.7", ValueType: entity.AiConfigValueTypeNumber, Category: entity.AiConfigCategoryRAG},
		entity.AiConfigKeyFeedbackEnabled:        {Key: entity.AiConfigKeyFeedbackEnabled, Value: "false", ValueType: entity.AiConfigValueTypeBoolean, Category: entity.AiConfigCategoryFeature},
		entity.AiConfigKeyChunkSize:              {Key: entity.AiConfigKeyChunkSize, Value: "1000", ValueType: entity.AiConfigValueTypeNumber, Category: entity.AiConfigCategoryChunking},
	}}
	inv := &countingInvalidator{snap: settings.Defaults()}
	return repo, inv, NewSettingsService(configFactory{repo: repo}, inv, logger.NewNopLogger())
}

func TestSettingsService_ListSorted(t *testing.T) {
	_, _, svc := newSettingsFixture()

	res, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, entity.AiConfigKeyChunkSize, res[0].Key)
	assert.Equal(t, entity.AiConfigKeyFeedbackEnabled, res[1].Key)
	assert.Equal(t, entity.AiConfigKeyRAGSimilarityThreshold, res[2].Key)
}

func TestSettingsService_Update(t *testing.T) {
	repo, inv, svc := newSettingsFixture()

	res, err := svc.Update(context.Background(), entity.AiConfigKeyRAGSimilarityThreshold, dto.UpdateAiConfigurationRequest{Value: " 0.8 "})
	require.NoError(t, err)
	assert.Equal(t, "0.8", res.Value)
	assert.Equal(t, "0.8", repo.rows[entity.AiConfigKeyRAGSimilarityThreshold].Value)
	assert.Equal(t, 1, inv.n)
}

func TestSettingsService_UpdateRejects(t *testing.T) {
	repo, inv, svc := newSettingsFixture()
	ctx := context.Background()

	_, err := svc.Update(ctx, "missing_key", dto.UpdateAiConfigurationRequest{Value: "1"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Update(ctx, entity.AiConfigKeyRAGSimilarityThreshold, dto.UpdateAiConfigurationRequest{Value: "high"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Update(ctx, entity.AiConfigKeyFeedbackEnabled, dto.UpdateAiConfigurationRequest{Value: "maybe"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Equal(t, "0.7", repo.rows[entity.AiConfigKeyRAGSimilarityThreshold].Value)
	assert.Equal(t, 0, inv.n)
}

func TestSettingsService_UpdateRejectsUnusableChunking(t *testing.T) {
	repo, inv, svc := newSettingsFixture()
	repo.rows[entity.AiConfigKeyChunkOverlap] = &entity.AiConfiguration{Key: entity.AiConfigKeyChunkOverlap, Value: "200", ValueType: entity.AiConfigValueTypeNumber, Category: entity.AiConfigCategoryChunking}
	ctx := context.Background()

	// effective overlap is 200, so a chunk size of 200 leaves no progress
	_, err := svc.Update(ctx, entity.AiConfigKeyChunkSize, dto.UpdateAiConfigurationRequest{Value: "200"})
	assert.ErrorIs(t, err, apperror.ErrInvalidChunkConfig)

	_, err = svc.Update(ctx, entity.AiConfigKeyChunkOverlap, dto.UpdateAiConfigurationRequest{Value: "1000"})
	assert.ErrorIs(t, err, apperror.ErrInvalidChunkConfig)

	_, err = svc.Update(ctx, entity.AiConfigKeyChunkSize, dto.UpdateAiConfigurationRequest{Value: "512.5"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Equal(t, "1000", repo.rows[entity.AiConfigKeyChunkSize].Value)
	assert.Equal(t, "200", repo.rows[entity.AiConfigKeyChunkOverlap].Value)
	assert.Equal(t, 0, inv.n)

	inv.snap.Chunking = chunker.Config{ChunkSize: 1000, Overlap: 200, MinChunkSize: 100}
	res, err := svc.Update(ctx, entity.AiConfigKeyChunkOverlap, dto.UpdateAiConfigurationRequest{Value: "50"})
	require.NoError(t, err)
	assert.Equal(t, "50", res.Value)
	assert.Equal(t, 1, inv.n)
}
