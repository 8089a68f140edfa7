package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/pkg/rag/answer"
	"ai-qa-rag-be/pkg/rag/settings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	got *dto.AskRequest
	res *dto.AskResponse
	err error
}

func (f *fakeAsker) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	f.got = req
	return f.res, f.err
}

type fakeDocuments struct {
	got *dto.CreateDocumentRequest
	id  uuid.UUID
}

func (f *fakeDocuments) Create(ctx context.Context, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	f.got = req
	return &dto.CreateDocumentResponse{Id: f.id, Status: entity.DocumentStatusPending}, nil
}

type fakeIngester struct {
	got    uuid.UUID
	chunks int
	err    error
}

func (f *fakeIngester) IngestDocument(ctx context.Context, documentId uuid.UUID) (int, error) {
	f.got = documentId
	return f.chunks, f.err
}

type fakeSettings struct {
	rows    map[string]*entity.AiConfiguration
	updates int
}

func (f *fakeSettings) FindConfigurationByKey(ctx context.Context, key string) (*entity.AiConfiguration, error) {
	return f.rows[key], nil
}

func (f *fakeSettings) UpdateConfiguration(ctx context.Context, c *entity.AiConfiguration) error {
	f.updates++
	f.rows[c.Key] = c
	return nil
}

func (f *fakeSettings) CreateConfiguration(ctx context.Context, c *entity.AiConfiguration) error {
	f.rows[c.Key] = c
	return nil
}

func run(t *testing.T, s Services, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	Configure(s)

	askDebug, askJSON, askSession, askTags = false, false, "", nil
	ingestTitle, ingestCategory, ingestTags = "", "", nil
	seedForce = false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		Configure(Services{})
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := run(t, Services{Asker: &fakeAsker{}}, "ask")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_PrintsAnswer(t *testing.T) {
	score := 0.91
	asker := &fakeAsker{res: &dto.AskResponse{
		Answer: "Reset it from the login page.",
		Title:  "Password reset",
		Source: answer.Source{Type: answer.SourceRAG, Label: "AI + Documents", Confidence: "91%"},
		References: []answer.Reference{
			{Title: "Account guide", Section: "Passwords", Score: &score},
		},
	}}

	out, err := run(t, Services{Asker: asker}, "ask", "how do I reset my password?", "--session", "s1", "--tag", "account")
	require.NoError(t, err)

	assert.Equal(t, "how do I reset my password?", asker.got.Question)
	assert.Equal(t, "s1", asker.got.SessionId)
	assert.Equal(t, []string{"account"}, asker.got.Tags)

	assert.Contains(t, out, "Password reset")
	assert.Contains(t, out, "[AI + Documents] confidence 91%")
	assert.Contains(t, out, "[1] Account guide > Passwords (0.91)")
}

func TestAskCmd_JSON(t *testing.T) {
	asker := &fakeAsker{res: &dto.AskResponse{Answer: "a", Source: answer.Source{Type: answer.SourceLLM}}}

	out, err := run(t, Services{Asker: asker}, "ask", "q", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"answer": "a"`)
	assert.Contains(t, out, `"type": "llm"`)
}

func TestAskCmd_Error(t *testing.T) {
	_, err := run(t, Services{Asker: &fakeAsker{err: errors.New("boom")}}, "ask", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ask failed")
}

func TestIngestCmd_ById(t *testing.T) {
	id := uuid.New()
	ing := &fakeIngester{chunks: 7}

	out, err := run(t, Services{Ingester: ing}, "ingest", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, ing.got)
	assert.Contains(t, out, "7 chunks")
}

func TestIngestCmd_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refund-policy.md")
	require.NoError(t, os.WriteFile(path, []byte("# Refunds\nWithin 30 days."), 0o600))

	id := uuid.New()
	docs := &fakeDocuments{id: id}
	ing := &fakeIngester{chunks: 1}

	_, err := run(t, Services{Documents: docs, Ingester: ing}, "ingest", path, "--category", "billing")
	require.NoError(t, err)

	require.NotNil(t, docs.got)
	assert.Equal(t, "refund-policy", docs.got.Title)
	assert.Equal(t, "billing", docs.got.Category)
	assert.Equal(t, id, ing.got)
}

func TestIngestCmd_MissingFile(t *testing.T) {
	_, err := run(t, Services{Documents: &fakeDocuments{}, Ingester: &fakeIngester{}}, "ingest", "/nope/missing.md")
	require.Error(t, err)
}

func TestSeedSettingsCmd(t *testing.T) {
	defaults := settings.Defaults()
	entries := settings.SeedEntries(defaults)
	require.NotEmpty(t, entries)

	existingKey := entries[0].Key
	store := &fakeSettings{rows: map[string]*entity.AiConfiguration{
		existingKey: {Key: existingKey, Value: "custom"},
	}}

	out, err := run(t, Services{Settings: store, SettingsDefaults: defaults}, "seed-settings")
	require.NoError(t, err)
	assert.Len(t, store.rows, len(entries))
	assert.Equal(t, "custom", store.rows[existingKey].Value)
	assert.Contains(t, out, "1 kept")

	_, err = run(t, Services{Settings: store, SettingsDefaults: defaults}, "seed-settings", "--force")
	require.NoError(t, err)
	assert.Equal(t, len(entries), store.updates)
	assert.Equal(t, entries[0].Value, store.rows[existingKey].Value)
}
