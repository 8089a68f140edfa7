package memory

import (
	"fmt"
	"testing"
	"time"

	"ai-qa-rag-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestConversationRepository_AppendAndRecent(t *testing.T) {
	repo := NewConversationRepository(time.Minute)

	assert.Nil(t, repo.Recent("s1"))

	repo.Append("s1", llm.Message{Role: "user", Content: "hi"}, llm.Message{Role: "assistant", Content: "hello"})
	repo.Append("s1", llm.Message{Role: "user", Content: "again"})

	got := repo.Recent("s1")
	assert.Len(t, got, 3)
	assert.Equal(t, "again", got[2].Content)

	got[0].Content = "mutated"
	assert.Equal(t, "hi", repo.Recent("s1")[0].Content)

	repo.Delete("s1")
	assert.Nil(t, repo.Recent("s1"))
}

func TestConversationRepository_CapsTurns(t *testing.T) {
	repo := NewConversationRepository(time.Minute)
	for i := 0; i < maxStoredTurns+5; i++ {
		repo.Append("s", llm.Message{Role: "user", Content: fmt.Sprintf("q%d", i)})
	}

	got := repo.Recent("s")
	assert.Len(t, got, maxStoredTurns)
	assert.Equal(t, "q5", got[0].Content)
}

func TestConversationRepository_EmptySession(t *testing.T) {
	repo := NewConversationRepository(0)
	repo.Append("", llm.Message{Role: "user", Content: "x"})
	assert.Nil(t, repo.Recent(""))
}
