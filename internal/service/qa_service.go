package service

import (
	"context"

	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/pkg/llm"
	"ai-qa-rag-be/pkg/rag/answer"
)

type IQAService interface {
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
}

type AnswerSelector interface {
	Select(ctx context.Context, q answer.Question) (*answer.Answer, error)
}

// ConversationStore holds server-side turns for callers that send a session id without history.
type ConversationStore interface {
	Recent(sessionId string) []llm.Message
	Append(sessionId string, turns ...llm.Message)
}

type qaService struct {
	selector AnswerSelector
	history  ConversationStore
}

// NewQAService builds the ask service. history may be nil.
func NewQAService(selector AnswerSelector, history ConversationStore) IQAService {
	return &qaService{selector: selector, history: history}
}

func (s *qaService) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	recent := make([]llm.Message, 0, len(req.RecentMessages))
	for _, m := range req.RecentMessages {
		recent = append(recent, llm.Message{Role: m.Role, Content: m.Content})
	}
	if len(recent) == 0 && s.history != nil {
		recent = s.history.Recent(req.SessionId)
	}

	res, err := s.selector.Select(ctx, answer.Question{
		Text:           req.Question,
		RecentMessages: recent,
		Debug:          req.Debug,
		UserId:         req.UserId,
		SessionId:      req.SessionId,
		Category:       req.Category,
		Tags:           req.Tags,
	})
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		s.history.Append(req.SessionId,
			llm.Message{Role: "user", Content: req.Question},
			llm.Message{Role: "assistant", Content: res.Answer},
		)
	}

	return &dto.AskResponse{
		Answer:     res.Answer,
		Title:      res.Title,
		Summary:    res.Summary,
		References: res.References,
		Source:     res.Source,
		DebugInfo:  res.Debug,
	}, nil
}
