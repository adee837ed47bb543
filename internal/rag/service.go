package rag

import (
	"context"
	"strings"
)

// Service answers questions: retrieval first, then the grounded composer.
type Service struct {
	retriever *Retriever
	composer  *Composer
}

func NewService(retriever *Retriever, composer *Composer) *Service {
	return &Service{
		retriever: retriever,
		composer:  composer,
	}
}

func (s *Service) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	q := strings.TrimSpace(req.Question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}

	passages, err := s.retriever.Retrieve(ctx, q, req.TopK)
	if err != nil {
		return nil, err
	}

	answer, err := s.composer.AnswerIn(ctx, req.Lang, q, passages)
	if err != nil {
		return nil, err
	}

	return &AskResponse{
		Answer:   answer,
		Passages: len(passages),
	}, nil
}
