package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/legalqa/internal/pkg/errors"
	"github.com/xxxsen/legalqa/internal/session"
)

type QueryResult struct {
	Found    bool   `json:"found"`
	Response string `json:"response"`
	Context  string `json:"context"`
}

// Answer runs retrieval-augmented generation over the session's document.
// An empty retrieval is a normal outcome and reported with Found=false.
func (s *DocumentService) Answer(ctx context.Context, sess session.Session, question string) (*QueryResult, error) {
	if !sess.Valid() {
		return nil, appErr.Wrap(appErr.ErrInvalidSession, MsgSessionInvalid)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, appErr.Wrap(appErr.ErrInvalid, MsgQueryRequired)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", sess.DocumentID), zap.String("user_id", sess.UserID))
	found, err := s.retrieve(ctx, sess.UserID, sess.DocumentID, question, s.cfg.QueryTopK)
	if err != nil {
		logger.Error("retrieve chunks failed", zap.Error(err))
		return nil, err
	}
	if len(found) == 0 {
		logger.Info("no chunks matched query")
		return &QueryResult{Found: false}, nil
	}
	contextText := joinChunkText(found)
	answer, err := s.assistant.Answer(ctx, contextText, question)
	if err != nil {
		logger.Error("answer generation failed", zap.Error(err))
		return nil, appErr.Wrap(appErr.ErrUpstream, MsgResponseFailed)
	}
	logger.Info("query answered", zap.Int("chunks", len(found)))
	return &QueryResult{Found: true, Response: answer, Context: contextText}, nil
}
