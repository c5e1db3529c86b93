package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/legalqa/internal/ai"
	"github.com/xxxsen/legalqa/internal/filestore"
	"github.com/xxxsen/legalqa/internal/model"
	"github.com/xxxsen/legalqa/internal/parser"
	appErr "github.com/xxxsen/legalqa/internal/pkg/errors"
	"github.com/xxxsen/legalqa/internal/session"
)

type DocumentServiceConfig struct {
	TempDir     string
	SummaryTopK int
	QueryTopK   int
}

type DocumentService struct {
	chunks    ChunkStore
	extractor PageExtractor
	splitter  TextSplitter
	assistant Assistant
	archive   filestore.Store
	cfg       DocumentServiceConfig
	now       func() time.Time
}

type Option func(*DocumentService)

// WithArchive keeps a copy of every accepted upload in store.
func WithArchive(store filestore.Store) Option {
	return func(s *DocumentService) {
		s.archive = store
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *DocumentService) {
		s.now = now
	}
}

func NewDocumentService(chunks ChunkStore, extractor PageExtractor, splitter TextSplitter, assistant Assistant, cfg DocumentServiceConfig, opts ...Option) *DocumentService {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.SummaryTopK <= 0 {
		cfg.SummaryTopK = 50
	}
	if cfg.QueryTopK <= 0 {
		cfg.QueryTopK = 20
	}
	s := &DocumentService{
		chunks:    chunks,
		extractor: extractor,
		splitter:  splitter,
		assistant: assistant,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type IngestRequest struct {
	Filename           string
	Content            io.Reader
	UserID             string
	PreviousDocumentID string
}

type IngestResult struct {
	DocumentID string `json:"document_id"`
	Summary    string `json:"summary"`
	ChunkCount int    `json:"chunk_count"`
}

// Ingest stores the chunks of an uploaded PDF and returns a summary of it.
// Nothing is left behind in the chunk table when summarization fails.
func (s *DocumentService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if !parser.IsPDF(req.Filename) {
		return nil, appErr.Wrap(appErr.ErrInvalid, MsgOnlyPDF)
	}
	if req.Content == nil || strings.TrimSpace(req.UserID) == "" {
		return nil, appErr.ErrInvalid
	}
	documentID := newDocumentID()
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", documentID), zap.String("user_id", req.UserID), zap.String("filename", req.Filename))

	pages, err := s.extract(ctx, documentID, req)
	if err != nil {
		logger.Error("extract pdf text failed", zap.Error(err))
		return nil, err
	}
	texts := s.splitter.SplitPages(pages)
	if len(texts) == 0 {
		logger.Warn("pdf produced no text chunks", zap.Int("pages", len(pages)))
		return nil, appErr.Wrap(appErr.ErrNotFound, MsgNoSummaryChunks)
	}
	if err := s.store(ctx, req.UserID, documentID, texts); err != nil {
		logger.Error("store chunks failed", zap.Error(err))
		return nil, err
	}
	logger.Info("document chunks stored", zap.Int("pages", len(pages)), zap.Int("chunks", len(texts)))

	summary, err := s.summarize(ctx, req.UserID, documentID)
	if err != nil {
		logger.Error("summarize document failed", zap.Error(err))
		if _, delErr := s.chunks.DeleteByDocument(context.WithoutCancel(ctx), req.UserID, documentID); delErr != nil {
			logger.Error("rollback document chunks failed", zap.Error(delErr))
		}
		return nil, err
	}
	if prev := req.PreviousDocumentID; prev != "" && prev != documentID {
		deleted, err := s.chunks.DeleteByDocument(ctx, req.UserID, prev)
		if err != nil {
			logger.Warn("remove superseded document failed", zap.String("previous_document_id", prev), zap.Error(err))
		} else {
			logger.Info("superseded document removed", zap.String("previous_document_id", prev), zap.Int64("chunks", deleted))
		}
	}
	return &IngestResult{DocumentID: documentID, Summary: summary, ChunkCount: len(texts)}, nil
}

// extract spools the upload to a temp file named after the document id and
// returns its page texts. The temp file never outlives the call.
func (s *DocumentService) extract(ctx context.Context, documentID string, req IngestRequest) ([]string, error) {
	tmp, err := os.CreateTemp(s.cfg.TempDir, documentID+"-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	size, err := io.Copy(tmp, req.Content)
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, filestore.ArchiveKey(documentID), tmp, size); err != nil {
			logutil.GetLogger(ctx).Warn("archive upload failed", zap.String("document_id", documentID), zap.String("archive", s.archive.Type()), zap.Error(err))
		}
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("flush temp file: %w", err)
	}
	pages, err := s.extractor.ExtractPages(tmp.Name())
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrInvalid, "Unable to read the PDF file.")
	}
	return pages, nil
}

func (s *DocumentService) store(ctx context.Context, userID, documentID string, texts []string) error {
	vectors, err := s.assistant.EmbedBatch(ctx, texts, ai.TaskRetrievalDocument)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", errors.Join(appErr.ErrUpstream, err))
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embed chunks: got %d vectors for %d texts: %w", len(vectors), len(texts), appErr.ErrUpstream)
	}
	ctime := s.now().UnixMilli()
	items := make([]*model.Chunk, 0, len(texts))
	for i, text := range texts {
		items = append(items, &model.Chunk{
			UserID:     userID,
			DocumentID: documentID,
			Text:       text,
			Embedding:  vectors[i],
			Ctime:      ctime,
		})
	}
	if err := s.chunks.InsertBatch(ctx, items); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

func (s *DocumentService) summarize(ctx context.Context, userID, documentID string) (string, error) {
	found, err := s.retrieve(ctx, userID, documentID, SummaryQuery, s.cfg.SummaryTopK)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", appErr.Wrap(appErr.ErrNotFound, MsgNoSummaryChunks)
	}
	summary, err := s.assistant.Summarize(ctx, joinChunkText(found))
	if err != nil {
		logutil.GetLogger(ctx).Error("summary generation failed", zap.String("document_id", documentID), zap.Error(err))
		return "", appErr.Wrap(appErr.ErrUpstream, MsgSummaryFailed)
	}
	return summary, nil
}

func (s *DocumentService) retrieve(ctx context.Context, userID, documentID, query string, limit int) ([]model.ScoredChunk, error) {
	vec, err := s.assistant.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", errors.Join(appErr.ErrUpstream, err))
	}
	found, err := s.chunks.Search(ctx, userID, documentID, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return found, nil
}

// joinChunkText concatenates chunk texts with single spaces, keeping the
// similarity order of the search.
func joinChunkText(chunks []model.ScoredChunk) string {
	texts := make([]string, 0, len(chunks))
	for _, item := range chunks {
		texts = append(texts, item.Text)
	}
	return strings.Join(texts, " ")
}

type DocumentInfo struct {
	DocumentID string `json:"document_id"`
	ChunkCount int64  `json:"chunk_count"`
	Ctime      int64  `json:"ctime"`
}

func (s *DocumentService) Describe(ctx context.Context, sess session.Session) (*DocumentInfo, error) {
	if !sess.Valid() {
		return nil, appErr.Wrap(appErr.ErrInvalidSession, MsgSessionInvalid)
	}
	stat, err := s.chunks.Stat(ctx, sess.UserID, sess.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if stat.ChunkCount == 0 {
		return nil, appErr.Wrap(appErr.ErrNotFound, "Document not found.")
	}
	return &DocumentInfo{DocumentID: stat.DocumentID, ChunkCount: stat.ChunkCount, Ctime: stat.Ctime}, nil
}

// Forget removes every chunk of the session's document and reports how many
// rows went away.
func (s *DocumentService) Forget(ctx context.Context, sess session.Session) (int64, error) {
	if !sess.Valid() {
		return 0, appErr.Wrap(appErr.ErrInvalidSession, MsgSessionInvalid)
	}
	deleted, err := s.chunks.DeleteByDocument(ctx, sess.UserID, sess.DocumentID)
	if err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}
	logutil.GetLogger(ctx).Info("document forgotten", zap.String("document_id", sess.DocumentID), zap.String("user_id", sess.UserID), zap.Int64("chunks", deleted))
	return deleted, nil
}

// PurgeExpired deletes up to batch documents whose newest chunk is older than maxAge.
func (s *DocumentService) PurgeExpired(ctx context.Context, maxAge time.Duration, batch int) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	if batch <= 0 {
		batch = 100
	}
	cutoff := s.now().Add(-maxAge).UnixMilli()
	expired, err := s.chunks.ListExpiredDocuments(ctx, cutoff, batch)
	if err != nil {
		return 0, fmt.Errorf("list expired documents: %w", err)
	}
	byUser := make(map[string][]string)
	for _, item := range expired {
		byUser[item.UserID] = append(byUser[item.UserID], item.DocumentID)
	}
	purged := 0
	for userID, ids := range byUser {
		if _, err := s.chunks.DeleteDocuments(ctx, userID, ids); err != nil {
			return purged, fmt.Errorf("delete expired documents: %w", err)
		}
		purged += len(ids)
	}
	return purged, nil
}
