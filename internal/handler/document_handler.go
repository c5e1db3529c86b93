package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/legalqa/internal/pkg/errors"
	"github.com/xxxsen/legalqa/internal/pkg/response"
	"github.com/xxxsen/legalqa/internal/service"
	"github.com/xxxsen/legalqa/internal/session"
)

const (
	MsgUploaded         = "File uploaded and processed successfully."
	MsgQueryProcessed   = "Query processed successfully."
	MsgDocumentRemoved  = "Document removed."
	multipartHeadroom   = 1 << 20
	uploadFormFieldName = "file"
	queryFormFieldName  = "query"
)

type DocumentService interface {
	Ingest(ctx context.Context, req service.IngestRequest) (*service.IngestResult, error)
	Answer(ctx context.Context, sess session.Session, question string) (*service.QueryResult, error)
	Describe(ctx context.Context, sess session.Session) (*service.DocumentInfo, error)
	Forget(ctx context.Context, sess session.Session) (int64, error)
}

type DocumentHandler struct {
	documents     DocumentService
	sessions      session.Store
	userID        string
	maxUploadSize int64
}

func NewDocumentHandler(documents DocumentService, sessions session.Store, userID string, maxUploadSize int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, sessions: sessions, userID: userID, maxUploadSize: maxUploadSize}
}

type uploadResponse struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	Summary    string `json:"summary"`
}

type queryResponse struct {
	Message  string `json:"message"`
	Response string `json:"response,omitempty"`
	Context  string `json:"context,omitempty"`
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartHeadroom)
	}
	file, err := c.FormFile(uploadFormFieldName)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(c, appErr.Wrap(appErr.ErrInvalid, h.tooLargeDetail()))
			return
		}
		handleError(c, appErr.Wrap(appErr.ErrInvalid, "File is required."))
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		handleError(c, appErr.Wrap(appErr.ErrInvalid, h.tooLargeDetail()))
		return
	}
	opened, err := file.Open()
	if err != nil {
		handleError(c, appErr.Wrap(appErr.ErrInvalid, "Failed to read file."))
		return
	}
	defer opened.Close()

	previous := h.sessions.Load(c)
	req := service.IngestRequest{
		Filename: file.Filename,
		Content:  opened,
		UserID:   h.userID,
	}
	if previous.UserID == h.userID {
		req.PreviousDocumentID = previous.DocumentID
	}
	res, err := h.documents.Ingest(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	if err := h.sessions.Save(c, session.Session{UserID: h.userID, DocumentID: res.DocumentID}); err != nil {
		handleError(c, err)
		return
	}
	logutil.GetLogger(c.Request.Context()).Info("document uploaded",
		zap.String("document_id", res.DocumentID),
		zap.Int("chunks", res.ChunkCount),
	)
	response.Success(c, uploadResponse{
		Message:    MsgUploaded,
		DocumentID: res.DocumentID,
		Summary:    res.Summary,
	})
}

func (h *DocumentHandler) tooLargeDetail() string {
	return "File too large (max " + formatUploadLimit(h.maxUploadSize) + ")."
}

func (h *DocumentHandler) Query(c *gin.Context) {
	res, err := h.documents.Answer(c.Request.Context(), h.sessions.Load(c), c.PostForm(queryFormFieldName))
	if err != nil {
		handleError(c, err)
		return
	}
	if !res.Found {
		response.Success(c, queryResponse{Message: service.MsgNoRelevantChunks})
		return
	}
	response.Success(c, queryResponse{
		Message:  MsgQueryProcessed,
		Response: res.Response,
		Context:  res.Context,
	})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	info, err := h.documents.Describe(c.Request.Context(), h.sessions.Load(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, info)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	deleted, err := h.documents.Forget(c.Request.Context(), h.sessions.Load(c))
	if err != nil {
		handleError(c, err)
		return
	}
	h.sessions.Clear(c)
	response.Success(c, gin.H{"message": MsgDocumentRemoved, "deleted": deleted})
}
