package papers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"paper-backend/internal/shared/server/respond"
)

// maxUploadBytes bounds how much of an uploaded paper we read into memory.
const maxUploadBytes = 20 << 20

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
	rg.GET("/status/:id", h.status)
	rg.DELETE("/jobs/:id", h.deleteJob)
	rg.POST("/jobs/:id/chat", h.chat)
	rg.GET("/jobs/:id/chat", h.chatHistory)
	rg.GET("/jobs/:id/graph", h.graph)
}

func (h *Handler) analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "missing file upload", []map[string]string{
			{"field": "file", "issue": "required"},
		})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeValidation, "file too large", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unreadable file upload", nil)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unreadable file upload", nil)
		return
	}
	if len(content) > maxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeValidation, "file too large", nil)
		return
	}

	job, err := h.Svc.Submit(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		if errors.Is(err, ErrUnsupportedType) {
			respond.Error(c, http.StatusUnsupportedMediaType, ErrorCodeUnsupportedType, "only PDF files are supported", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to accept file", nil)
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"jobId":  job.ID,
		"status": job.Status,
	})
}

func (h *Handler) status(c *gin.Context) {
	job, err := h.Svc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderJobError(c, err)
		return
	}

	payload := gin.H{
		"jobId":    job.ID,
		"filename": job.Filename,
		"status":   job.Status,
	}
	switch job.Status {
	case StatusCompleted:
		payload["result"] = job.Result
	case StatusFailed:
		payload["error"] = job.Error
	}
	respond.OK(c, payload)
}

func (h *Handler) deleteJob(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.renderJobError(c, err)
		return
	}
	respond.OK(c, gin.H{"message": "Job deleted successfully"})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "missing chat message", []map[string]string{
			{"field": "message", "issue": "required"},
		})
		return
	}

	turn, err := h.Svc.Chat(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		h.renderJobError(c, err)
		return
	}

	respond.OK(c, gin.H{
		"jobId":    c.Param("id"),
		"response": turn.Response,
	})
}

func (h *Handler) chatHistory(c *gin.Context) {
	history, err := h.Svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderJobError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"jobId":       c.Param("id"),
		"chatHistory": history,
	})
}

func (h *Handler) graph(c *gin.Context) {
	graph, err := h.Svc.Graph(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderJobError(c, err)
		return
	}
	respond.OK(c, graph)
}

func (h *Handler) renderJobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "job not found", nil)
	case errors.Is(err, ErrInvalidState):
		respond.Error(c, http.StatusBadRequest, ErrorCodeInvalidState, "paper analysis is not completed yet", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "request failed", nil)
	}
}
