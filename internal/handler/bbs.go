// Package handler implements the local API's gin handlers.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/bbs"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/logger"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/metrics"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/poster"
)

// Poster is the subset of *poster.Service the handlers need.
type Poster interface {
	Classify(raw string) (bbs.Classification, error)
	Resolve(ctx context.Context, raw string) (bbs.Target, error)
	Post(ctx context.Context, req poster.Request) (poster.Result, error)
}

// PostDefaults fill fields a post request leaves out.
type PostDefaults struct {
	Name string
	Sage bool
}

// BBSHandler serves classification, resolution and posting.
type BBSHandler struct {
	svc      Poster
	defaults PostDefaults
}

// NewBBSHandler creates a BBSHandler.
func NewBBSHandler(svc Poster, defaults PostDefaults) *BBSHandler {
	return &BBSHandler{svc: svc, defaults: defaults}
}

type urlRequest struct {
	URL string `binding:"required" json:"url"`
}

// postRequest uses pointers so an omitted field can take the default
// while an explicit "" or false is kept.
type postRequest struct {
	URL     string  `binding:"required" json:"url"`
	Message string  `json:"message"`
	Name    *string `json:"name"`
	Sage    *bool   `json:"sage"`
}

// ClassificationResponse is the JSON form of bbs.Classification.
type ClassificationResponse struct {
	URL         string `json:"url"`
	Kind        string `json:"kind"`
	Engine      string `json:"engine"`
	IsThread    bool   `json:"is_thread"`
	Board       string `json:"board,omitempty"`
	Dir         string `json:"dir,omitempty"`
	BoardNumber uint64 `json:"board_number,omitempty"`
	Key         uint64 `json:"key,omitempty"`
}

// TargetResponse is the JSON form of bbs.Target.
type TargetResponse struct {
	ThreadURL string `json:"thread_url"`
	Charset   string `json:"charset"`
	Title     string `json:"title"`
}

// PostResponse is the JSON form of poster.Result.
type PostResponse struct {
	AttemptID string `json:"attempt_id"`
	ThreadURL string `json:"thread_url"`
	Engine    string `json:"engine"`
	Charset   string `json:"charset"`
	Title     string `json:"title"`
}

// Classify handles POST /api/v1/classify.
func (h *BBSHandler) Classify(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	cl, err := h.svc.Classify(req.URL)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, ClassificationResponse{
		URL:         cl.URL.String(),
		Kind:        cl.Kind.String(),
		Engine:      string(cl.Kind.Engine()),
		IsThread:    cl.Kind.IsThread(),
		Board:       cl.Board,
		Dir:         cl.Dir,
		BoardNumber: cl.BoardNumber,
		Key:         cl.Key,
	})
}

// Resolve handles POST /api/v1/resolve.
func (h *BBSHandler) Resolve(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	target, err := h.svc.Resolve(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, TargetResponse{
		ThreadURL: target.URL.String(),
		Charset:   target.Charset,
		Title:     target.Title,
	})
}

// Post handles POST /api/v1/posts. Failed responses echo the message back
// so the client can keep its draft.
func (h *BBSHandler) Post(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	preq := poster.Request{
		URL:     req.URL,
		Message: req.Message,
		Name:    h.defaults.Name,
		Sage:    h.defaults.Sage,
	}
	if req.Name != nil {
		preq.Name = *req.Name
	}
	if req.Sage != nil {
		preq.Sage = *req.Sage
	}

	res, err := h.svc.Post(c.Request.Context(), preq)
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("Post request failed",
			logger.String("attempt_id", res.AttemptID),
			logger.Error(err),
		)
		respondError(c, err, gin.H{
			"attempt_id": res.AttemptID,
			"thread_url": res.ThreadURL,
			"message":    req.Message,
		})
		return
	}

	c.JSON(http.StatusCreated, PostResponse{
		AttemptID: res.AttemptID,
		ThreadURL: res.ThreadURL,
		Engine:    string(res.Engine),
		Charset:   res.Charset,
		Title:     res.Title,
	})
}

func respondBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "invalid request body",
		"code":  metrics.OutcomeInvalid,
	})
}

// respondError writes err with a status derived from its kind. extra is
// merged into the body.
func respondError(c *gin.Context, err error, extra gin.H) {
	outcome := poster.Outcome(err)
	body := gin.H{
		"error": err.Error(),
		"code":  outcome,
	}
	for k, v := range extra {
		body[k] = v
	}
	_ = c.Error(err)
	c.JSON(StatusFor(outcome), body)
}

// StatusFor maps a poster.Outcome label to an HTTP status.
func StatusFor(outcome string) int {
	switch outcome {
	case metrics.OutcomeSuccess:
		return http.StatusOK
	case metrics.OutcomeInvalid, metrics.OutcomeUnsupported:
		return http.StatusBadRequest
	case metrics.OutcomeEncoding:
		return http.StatusUnprocessableEntity
	case metrics.OutcomeDiscovery, metrics.OutcomeFetch:
		return http.StatusBadGateway
	case metrics.OutcomeCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
