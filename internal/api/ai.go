package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/murmurchat/murmur/internal/logger"
)

var aiLog = logger.New("api.ai")

// ReplyGenerator produces a completion for a prompt. Satisfied by the
// Gemini client.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, prompt string) (string, error)
}

// AIHandler proxies prompts to the generative-AI provider.
type AIHandler struct {
	Generator ReplyGenerator
}

// NewAIHandler creates a new AI handler
func NewAIHandler(generator ReplyGenerator) *AIHandler {
	return &AIHandler{Generator: generator}
}

// AIMessageRequest is the body of POST /ai-message.
type AIMessageRequest struct {
	Message string `json:"message"`
}

// Reply forwards the prompt upstream and relays the completion text.
// Upstream error detail is logged, never sent to the caller.
func (h *AIHandler) Reply(c *gin.Context) {
	var req AIMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Message is required"})
		return
	}

	response, err := h.Generator.GenerateReply(c.Request.Context(), req.Message)
	if err != nil {
		aiLog.Error("Upstream generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": response})
}
