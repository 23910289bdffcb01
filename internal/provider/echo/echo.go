package echo

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Paths served by the stub upstream.
const (
	ChatCompletionsPath   = "/openai/v1/chat/completions"
	AnthropicMessagesPath = "/v1/messages"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

// Handler returns an upstream that responds by echoing the last user
// message, in either the chat completions or the messages wire shape.
// Requests without credentials are refused the way the real vendors do.
// The gin mode is left to the caller.
func Handler() http.Handler {
	r := gin.New()
	r.POST(ChatCompletionsPath, chatCompletions)
	r.POST(AnthropicMessagesPath, messages)
	return r
}

func chatCompletions(c *gin.Context) {
	if c.GetHeader("Authorization") == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid API Key"}})
		return
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid request"}})
		return
	}
	text := reply(req.Messages)
	c.JSON(http.StatusOK, gin.H{
		"model": req.Model,
		"choices": []gin.H{{
			"index":         0,
			"message":       gin.H{"role": "assistant", "content": text},
			"finish_reason": "stop",
		}},
		"usage": gin.H{
			"prompt_tokens":     len(req.Messages),
			"completion_tokens": 1,
			"total_tokens":      len(req.Messages) + 1,
		},
	})
}

func messages(c *gin.Context) {
	if c.GetHeader("x-api-key") == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"type": "error", "error": gin.H{"type": "authentication_error"}})
		return
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"type": "error", "error": gin.H{"type": "invalid_request_error"}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"type":    "message",
		"role":    "assistant",
		"model":   req.Model,
		"content": []gin.H{{"type": "text", "text": reply(req.Messages)}},
		"usage":   gin.H{"input_tokens": len(req.Messages), "output_tokens": 1},
	})
}

func reply(msgs []message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return "Echo: " + msgs[i].Content
		}
	}
	return "Echo:"
}
