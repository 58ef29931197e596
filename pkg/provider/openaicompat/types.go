package openaicompat

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Chat Completions wire types, limited to the fields this client uses.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatCompletionResponse struct {
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// mapHTTPError turns a non-2xx response into an error carrying the
// backend's message when one can be extracted.
func mapHTTPError(resp *http.Response) error {
	message := extractErrorMessage(resp.Body)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("backend error (HTTP %d): %s", resp.StatusCode, message)
}

func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var errResp chatErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil {
		return errResp.Error.Message
	}
	return ""
}
