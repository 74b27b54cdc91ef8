// Package ocr extracts structured receipt data from an image through an
// OpenAI-style chat completions gateway. The extraction is advisory: callers
// surface failures to the user but never fail the surrounding flow on them.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrRateLimited     = errors.New("ocr gateway rate limited")
	ErrPaymentRequired = errors.New("ocr gateway requires payment")
)

const receiptPrompt = `Extract the receipt in this image as JSON with this exact shape:
{"items":[{"name":"...","quantity":1,"price":0.00}],"total":0.00,"date":"YYYY-MM-DD","shop":"..."}
Prices are numbers, not strings. Respond with the JSON only.`

type Client struct {
	gatewayURL string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(gatewayURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract sends the receipt image to the gateway and normalizes whatever
// comes back. The raw model output is always preserved in Result.RawText.
func (c *Client) Extract(ctx context.Context, imageDataURL string) (Result, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: receiptPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: imageDataURL}},
			},
		}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call ocr gateway: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return Result{}, ErrRateLimited
	case http.StatusPaymentRequired:
		return Result{}, ErrPaymentRequired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("ocr gateway returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read ocr response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode ocr response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, errors.New("ocr gateway returned no choices")
	}

	return Normalize(parsed.Choices[0].Message.Content), nil
}
