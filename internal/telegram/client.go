package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/models"
)

const apiBaseURL = "https://api.telegram.org"

// Client calls the Telegram Bot API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Bot API client for token.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: apiBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

type fileResult struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	FilePath string `json:"file_path"`
}

// SendMessage sends text to chatID, optionally with inline buttons.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	_, err := c.call(ctx, "sendMessage", payload)
	return err
}

// SendAudio sends the audio at audioURL to chatID with caption. Telegram
// fetches the URL itself.
func (c *Client) SendAudio(ctx context.Context, chatID int64, audioURL, caption string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"audio":   audioURL,
	}
	if caption != "" {
		payload["caption"] = truncateCaption(caption)
	}
	_, err := c.call(ctx, "sendAudio", payload)
	return err
}

// AnswerCallbackQuery acknowledges a button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	_, err := c.call(ctx, "answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackID,
	})
	return err
}

// Download fetches the audio behind a voice handle.
func (c *Client) Download(ctx context.Context, voice models.VoiceHandle) ([]byte, error) {
	raw, err := c.call(ctx, "getFile", map[string]interface{}{"file_id": voice.FileID})
	if err != nil {
		return nil, err
	}

	var file fileResult
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse getFile result: %w", err)
	}
	if file.FilePath == "" {
		return nil, errors.New("telegram returned no file path")
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram file download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram file download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read telegram file: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("telegram file is empty")
	}
	return data, nil
}

func (c *Client) call(ctx context.Context, method string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Transient(fmt.Errorf("telegram %s request failed: %w", method, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read telegram %s response: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse telegram %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !apiResp.OK {
		err := fmt.Errorf("telegram %s error %d: %s", method, apiResp.ErrorCode, apiResp.Description)
		if apiResp.ErrorCode == http.StatusTooManyRequests || apiResp.ErrorCode >= 500 {
			return nil, apperr.Transient(err)
		}
		return nil, err
	}
	return apiResp.Result, nil
}

// Telegram rejects captions over 1024 characters.
const maxCaptionRunes = 1024

func truncateCaption(s string) string {
	r := []rune(s)
	if len(r) <= maxCaptionRunes {
		return s
	}
	return string(r[:maxCaptionRunes-3]) + "..."
}
