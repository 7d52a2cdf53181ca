package ai

import (
	"errors"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/aws/smithy-go"
	openai "github.com/sashabaranov/go-openai"
)

// classifyOpenAIError determines whether an OpenAI API error is retryable.
func classifyOpenAIError(err error) (shouldRetry bool, waitTime time.Duration) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return true, 2 * time.Second
		case 500, 502, 503:
			return true, 2 * time.Second
		default:
			return false, 0
		}
	}
	return false, 0
}

// classifyAnthropicError determines whether a Claude API error is retryable.
func classifyAnthropicError(err error) (shouldRetry bool, waitTime time.Duration) {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return true, 2 * time.Second
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return true, 2 * time.Second
		case http.StatusUnauthorized:
			return false, 0
		default:
			return false, 0
		}
	}
	return false, 0
}

// throttlingCodes are AWS error codes that clear up on their own.
var throttlingCodes = map[string]bool{
	"ThrottlingException":      true,
	"LimitExceededException":   true,
	"TooManyRequestsException": true,
	"ServiceUnavailable":       true,
	"InternalFailureException": true,
}

// classifyAWSError determines whether an AWS SDK error is retryable.
func classifyAWSError(err error) (shouldRetry bool, waitTime time.Duration) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if throttlingCodes[apiErr.ErrorCode()] {
			return true, time.Second
		}
		if apiErr.ErrorFault() == smithy.FaultServer {
			return true, time.Second
		}
		return false, 0
	}
	return false, 0
}
