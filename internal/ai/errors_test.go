package ai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	openai "github.com/sashabaranov/go-openai"
)

func TestClassifyOpenAIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, true},
		{"server error", &openai.APIError{HTTPStatusCode: 503}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, false},
		{"wrapped", fmt.Errorf("call: %w", &openai.APIError{HTTPStatusCode: 500}), true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retry, _ := classifyOpenAIError(tt.err)
			if retry != tt.retry {
				t.Errorf("classifyOpenAIError() retry = %v, want %v", retry, tt.retry)
			}
		})
	}
}

func TestClassifyAWSError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"throttled", &smithy.GenericAPIError{Code: "ThrottlingException", Fault: smithy.FaultClient}, true},
		{"server fault", &smithy.GenericAPIError{Code: "InternalError", Fault: smithy.FaultServer}, true},
		{"bad request", &smithy.GenericAPIError{Code: "BadRequestException", Fault: smithy.FaultClient}, false},
		{"wrapped", fmt.Errorf("get job: %w", &smithy.GenericAPIError{Code: "LimitExceededException"}), true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retry, _ := classifyAWSError(tt.err)
			if retry != tt.retry {
				t.Errorf("classifyAWSError() retry = %v, want %v", retry, tt.retry)
			}
		})
	}
}
