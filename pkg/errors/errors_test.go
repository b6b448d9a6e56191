package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorType
	}{
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{404, ErrorTypeClientError},
		{403, ErrorTypeClientError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := FromStatus(tt.status)
			assert.Equal(t, tt.expected, err.Type)
			assert.Equal(t, tt.status, err.Code)
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Success, Classify(nil).Kind)
	assert.Equal(t, Transient, Classify(New(ErrorTypeNetwork, 0, "reset")).Kind)
	assert.Equal(t, Transient, Classify(FromStatus(404)).Kind)
	assert.Equal(t, Transient, Classify(fmt.Errorf("page 3: %w", FromStatus(502))).Kind)
	assert.Equal(t, Transient, Classify(New(ErrorTypeParsing, 200, "bad json")).Kind)
	assert.Equal(t, Permanent, Classify(New(ErrorTypeConfig, 0, "no species")).Kind)
	assert.Equal(t, Permanent, Classify(context.Canceled).Kind)
	assert.Equal(t, Permanent, Classify(stderrors.New("mystery")).Kind)
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(ErrorTypeIO, 0, "write image", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, ErrorTypeIO, TypeOf(fmt.Errorf("outer: %w", err)))
}
