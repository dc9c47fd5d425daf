package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHTTPStatusError_Classification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{401, ErrSourceUnavailable},
		{403, ErrSourceUnavailable},
		{429, ErrRateLimited},
		{500, ErrUpstream},
		{404, ErrUpstream},
	}

	for _, tt := range tests {
		err := NewHTTPStatusError(tt.status, "")
		assert.True(t, Is(err, tt.want), "status %d", tt.status)
	}
}

func TestNewHTTPStatusError_TruncatesBody(t *testing.T) {
	body := make([]byte, 1000)
	for i := range body {
		body[i] = 'x'
	}

	err := NewHTTPStatusError(500, string(body))
	assert.Len(t, err.Body, 256)
	assert.Contains(t, err.Error(), "status 500")
}

func TestWrap_PreservesSentinel(t *testing.T) {
	err := Wrapf(ErrRateLimited, "twitter page %d", 2)
	assert.True(t, Is(err, ErrRateLimited))
	assert.Equal(t, "twitter page 2: rate limited", err.Error())
	assert.Nil(t, Wrap(nil, "noop"))
}

func TestMultiError(t *testing.T) {
	var m MultiError
	assert.Nil(t, m.ToError())

	m.Add(nil)
	m.Add(ErrSourceUnavailable)
	m.Add(ErrRateLimited)

	assert.True(t, m.HasErrors())
	assert.Contains(t, m.ToError().Error(), "multiple errors (2)")
}
