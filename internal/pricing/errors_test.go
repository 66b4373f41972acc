package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(&TimeoutError{URL: "https://x", Budget: "12s"}))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(fmt.Errorf("fetch: %w", &TimeoutError{})))
	assert.False(t, IsTimeout(&StatusError{Code: 500}))
	assert.False(t, IsTimeout(errors.New("boom")))
	assert.False(t, IsTimeout(nil))
}

func TestIsTimeoutLike(t *testing.T) {
	assert.True(t, IsTimeoutLike(&TimeoutError{}))
	assert.True(t, IsTimeoutLike(&StatusError{Code: 429}))
	assert.True(t, IsTimeoutLike(&StatusError{Code: 503}))
	assert.False(t, IsTimeoutLike(&StatusError{Code: 500}))
	assert.False(t, IsTimeoutLike(&StatusError{Code: 404}))
	assert.False(t, IsTimeoutLike(nil))
}
