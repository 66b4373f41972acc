package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher(t *testing.T) {
	p := New()

	id, err := p.Publish(context.Background(), "price-runs", map[string]string{"run_id": "run-123"})
	require.NoError(t, err)
	assert.Equal(t, "memory-1", id)

	messages := p.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "price-runs", messages[0].Topic)
}
