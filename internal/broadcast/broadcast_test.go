package broadcast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopPublisherAcceptsEverything(t *testing.T) {
	publisher := Noop()
	assert.NoError(t, publisher.Publish(context.Background(), AlertEvent{Reference: "ref"}))
	assert.NoError(t, publisher.Close())
}

func TestNewRedisPublisherRequiresAddress(t *testing.T) {
	_, err := NewRedisPublisher(nil, "  ", "")
	assert.Error(t, err)
}

func TestNewRedisPublisherFailsWhenUnreachable(t *testing.T) {
	_, err := NewRedisPublisher(nil, "127.0.0.1:1", "")
	assert.Error(t, err)
}

func TestSubscribeRequiresCallback(t *testing.T) {
	assert.Error(t, Subscribe(context.Background(), nil, "127.0.0.1:1", "", nil))
}
