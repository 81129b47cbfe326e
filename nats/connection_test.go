package nats_test

import (
	"testing"
	"time"

	gnats "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"logur.dev/logur"

	"gitlab.com/silenteer-oss/fetch/nats"
)

func TestNewConnectionWithoutServer(t *testing.T) {
	conn, err := nats.NewConnection("nats://127.0.0.1:1", logur.NoopLogger{}, gnats.Timeout(200*time.Millisecond))
	assert.Nil(t, conn)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Error connecting to NATS")
}
