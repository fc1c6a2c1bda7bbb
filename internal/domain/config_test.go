package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 5050, config.Server.Port)
	assert.Equal(t, 10*time.Second, config.Fingerprint.HeadTimeout)
	assert.Equal(t, 20*time.Second, config.Fingerprint.SampleTimeout)
	assert.Equal(t, 10*time.Second, config.Client.RequestTimeout)
	assert.Equal(t, "http://127.0.0.1:5050", config.Client.ServerURL)
	assert.True(t, config.Client.AutoStartServer)
	assert.False(t, config.Notification.Enabled)
	assert.True(t, config.Telemetry.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}
