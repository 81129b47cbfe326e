package fetch_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/silenteer-oss/fetch"
)

func TestBodyConfigValidate(t *testing.T) {
	assert.NoError(t, fetch.BodyConfig{}.Validate())
	assert.NoError(t, fetch.BodyConfig{MaxSize: 1 << 20, Timeout: time.Second}.Validate())
	assert.Error(t, fetch.BodyConfig{MaxSize: -1}.Validate())
	assert.Error(t, fetch.BodyConfig{Timeout: -time.Second}.Validate())
}

func TestDefaultBodyConfig(t *testing.T) {
	config := fetch.GetBodyConfig()
	assert.Equal(t, int64(0), config.MaxSize)
	assert.Equal(t, time.Duration(0), config.Timeout)
	assert.Same(t, config, fetch.GetBodyConfig())
}

func TestReloadBodyConfig(t *testing.T) {
	defer func() {
		viper.Set(fetch.BodyMaxSize, 0)
		fetch.ReloadBodyConfig()
	}()

	before := fetch.GetBodyConfig()
	viper.Set(fetch.BodyMaxSize, 4)
	assert.Same(t, before, fetch.GetBodyConfig())

	fetch.ReloadBodyConfig()
	assert.Equal(t, int64(4), fetch.GetBodyConfig().MaxSize)

	rp, err := fetch.NewResponse(strings.NewReader("12345"))
	require.NoError(t, err)
	_, err = rp.Bytes(context.Background())

	var fetchErr *fetch.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, fetch.MaxSizeError, fetchErr.Type)
}

func TestReloadBodyConfigRejectsInvalidValues(t *testing.T) {
	defer func() {
		viper.Set(fetch.BodyTimeout, "0s")
		fetch.ReloadBodyConfig()
	}()

	viper.Set(fetch.BodyTimeout, "-1s")
	fetch.ReloadBodyConfig()
	assert.Equal(t, time.Duration(0), fetch.GetBodyConfig().Timeout)
}
