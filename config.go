package fetch

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"logur.dev/logur"

	"gitlab.com/silenteer-oss/fetch/log"
)

var hostname string

var bodyConfigMu sync.RWMutex
var bodyCfg *BodyConfig

var logConfigOnce sync.Once
var logConfig *log.Config

var loggerOnce sync.Once
var logger logur.Logger

// use a single instance of Validate, it caches struct info
var validate = validator.New()

const (
	LoggingFormat  = "Logging.Format"
	LoggingLevel   = "Logging.Level"
	LoggingNoColor = "Logging.NoColor"
	BodyMaxSize    = "Body.MaxSize"
	BodyTimeout    = "Body.Timeout"
)

func init() {
	var err error
	hostname, err = os.Hostname()
	if hostname == "" || err != nil {
		hostname = "localhost"
	}

	viper.AddConfigPath(".")
	viper.SetConfigName("config")

	viper.AutomaticEnv() // read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	// logging
	viper.SetDefault(LoggingFormat, "logfmt")
	viper.SetDefault(LoggingLevel, "info")
	viper.SetDefault(LoggingNoColor, false)

	// body, 0 disables the limit
	viper.SetDefault(BodyMaxSize, 0)
	viper.SetDefault(BodyTimeout, "0s")
}

// BodyConfig holds the limits applied when a body stream is consumed.
type BodyConfig struct {
	MaxSize int64         `validate:"gte=0"`
	Timeout time.Duration `validate:"gte=0"`
}

func (c BodyConfig) Validate() error {
	return validate.Struct(c)
}

// GetBodyConfig returns the body limits read from viper. The result is
// cached until ReloadBodyConfig is called.
func GetBodyConfig() *BodyConfig {
	bodyConfigMu.RLock()
	c := bodyCfg
	bodyConfigMu.RUnlock()
	if c != nil {
		return c
	}

	bodyConfigMu.Lock()
	defer bodyConfigMu.Unlock()
	if bodyCfg == nil {
		bodyCfg = loadBodyConfig()
	}
	return bodyCfg
}

// ReloadBodyConfig drops the cached body limits; responses created
// afterwards pick up the current viper values.
func ReloadBodyConfig() {
	bodyConfigMu.Lock()
	bodyCfg = nil
	bodyConfigMu.Unlock()
}

func loadBodyConfig() *BodyConfig {
	c := &BodyConfig{
		MaxSize: viper.GetInt64(BodyMaxSize),
		Timeout: viper.GetDuration(BodyTimeout),
	}
	if err := c.Validate(); err != nil {
		GetLogger().Error(fmt.Sprintf("invalid body config, using defaults: %+v", err))
		return &BodyConfig{}
	}
	return c
}

func GetLogConfig() *log.Config {
	logConfigOnce.Do(func() { // <-- atomic, does not allow repeating
		logConfig = &log.Config{
			Format:  viper.GetString(LoggingFormat),
			Level:   viper.GetString(LoggingLevel),
			NoColor: viper.GetBool(LoggingNoColor),
		}
	})
	return logConfig
}

func GetLogger() logur.Logger {
	loggerOnce.Do(func() { // <-- atomic, does not allow repeating
		logger = log.WithFields(log.NewLogger(*GetLogConfig()), map[string]interface{}{"hostname": hostname})
	})
	return logger
}
