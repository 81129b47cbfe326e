// Package config loads response settings from Consul KV.
package config

import (
	"fmt"
	"runtime/debug"

	"github.com/hashicorp/consul/api"
	"github.com/hashicorp/consul/api/watch"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	_ "github.com/spf13/viper/remote"
	"logur.dev/logur"
)

const (
	ConsulAddr      = "Consul.Addr"
	noRemoteFileErr = "Remote Configurations Error: No Files Found"
)

func init() {
	viper.SetDefault(ConsulAddr, "localhost:8500")
}

// Remote keeps viper in sync with a yaml document stored in Consul KV and
// notifies subscribers after every applied change.
type Remote struct {
	addr     string
	key      string
	logger   logur.Logger
	onChange []func()

	// reload re-reads the remote document into viper
	reload func() error
}

// NewRemote targets key on the Consul agent configured under ConsulAddr.
// onChange hooks run after each successful reload, e.g.
// fetch.ReloadBodyConfig so new responses see the updated limits.
func NewRemote(key string, logger logur.Logger, onChange ...func()) *Remote {
	return &Remote{
		addr:     viper.GetString(ConsulAddr),
		key:      key,
		logger:   logger,
		onChange: onChange,
		reload:   viper.WatchRemoteConfig,
	}
}

// Load registers Consul as viper's remote provider and reads the document.
// A missing key is created empty.
func (r *Remote) Load() error {
	if err := viper.AddRemoteProvider("consul", r.addr, r.key); err != nil {
		return errors.WithMessagef(err, "err config consul")
	}

	r.logger.Info("Connect to consul", map[string]interface{}{"addr": r.addr, "key": r.key})
	viper.SetConfigType("yaml")
	if err := viper.ReadRemoteConfig(); err != nil {
		if err.Error() != noRemoteFileErr {
			return errors.WithMessagef(err, "err read remote config")
		}
		if err := r.createKey(); err != nil {
			return errors.WithMessagef(err, "err create consul key %s", r.key)
		}
	}
	r.notify()
	return nil
}

// Watch follows key in the background and reloads on every change.
func (r *Remote) Watch() error {
	wp, err := watch.Parse(map[string]interface{}{
		"type": "key",
		"key":  r.key,
	})
	if err != nil {
		return errors.WithMessagef(err, "err Parse config")
	}
	wp.Handler = r.handle

	go func() {
		defer func() {
			if err := recover(); err != nil {
				r.logger.Error(fmt.Sprintf("Panicking %s \n", debug.Stack()))
			}
		}()
		if err := wp.Run(r.addr); err != nil {
			r.logger.Error(fmt.Sprintf("consul watch stopped: %v", err))
		}
	}()
	return nil
}

func (r *Remote) handle(_ uint64, data interface{}) {
	if d, ok := data.(*api.KVPair); ok {
		r.logger.Info(fmt.Sprintf("Key %s changed, value: %s", d.Key, MaskLeft(d.Value)))
	}
	if err := r.reload(); err != nil {
		r.logger.Error(fmt.Sprintf("unable to read remote config: %v", err))
		return
	}
	r.notify()
}

func (r *Remote) notify() {
	for _, f := range r.onChange {
		f()
	}
}

func (r *Remote) createKey() error {
	cfg := api.DefaultConfig()
	cfg.Address = r.addr
	consul, err := api.NewClient(cfg)
	if err != nil {
		return errors.WithMessagef(err, "err connect to consul, %s", r.addr)
	}

	_, err = consul.KV().Put(&api.KVPair{Key: r.key, Value: []byte("")}, nil)
	return errors.WithMessagef(err, "err put to consul %s", r.addr)
}

// InitRemoteConfig loads key from Consul and keeps watching it.
func InitRemoteConfig(key string, logger logur.Logger, onChange ...func()) error {
	r := NewRemote(key, logger, onChange...)
	if err := r.Load(); err != nil {
		return err
	}
	return r.Watch()
}

// MaskLeft hides all but the last four bytes of s.
func MaskLeft(s []byte) string {
	rs := append([]byte(nil), s...)
	for i := 0; i < len(rs)-4; i++ {
		rs[i] = 'X'
	}
	return string(rs)
}
