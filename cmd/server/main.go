package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/viper"

	"gitlab.com/silenteer-oss/fetch"
	"gitlab.com/silenteer-oss/fetch/config"
	"gitlab.com/silenteer-oss/fetch/nats"
	"gitlab.com/silenteer-oss/fetch/restful"
	"gitlab.com/silenteer-oss/fetch/tracing"
)

const (
	ServerAddr    = "Server.Addr"
	ConsulEnable  = "Consul.Enable"
	NatsServers   = "Nats.Servers"
	NatsSubject   = "Nats.Subject"
	serviceName   = "fetch-server"
	remoteKeyName = "fetch/server"
)

func init() {
	viper.SetDefault(ServerAddr, ":8080")
	viper.SetDefault(ConsulEnable, false)
	viper.SetDefault(NatsServers, "")
	viper.SetDefault(NatsSubject, "api.fetch.echo")
}

func routes(r chi.Router) {
	r.Method(http.MethodGet, "/hello", restful.HandlerFunc(func(r *http.Request) (*fetch.Response, error) {
		return fetch.NewResponse("hello world", fetch.WithLogger(restful.LoggerFromContext(r.Context())))
	}))

	r.Method(http.MethodGet, "/json", restful.HandlerFunc(func(r *http.Request) (*fetch.Response, error) {
		return fetch.NewResponse(fetch.JSONBody(map[string]interface{}{
			"requestId": restful.RequestId(r.Context()),
			"query":     r.URL.Query(),
		}))
	}))

	// streams the request body back with its content type
	r.Method(http.MethodPost, "/echo", restful.HandlerFunc(func(r *http.Request) (*fetch.Response, error) {
		headers := map[string]string{}
		if ct := r.Header.Get("Content-Type"); ct != "" {
			headers["Content-Type"] = ct
		}
		return fetch.NewResponse(r.Body, fetch.WithHeaders(headers), fetch.WithURL(r.URL.String()))
	}))

	// reads a clone to measure the body, then streams the original
	r.Method(http.MethodPost, "/clone", restful.HandlerFunc(func(r *http.Request) (*fetch.Response, error) {
		data, err := ioutil.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		rp, err := fetch.NewResponse(data, fetch.WithURL(r.URL.String()))
		if err != nil {
			return nil, err
		}
		cl, err := rp.Clone()
		if err != nil {
			return nil, err
		}
		measured, err := cl.Bytes(r.Context())
		if err != nil {
			return nil, err
		}
		if err := rp.Headers().Set("X-Body-Length", strconv.Itoa(len(measured))); err != nil {
			return nil, err
		}
		return rp, nil
	}))
}

func main() {
	logger := fetch.GetLogger()

	if viper.GetBool(ConsulEnable) {
		if err := config.InitRemoteConfig(remoteKeyName, logger, fetch.ReloadBodyConfig); err != nil {
			logger.Error(fmt.Sprintf("remote config error: %+v", err))
		}
	}

	closer, err := tracing.InitTracing(serviceName)
	if err != nil {
		logger.Warn(fmt.Sprintf("tracing disabled: %v", err))
	} else {
		defer func() { _ = closer.Close() }()
	}

	if servers := viper.GetString(NatsServers); servers != "" {
		conn, err := nats.NewConnection(servers, logger)
		if err != nil {
			logger.Error(fmt.Sprintf("nats connection error: %+v", err))
			os.Exit(1)
		}
		defer conn.Close()

		subject := viper.GetString(NatsSubject)
		_, err = conn.Handle(subject, "workers", func(ctx context.Context, payload json.RawMessage) (*fetch.Response, error) {
			return fetch.NewResponse([]byte(payload), fetch.WithHeaders(map[string]string{"Content-Type": "application/json"}))
		})
		if err != nil {
			logger.Error(fmt.Sprintf("nats subscribe error: %+v", err))
			os.Exit(1)
		}
		logger.Info("Listening on NATS subject", map[string]interface{}{"subject": subject})
	}

	server := &http.Server{
		Addr:    viper.GetString(ServerAddr),
		Handler: restful.NewRouter(logger, routes),
	}

	go func() {
		done := make(chan os.Signal, 1)
		signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
		<-done

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("server shutdown error: %+v", err))
		}
	}()

	logger.Info("HTTP server listening", map[string]interface{}{"addr": server.Addr})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error(fmt.Sprintf("server error: %+v", err))
		os.Exit(1)
	}
}
