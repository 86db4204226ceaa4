package blacket

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/EgorLis/trtl/pkg/logger"
	"github.com/EgorLis/trtl/pkg/request"
)

const DefaultInstance = "v2.blacket.org"

var validate = validator.New()

// Options — настройки клиента. Всё необязательно.
type Options struct {
	// Instance — хост инстанса без схемы (v2.blacket.org, localhost:3000).
	Instance string `validate:"omitempty,hostname_rfc1123|hostname_port"`
	// Insecure — http/ws вместо https/wss.
	Insecure bool

	// Proxy — общий объект прокси; клиенты с одним объектом маршрутизируются одинаково.
	Proxy *request.Proxy

	Logger     logger.Logger
	Reporter   request.Reporter
	HTTPClient *http.Client
}

func (o Options) normalize() (Options, error) {
	o.Instance = strings.TrimSpace(o.Instance)
	if o.Instance == "" {
		o.Instance = DefaultInstance
	}
	if err := validate.Struct(o); err != nil {
		return o, fmt.Errorf("blacket: invalid options: %w", err)
	}
	if o.Proxy == nil {
		o.Proxy = &request.Proxy{}
	}
	if o.Logger == nil {
		o.Logger = logger.Log
	}
	return o, nil
}

func (o Options) baseURL() string {
	if o.Insecure {
		return "http://" + o.Instance
	}
	return "https://" + o.Instance
}

func (o Options) transport(log logger.Logger) *request.Transport {
	opts := []request.Option{request.WithProxy(o.Proxy), request.WithLogger(log)}
	if o.Reporter != nil {
		opts = append(opts, request.WithReporter(o.Reporter))
	}
	if o.HTTPClient != nil {
		opts = append(opts, request.WithHTTPClient(o.HTTPClient))
	}
	return request.New(opts...)
}
