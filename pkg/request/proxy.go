package request

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/net/proxy"
)

// Proxy — настройка прокси, общая для всех, кто держит указатель на один объект.
// Transport и socket.Socket читают её на каждом запросе/дозвоне, поэтому Set
// действует сразу на всех клиентов, которым передан этот Proxy, в том числе на
// созданных позже. Нулевое значение и nil означают «без прокси».
type Proxy struct {
	mu      sync.RWMutex
	scheme  string
	address string
	gen     atomic.Uint64 // растёт на каждом Set
}

func NewProxy(scheme, address string) *Proxy {
	p := &Proxy{}
	p.Set(scheme, address)
	return p
}

// Set меняет прокси. scheme: http, https, socks5, socks5h; address — host:port без схемы.
// Пустой address отключает прокси.
func (p *Proxy) Set(scheme, address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scheme = strings.ToLower(strings.TrimSpace(scheme))
	p.address = strings.TrimSpace(address)
	p.gen.Add(1)
}

// Generation меняется при каждом Set. Транспорт сверяет её перед запросом и
// сбрасывает простаивающие соединения: пул http.Transport не знает о socks.
func (p *Proxy) Generation() uint64 {
	if p == nil {
		return 0
	}
	return p.gen.Load()
}

// URL возвращает текущий адрес прокси, nil если прокси не задан.
func (p *Proxy) URL() (*url.URL, error) {
	if p == nil {
		return nil, nil
	}
	p.mu.RLock()
	scheme, address := p.scheme, p.address
	p.mu.RUnlock()

	if address == "" {
		return nil, nil
	}
	if scheme == "" {
		scheme = "http"
	}
	u, err := url.Parse(scheme + "://" + address)
	if err != nil {
		return nil, fmt.Errorf("request: bad proxy %q: %w", scheme+"://"+address, err)
	}
	return u, nil
}

func isSocks(scheme string) bool {
	return scheme == "socks5" || scheme == "socks5h"
}

// HTTPProxy подходит для http.Transport.Proxy и websocket.Dialer.Proxy.
// Для socks-прокси возвращает nil: их обслуживает DialContext.
func (p *Proxy) HTTPProxy(_ *http.Request) (*url.URL, error) {
	u, err := p.URL()
	if err != nil || u == nil || isSocks(u.Scheme) {
		return nil, err
	}
	return u, nil
}

// DialContext подходит для http.Transport.DialContext и websocket.Dialer.NetDialContext.
func (p *Proxy) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	u, err := p.URL()
	if err != nil {
		return nil, err
	}
	if u == nil || !isSocks(u.Scheme) {
		var d net.Dialer
		return d.DialContext(ctx, network, addr)
	}

	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("request: socks proxy: %w", err)
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, addr)
	}
	return d.Dial(network, addr)
}

func (p *Proxy) String() string {
	u, err := p.URL()
	if err != nil || u == nil {
		return "direct"
	}
	return u.Scheme + "://" + u.Host
}
