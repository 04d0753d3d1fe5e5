package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/dnscache"
	"golang.org/x/net/proxy"
)

// Client downloads attachment images. Lookups go through a caching resolver
// because the platform CDN is hit for every verification request.
type Client struct {
	http     *http.Client
	resolver *dnscache.Resolver
}

// New builds a Client. socks5Addr optionally routes all fetches through a
// socks5 proxy; the proxy then does its own name resolution.
func New(socks5Addr string) (*Client, error) {
	resolver := &dnscache.Resolver{}
	baseDialer := &net.Dialer{Timeout: 15 * time.Second}

	var dialCtx func(ctx context.Context, network, addr string) (net.Conn, error)
	if socks5Addr != "" {
		d, err := proxy.SOCKS5("tcp", socks5Addr, nil, baseDialer)
		if err != nil {
			return nil, fmt.Errorf("image proxy: %w", err)
		}
		if cd, ok := d.(proxy.ContextDialer); ok {
			dialCtx = cd.DialContext
		} else {
			dialCtx = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return d.Dial(network, addr)
			}
		}
	} else {
		dialCtx = func(ctx context.Context, network, addr string) (conn net.Conn, err error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			for _, ip := range ips {
				conn, err = baseDialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
			}
			return nil, err
		}
	}

	c := &Client{
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				DialContext:         dialCtx,
				MaxIdleConnsPerHost: 4,
			},
		},
		resolver: resolver,
	}
	go c.refreshLoop()
	return c, nil
}

func (c *Client) refreshLoop() {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for range t.C {
		c.resolver.Refresh(true)
	}
}

// Download fetches url into destPath. Not retried; the caller surfaces the
// failure instead of silently resolving to "not verified".
func (c *Client) Download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %v: unexpected status %v", url, resp.Status)
	}
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(destPath)
		return err
	}
	return f.Close()
}
