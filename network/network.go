// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

// Package network binds the server's listening sockets.
//
// Binding happens early in the boot sequence, before a late identity
// drop, so a server started as root can claim privileged ports and
// still run the world under an unprivileged identity. What speaks on
// the bound listeners (telnet negotiation, HTTP) is the protocol
// layer's concern, not this package's.
package network

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/driftwood-mud/driftwood/lib/mudlog"
	"github.com/driftwood-mud/driftwood/lib/settings"
)

// Servers holds the bound listeners for the world.
type Servers struct {
	log *mudlog.Logger

	closeOnce sync.Once
	main      net.Listener
	http      net.Listener
}

// Initialize binds the main (telnet) and HTTP listeners. Empty
// addresses fall back to the world settings ("main_addr",
// "http_addr", both seeded with defaults at load time).
func Initialize(bindAddr, httpAddr string, store *settings.Store, log *mudlog.Logger) (*Servers, error) {
	if bindAddr == "" {
		bindAddr = store.Str("main_addr")
	}
	if httpAddr == "" {
		httpAddr = store.Str("http_addr")
	}

	servers := &Servers{log: log}

	main, err := listen(bindAddr)
	if err != nil {
		return nil, fmt.Errorf("binding main server: %w", err)
	}
	servers.main = main
	log.Info("main server listening", "addr", main.Addr().String())

	http, err := listen(httpAddr)
	if err != nil {
		main.Close()
		return nil, fmt.Errorf("binding http server: %w", err)
	}
	servers.http = http
	log.Info("http server listening", "addr", http.Addr().String())

	return servers, nil
}

// Main returns the bound main (telnet) listener.
func (s *Servers) Main() net.Listener { return s.main }

// HTTP returns the bound HTTP listener.
func (s *Servers) HTTP() net.Listener { return s.http }

// StopListeners closes the listening sockets. Connections already
// accepted remain active. Idempotent.
func (s *Servers) StopListeners() {
	s.closeOnce.Do(func() {
		if s.main != nil {
			s.main.Close()
		}
		if s.http != nil {
			s.http.Close()
		}
	})
}

func listen(addr string) (net.Listener, error) {
	host, port, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}
	return net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

// ParseAddr splits a listening address of the form "host:port",
// ":port", or "[ipv6]:port" into its host and numeric port.
func ParseAddr(addr string) (host string, port int, err error) {
	addr = strings.TrimSpace(addr)

	var portPart string
	if strings.HasPrefix(addr, "[") {
		bracket := strings.Index(addr, "]")
		if bracket < 0 {
			return "", 0, fmt.Errorf("invalid address %q", addr)
		}
		host = addr[1:bracket]
		rest := addr[bracket+1:]
		if !strings.HasPrefix(rest, ":") {
			return "", 0, fmt.Errorf("invalid address %q", addr)
		}
		portPart = rest[1:]
	} else {
		var found bool
		host, portPart, found = strings.Cut(addr, ":")
		if !found {
			return "", 0, fmt.Errorf("invalid address %q: missing port", addr)
		}
	}

	port, err = strconv.Atoi(portPart)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in address %q", addr)
	}
	return host, port, nil
}
