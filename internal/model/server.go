package model

import (
	"context"
	"net"
)

// SecurityLayer produces the network listener the HTTP server serves on,
// plain or TLS depending on configuration.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is the transport-facing lifecycle of the API server.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
