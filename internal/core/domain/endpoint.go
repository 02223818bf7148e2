package domain

import (
	"net"
	"strconv"
)

// Default endpoint values.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 6379
)

// Endpoint describes one Redis server and the session state to establish
// on every (re)connect.
type Endpoint struct {
	Host     string
	Port     int
	Password string // empty disables AUTH
	DB       int    // selected after AUTH when non-zero
}

// DefaultEndpoint returns the local default server, db 0, no password.
func DefaultEndpoint() Endpoint {
	return Endpoint{Host: DefaultHost, Port: DefaultPort}
}

// NewEndpoint returns an endpoint with empty fields replaced by defaults.
func NewEndpoint(host string, port int, password string, db int) Endpoint {
	e := Endpoint{Host: host, Port: port, Password: password, DB: db}
	return e.WithDefaults()
}

// WithDefaults fills an empty host and a non-positive port.
func (e Endpoint) WithDefaults() Endpoint {
	if e.Host == "" {
		e.Host = DefaultHost
	}
	if e.Port <= 0 {
		e.Port = DefaultPort
	}
	return e
}

// Addr returns the dial address "host:port".
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Validate checks the port range and db index.
func (e Endpoint) Validate() error {
	if e.Host == "" {
		return InvalidArgument("host", "must not be empty")
	}
	if e.Port <= 0 || e.Port > 65535 {
		return InvalidArgument("port", "must be in 1..65535")
	}
	if e.DB < 0 {
		return InvalidArgument("db", "must not be negative")
	}
	return nil
}

// String renders the endpoint without the password.
func (e Endpoint) String() string {
	s := e.Addr() + "/" + strconv.Itoa(e.DB)
	if e.Password != "" {
		s += " (auth)"
	}
	return s
}
