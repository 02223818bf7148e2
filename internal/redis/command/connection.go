package command

import (
	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// Connection wraps the connection commands.
type Connection struct {
	c *client.Client
}

// Auth authenticates the current connection. Reconnects authenticate with
// the endpoint password, not this one.
func (f Connection) Auth(password string) error {
	if err := requireKey("password", password); err != nil {
		return err
	}
	return f.c.SendExpectSuccess(cmd("AUTH", 1).str(password)...)
}

// Select switches the database; the choice survives reconnects.
func (f Connection) Select(db int) error {
	return f.c.Select(db)
}

// Echo returns msg as echoed by the server.
func (f Connection) Echo(msg string) (string, error) {
	return f.c.SendExpectString(cmd("ECHO", 1).str(msg)...)
}

// Ping returns the server's PONG.
func (f Connection) Ping() (string, error) {
	return f.c.SendExpectString(cmd("PING", 0)...)
}

// Quit asks the server to close the connection and disposes the client.
func (f Connection) Quit() error {
	err := f.c.SendExpectOk(cmd("QUIT", 0)...)
	if cerr := f.c.Close(); err == nil {
		err = cerr
	}
	if domain.KindOf(err) == domain.KindConnection {
		return nil
	}
	return err
}
