package command

import (
	"github.com/yndnr/goresp/internal/redis/client"
)

// Transaction wraps MULTI/EXEC. Between Multi and Exec, commands must go
// through Queue: the server answers +QUEUED instead of their usual reply.
type Transaction struct {
	c *client.Client
}

// Watch marks keys for optimistic locking.
func (f Transaction) Watch(keys ...string) error {
	if err := requireKeys("keys", keys); err != nil {
		return err
	}
	return f.c.SendExpectOk(cmd("WATCH", len(keys)).str(keys...)...)
}

// Unwatch forgets every watched key.
func (f Transaction) Unwatch() error {
	return f.c.SendExpectOk(cmd("UNWATCH", 0)...)
}

// Multi starts a transaction.
func (f Transaction) Multi() error {
	return f.c.SendExpectOk(cmd("MULTI", 0)...)
}

// Queue adds one command to the open transaction.
func (f Transaction) Queue(args ...string) error {
	if len(args) == 0 {
		return requireKey("command", "")
	}
	return f.c.SendExpectQueued(client.Args(args...)...)
}

// Exec runs the queued commands and returns their replies in order as a
// tree of string, int64, []byte, nil and []any values. A nil result means
// a watched key changed and nothing ran.
func (f Transaction) Exec() ([]any, error) {
	return f.c.SendExpectDeeplyNestedMultiData(cmd("EXEC", 0)...)
}

// Discard abandons the transaction.
func (f Transaction) Discard() error {
	return f.c.SendExpectOk(cmd("DISCARD", 0)...)
}
