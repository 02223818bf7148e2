// Package command defines the goresp-cli commands.
//
// Global flags select the server and the output format; they override the
// config file and GORESP_* environment variables. Commands share one
// connection manager per invocation, created in the app's Before hook.
// Arguments that do not name a command are sent to the server as they
// are, so "goresp-cli GET k" works like redis-cli.
package command
