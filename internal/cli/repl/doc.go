// Package repl implements the interactive mode of goresp-cli.
//
// Each input line is split into arguments with redis-cli quoting rules,
// sent as one command and the reply rendered before the next prompt.
// Lines are kept in a history file between sessions.
package repl
