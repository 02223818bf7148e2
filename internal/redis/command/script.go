package command

import (
	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// Script wraps the Lua scripting commands. Script results are read as a
// list of strings; a single string result becomes a one-element list.
type Script struct {
	c *client.Client
}

// Eval runs script with keys and args.
func (f Script) Eval(script string, keys []string, args ...string) ([][]byte, error) {
	if err := requireKey("script", script); err != nil {
		return nil, err
	}
	return f.c.SendExpectMultiData(evalArgs("EVAL", script, keys, args)...)
}

// EvalSHA runs a cached script by its SHA1 digest.
func (f Script) EvalSHA(sha1 string, keys []string, args ...string) ([][]byte, error) {
	if err := requireKey("sha1", sha1); err != nil {
		return nil, err
	}
	return f.c.SendExpectMultiData(evalArgs("EVALSHA", sha1, keys, args)...)
}

func evalArgs(name, body string, keys, args []string) argv {
	return cmd(name, len(keys)+len(args)+2).str(body).int(int64(len(keys))).str(keys...).str(args...)
}

// ScriptLoad caches script and returns its SHA1 digest.
func (f Script) ScriptLoad(script string) (string, error) {
	if err := requireKey("script", script); err != nil {
		return "", err
	}
	return f.c.SendExpectString(cmd("SCRIPT", 2).str("LOAD", script)...)
}

// ScriptExists reports, per digest, whether the script is cached.
func (f Script) ScriptExists(sha1s ...string) ([]bool, error) {
	if err := requireKeys("sha1s", sha1s); err != nil {
		return nil, err
	}
	items, err := f.c.SendExpectMultiData(cmd("SCRIPT", len(sha1s)+1).str("EXISTS").str(sha1s...)...)
	if err != nil {
		return nil, err
	}
	if len(items) != len(sha1s) {
		return nil, domain.ErrUnexpectedReply.WithDetailsf("SCRIPT EXISTS returned %d flags for %d digests", len(items), len(sha1s))
	}
	out := make([]bool, len(items))
	for i, b := range items {
		out[i] = string(b) == "1"
	}
	return out, nil
}

// ScriptFlush empties the script cache.
func (f Script) ScriptFlush() error {
	return f.c.SendExpectOk(cmd("SCRIPT", 1).str("FLUSH")...)
}

// ScriptKill stops the running script.
func (f Script) ScriptKill() error {
	return f.c.SendExpectOk(cmd("SCRIPT", 1).str("KILL")...)
}
