package command

import (
	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// SortOptions are the SORT modifiers.
type SortOptions struct {
	By    string   // external key pattern to sort by
	Get   []string // patterns of values to return instead of the elements
	Page  Page
	Desc  bool
	Alpha bool // compare lexicographically
}

// Sort wraps SORT.
type Sort struct {
	c *client.Client
}

// Sort returns the sorted elements of the list, set or sorted set at key.
func (f Sort) Sort(key string, opts SortOptions) ([][]byte, error) {
	a, err := sortArgs(key, opts)
	if err != nil {
		return nil, err
	}
	return f.c.SendExpectMultiData(a...)
}

// Store sorts key into dest and returns the number of stored elements.
func (f Sort) Store(key, dest string, opts SortOptions) (int64, error) {
	if err := requireKey("dest", dest); err != nil {
		return 0, err
	}
	a, err := sortArgs(key, opts)
	if err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(a.str("STORE", dest)...)
}

func sortArgs(key string, opts SortOptions) (argv, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	if opts.Page.Size < 0 {
		return nil, domain.InvalidArgument("page size", "must not be negative")
	}

	a := cmd("SORT", 8+2*len(opts.Get)).str(key)
	if opts.By != "" {
		a = a.str("BY", opts.By)
	}
	if opts.Page.Size > 0 {
		a = a.str("LIMIT").int(offset(opts.Page.Size, opts.Page.Index)).int(int64(opts.Page.Size))
	}
	for _, g := range opts.Get {
		a = a.str("GET", g)
	}
	if opts.Desc {
		a = a.str("DESC")
	}
	if opts.Alpha {
		a = a.str("ALPHA")
	}
	return a, nil
}
