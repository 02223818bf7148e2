package domain

import "strings"

// KeyValue is one key and value pair for MSET-style commands.
type KeyValue struct {
	Key   string
	Value []byte
}

// ScoreValue is one member and score pair for ZADD-style commands.
type ScoreValue struct {
	Score  float64
	Member []byte
}

// ChannelCount is one entry of a PUBSUB NUMSUB reply.
type ChannelCount struct {
	Channel     string
	Subscribers int64
}

// SetCondition restricts when SET stores its value.
type SetCondition int

const (
	SetAlways SetCondition = iota
	SetIfNotExists // NX
	SetIfExists    // XX
)

// Token returns the wire token, or "" for SetAlways.
func (c SetCondition) Token() string {
	switch c {
	case SetIfNotExists:
		return "NX"
	case SetIfExists:
		return "XX"
	default:
		return ""
	}
}

// Aggregate selects how ZUNIONSTORE and ZINTERSTORE combine scores.
type Aggregate int

const (
	AggregateSum Aggregate = iota
	AggregateMin
	AggregateMax
)

// Token returns the wire token.
func (a Aggregate) Token() string {
	switch a {
	case AggregateMin:
		return "MIN"
	case AggregateMax:
		return "MAX"
	default:
		return "SUM"
	}
}

// ParseAggregate accepts sum, min or max in any case.
func ParseAggregate(s string) (Aggregate, error) {
	switch strings.ToUpper(s) {
	case "", "SUM":
		return AggregateSum, nil
	case "MIN":
		return AggregateMin, nil
	case "MAX":
		return AggregateMax, nil
	default:
		return AggregateSum, InvalidArgument("aggregate", "must be SUM, MIN or MAX")
	}
}
