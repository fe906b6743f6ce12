package router

import (
	"strconv"
	"strings"
)

// Verb is the action part of a callback token.
type Verb string

const (
	VerbDelete Verb = "del"
	VerbEdit   Verb = "edit"
	VerbRepost Verb = "repost"
)

// Callback is the payload of an inline button: "<verb>:<message id>".
type Callback struct {
	Verb      Verb
	MessageID int32
}

func (c Callback) String() string {
	return string(c.Verb) + ":" + strconv.FormatInt(int64(c.MessageID), 10)
}

// ParseCallback parses a callback token. Anything other than a known verb, a
// colon and a base-10 signed 32-bit integer yields ok=false.
func ParseCallback(s string) (Callback, bool) {
	verb, id, found := strings.Cut(s, ":")
	if !found {
		return Callback{}, false
	}

	n, err := strconv.ParseInt(id, 10, 32)
	if err != nil {
		return Callback{}, false
	}

	switch v := Verb(verb); v {
	case VerbDelete, VerbEdit, VerbRepost:
		return Callback{Verb: v, MessageID: int32(n)}, true
	default:
		return Callback{}, false
	}
}
