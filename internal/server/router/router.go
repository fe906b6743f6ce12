// Package router dispatches bot updates to exactly one handler.
//
// The routing tree is plain data: a list of branches, each tagged with the
// kind of match it performs. Route walks it depth-first in declaration order
// and runs the first leaf whose whole path matches.
package router

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/swappy/internal/telegram"
)

// Context is the per-update routing context, read once when the update
// arrives.
type Context struct {
	GroupID      int64
	MaintainerID int64
	BotID        int64
	BotUsername  string
}

// Event is what handlers receive.
type Event struct {
	Update  *telegram.Update
	Context Context
	// Command is filled in by command branches.
	Command Command
}

// Message returns the update's message or nil.
func (e *Event) Message() *telegram.Message {
	return e.Update.Message
}

// Sender returns the id of the message author or 0.
func (e *Event) Sender() int64 {
	if m := e.Update.Message; m != nil && m.From != nil {
		return m.From.ID
	}
	return 0
}

type Handler func(ctx context.Context, ev *Event) error

type MatchKind int

const (
	// MatchMessage matches updates carrying a message.
	MatchMessage MatchKind = iota
	// MatchCallbackQuery matches callback query updates.
	MatchCallbackQuery
	// MatchPublicCommand matches a recognized public command.
	MatchPublicCommand
	// MatchFromMaintainer matches messages sent by the maintainer.
	MatchFromMaintainer
	// MatchMaintainerCommand matches a recognized maintainer command.
	MatchMaintainerCommand
	// MatchAddedToGroup matches the bot being added to a chat or a group
	// being created with it.
	MatchAddedToGroup
	// MatchUsersShared matches a users_shared payload.
	MatchUsersShared
)

var kindNames = map[MatchKind]string{
	MatchMessage:           "message",
	MatchCallbackQuery:     "callback_query",
	MatchPublicCommand:     "public_command",
	MatchFromMaintainer:    "from_maintainer",
	MatchMaintainerCommand: "maintainer_command",
	MatchAddedToGroup:      "added_to_group",
	MatchUsersShared:       "users_shared",
}

func (k MatchKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("MatchKind(%d)", int(k))
}

// Branch is one node of the routing tree. A node is either a leaf with a
// Handler or an inner node with Children. An inner node whose children all
// fail to match lets evaluation continue with its next sibling.
type Branch struct {
	Name     string
	Kind     MatchKind
	Handler  Handler
	Children []Branch
}

type Outcome int

const (
	NoMatch Outcome = iota
	Dispatched
)

func (o Outcome) String() string {
	if o == Dispatched {
		return "dispatched"
	}
	return "no_match"
}

type Option func(*Router)

// WithObserver registers fn to be called after every Route with the name of
// the dispatched leaf, or "" on NoMatch.
func WithObserver(fn func(branch string, outcome Outcome)) Option {
	return func(r *Router) { r.observe = fn }
}

type Router struct {
	tree    []Branch
	observe func(string, Outcome)
}

func New(tree []Branch, opts ...Option) *Router {
	r := &Router{tree: tree, observe: func(string, Outcome) {}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Route runs at most one handler for u. NoMatch is not an error; a handler
// error is returned as is together with Dispatched.
func (r *Router) Route(ctx context.Context, u *telegram.Update, rc Context) (Outcome, error) {
	ev := &Event{Update: u, Context: rc}

	leaf := walk(r.tree, ev)
	if leaf == nil {
		r.observe("", NoMatch)
		return NoMatch, nil
	}

	r.observe(leaf.Name, Dispatched)
	return Dispatched, leaf.Handler(ctx, ev)
}

func walk(branches []Branch, ev *Event) *Branch {
	for i := range branches {
		b := &branches[i]
		if !matches(b.Kind, ev) {
			continue
		}
		if len(b.Children) == 0 {
			if b.Handler != nil {
				return b
			}
			continue
		}
		if leaf := walk(b.Children, ev); leaf != nil {
			return leaf
		}
	}
	return nil
}

func matches(kind MatchKind, ev *Event) bool {
	msg := ev.Update.Message

	switch kind {
	case MatchMessage:
		return msg != nil
	case MatchCallbackQuery:
		return ev.Update.CallbackQuery != nil
	case MatchPublicCommand:
		return matchCommand(ev, PublicCommands)
	case MatchMaintainerCommand:
		return matchCommand(ev, MaintainerCommands)
	case MatchFromMaintainer:
		return msg != nil && msg.From != nil && msg.From.ID == ev.Context.MaintainerID
	case MatchAddedToGroup:
		if msg == nil {
			return false
		}
		if msg.GroupChatCreated {
			return true
		}
		for _, u := range msg.NewChatMembers {
			if u.ID == ev.Context.BotID {
				return true
			}
		}
		return false
	case MatchUsersShared:
		return msg != nil && msg.UsersShared != nil
	default:
		return false
	}
}

func matchCommand(ev *Event, specs []CommandSpec) bool {
	msg := ev.Update.Message
	if msg == nil || msg.Text == "" {
		return false
	}
	cmd, ok := ParseCommand(msg.Text, ev.Context.BotUsername, specs)
	if ok {
		ev.Command = cmd
	}
	return ok
}

// Handlers are the endpoints of the bot's routing tree.
type Handlers struct {
	PublicCommand     Handler
	MaintainerCommand Handler
	AddedToGroup      Handler
	UsersShared       Handler
	CallbackQuery     Handler
}

// Tree declares the bot's routing order. Public commands win over everything
// else; the callback branch stands on its own at the top level.
func Tree(h Handlers) []Branch {
	return []Branch{
		{
			Name: "message",
			Kind: MatchMessage,
			Children: []Branch{
				{Name: "public_command", Kind: MatchPublicCommand, Handler: h.PublicCommand},
				{
					Name: "maintainer",
					Kind: MatchFromMaintainer,
					Children: []Branch{
						{Name: "maintainer_command", Kind: MatchMaintainerCommand, Handler: h.MaintainerCommand},
					},
				},
				{Name: "added_to_group", Kind: MatchAddedToGroup, Handler: h.AddedToGroup},
				{Name: "users_shared", Kind: MatchUsersShared, Handler: h.UsersShared},
			},
		},
		{Name: "callback_query", Kind: MatchCallbackQuery, Handler: h.CallbackQuery},
	}
}
