package command

import (
	"context"
	"regexp"
	"strconv"
)

// ArgKind is the type of a single command argument
type ArgKind int

const (
	String ArgKind = iota
	Integer
	Boolean
	UserMention
	ChannelMention
	RoleMention
	Mentionable
)

func (k ArgKind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	case UserMention:
		return "user"
	case ChannelMention:
		return "channel"
	case RoleMention:
		return "role"
	case Mentionable:
		return "mentionable"
	}
	return "unknown"
}

// Routing says which invocation sources a command accepts
type Routing int

const (
	Both Routing = iota
	TextOnly
	InteractionOnly
)

// AcceptsText reports whether the command may be triggered from a chat message
func (r Routing) AcceptsText() bool { return r != InteractionOnly }

// AcceptsInteraction reports whether the command may be triggered from a slash command
func (r Routing) AcceptsInteraction() bool { return r != TextOnly }

// Tier is the permission level required to run a command
type Tier int

const (
	Unrestricted Tier = iota
	// Managed commands are open to manage-guild holders and to the guild's configured role.
	Managed
	// Restricted commands are open to manage-guild holders only.
	Restricted
)

func (t Tier) String() string {
	switch t {
	case Unrestricted:
		return "unrestricted"
	case Managed:
		return "managed"
	case Restricted:
		return "restricted"
	}
	return "unknown"
}

// ArgSchema describes one named, typed argument of a command
type ArgSchema struct {
	Name        string
	Description string
	Kind        ArgKind
	Required    bool
}

// Handler runs a command body. The same handler serves text and interaction invocations.
type Handler interface {
	Handle(ctx context.Context, inv Invocation, args Args) error
}

// HandlerFunc adapts a plain function to Handler
type HandlerFunc func(ctx context.Context, inv Invocation, args Args) error

// Handle calls f(ctx, inv, args)
func (f HandlerFunc) Handle(ctx context.Context, inv Invocation, args Args) error {
	return f(ctx, inv, args)
}

// Command holds the metadata and handler of a registered command.
// The first alias is the canonical name. A Command must not be modified once added to a Registry.
type Command struct {
	Aliases     []string
	Description string
	Usage       string
	Examples    []string
	Group       string
	Routing     Routing
	Permission  Tier
	Args        []ArgSchema
	Handler     Handler

	argPattern *regexp.Regexp
}

// Name returns the canonical name of the command
func (c *Command) Name() string {
	if len(c.Aliases) == 0 {
		return ""
	}
	return c.Aliases[0]
}

// Equal reports whether both commands share the same canonical name
func (c *Command) Equal(other *Command) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Name() == other.Name()
}

// Extract parses raw argument text with the command's compiled argument pattern.
// Text that does not match yields an empty Args so commands with only optional
// arguments still run.
func (c *Command) Extract(raw string) Args {
	args := Args{}
	if c.argPattern == nil {
		return args
	}
	match := c.argPattern.FindStringSubmatch(raw)
	if match == nil {
		return args
	}
	for i, name := range c.argPattern.SubexpNames() {
		if i == 0 || name == "" || match[i] == "" {
			continue
		}
		args[name] = match[i]
	}
	return args
}

// Args is the flat bag of argument name to textual value for one invocation
type Args map[string]string

// Get returns the value of name or "" when absent
func (a Args) Get(name string) string {
	return a[name]
}

// Has reports whether name is present with a non-empty value. Boolean
// arguments are true exactly when Has returns true.
func (a Args) Has(name string) bool {
	return a[name] != ""
}

// Int parses the value of name as a decimal integer
func (a Args) Int(name string) (int, bool) {
	v, ok := a[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
