package command

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Option configures a Registry
type Option func(*Registry)

// WithCaseInsensitive makes alias lookup, dispatch matching and boolean flags case-insensitive
func WithCaseInsensitive(enabled bool) Option {
	return func(r *Registry) {
		r.caseInsensitive = enabled
	}
}

// Registry collects commands before they are sealed by Build
type Registry struct {
	caseInsensitive bool
	byAlias         map[string]*Command
	all             map[string]*Command
	problems        []string
}

// NewRegistry returns an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byAlias: make(map[string]*Command),
		all:     make(map[string]*Command),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) key(alias string) string {
	if r.caseInsensitive {
		return strings.ToLower(alias)
	}
	return alias
}

// Add registers cmd under every alias. Collisions are recorded and reported by Build.
func (r *Registry) Add(cmd *Command) *Registry {
	if cmd == nil || len(cmd.Aliases) == 0 {
		r.problems = append(r.problems, "command without aliases")
		return r
	}
	name := cmd.Name()
	if _, exists := r.all[r.key(name)]; exists {
		r.problems = append(r.problems, fmt.Sprintf("command %s registered twice", name))
		return r
	}
	if cmd.Handler == nil {
		r.problems = append(r.problems, fmt.Sprintf("command %s has no handler", name))
	}
	r.all[r.key(name)] = cmd

	for _, alias := range cmd.Aliases {
		if alias == "" || strings.ContainsAny(alias, " \t\r\n") {
			r.problems = append(r.problems, fmt.Sprintf("command %s has invalid alias %q", name, alias))
			continue
		}
		if owner, taken := r.byAlias[r.key(alias)]; taken {
			if owner == cmd {
				r.problems = append(r.problems, fmt.Sprintf("command %s declares alias %q twice", name, alias))
			} else {
				r.problems = append(r.problems, fmt.Sprintf("alias %q of %s collides with %s", alias, name, owner.Name()))
			}
			continue
		}
		r.byAlias[r.key(alias)] = cmd
	}
	return r
}

// Build validates the registry, compiles every pattern and returns the sealed registry.
// A failure here is a programming error in a command declaration.
func (r *Registry) Build() (*Sealed, error) {
	if len(r.problems) > 0 {
		return nil, errors.Errorf("invalid command registry: %s", strings.Join(r.problems, "; "))
	}

	aliases := make([]string, 0, len(r.byAlias))
	for _, cmd := range r.all {
		aliases = append(aliases, cmd.Aliases...)
		re, err := CompileArgs(cmd.Args, r.caseInsensitive)
		if err != nil {
			return nil, errors.Wrapf(err, "command %s", cmd.Name())
		}
		cmd.argPattern = re
	}

	dispatch, err := CompileDispatch(aliases, r.caseInsensitive)
	if err != nil {
		return nil, err
	}

	list := make([]*Command, 0, len(r.all))
	for _, cmd := range r.all {
		list = append(list, cmd)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Group != list[j].Group {
			return list[i].Group < list[j].Group
		}
		return list[i].Name() < list[j].Name()
	})

	byAlias := make(map[string]*Command, len(r.byAlias))
	for k, v := range r.byAlias {
		byAlias[k] = v
	}

	return &Sealed{
		caseInsensitive: r.caseInsensitive,
		byAlias:         byAlias,
		list:            list,
		dispatch:        dispatch,
	}, nil
}

// MustBuild is like Build but panics on error
func (r *Registry) MustBuild() *Sealed {
	s, err := r.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// Sealed is the immutable registry produced by Build. It is safe for concurrent use.
type Sealed struct {
	caseInsensitive bool
	byAlias         map[string]*Command
	list            []*Command
	dispatch        *regexp.Regexp
}

// Lookup returns the command registered under name
func (s *Sealed) Lookup(name string) (*Command, bool) {
	if s.caseInsensitive {
		name = strings.ToLower(name)
	}
	cmd, ok := s.byAlias[name]
	return cmd, ok
}

// All returns every registered command once, ordered by group then name.
// The returned slice is a copy.
func (s *Sealed) All() []*Command {
	return append([]*Command(nil), s.list...)
}

// Groups returns the commands keyed by group
func (s *Sealed) Groups() map[string][]*Command {
	groups := make(map[string][]*Command)
	for _, cmd := range s.list {
		groups[cmd.Group] = append(groups[cmd.Group], cmd)
	}
	return groups
}

// CaseInsensitive reports whether names are matched without regard to case
func (s *Sealed) CaseInsensitive() bool {
	return s.caseInsensitive
}

// Match matches content against the aggregate dispatch pattern
func (s *Sealed) Match(content string) (Match, bool) {
	return matchDispatch(s.dispatch, content)
}
