package command

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// prefixSuffix names the capture that records which mention syntax a Mentionable argument used.
const prefixSuffix = "_prefix"

var argNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// argFragment returns the capture fragment for one argument
func argFragment(a ArgSchema) (string, error) {
	name := a.Name
	switch a.Kind {
	case String:
		return `(?P<` + name + `>.+?)`, nil
	case Integer:
		return `(?P<` + name + `>\d+)`, nil
	case Boolean:
		return `(?P<` + name + `>` + regexp.QuoteMeta(name) + `)?`, nil
	case UserMention:
		return `<@!?(?P<` + name + `>\d+)>`, nil
	case RoleMention:
		return `<@&(?P<` + name + `>\d+)>`, nil
	case ChannelMention:
		return `<#(?P<` + name + `>\d+)>`, nil
	case Mentionable:
		return `<(?P<` + name + prefixSuffix + `>@!?|@&|#)(?P<` + name + `>\d+)>`, nil
	}
	return "", errors.Errorf("argument %q has unknown kind %d", name, a.Kind)
}

// CompileArgs builds the argument extraction pattern for an ordered argument list.
// Fragments are separated by optional whitespace and the pattern is anchored at both ends.
func CompileArgs(schema []ArgSchema, caseInsensitive bool) (*regexp.Regexp, error) {
	seen := make(map[string]bool, len(schema))
	fragments := make([]string, 0, len(schema))
	for _, a := range schema {
		if !argNameRegex.MatchString(a.Name) {
			return nil, errors.Errorf("invalid argument name %q", a.Name)
		}
		captures := []string{a.Name}
		if a.Kind == Mentionable {
			captures = append(captures, a.Name+prefixSuffix)
		}
		for _, c := range captures {
			if seen[c] {
				return nil, errors.Errorf("duplicate argument capture %q", c)
			}
			seen[c] = true
		}
		fragment, err := argFragment(a)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, fragment)
	}

	flags := "(?s)"
	if caseInsensitive {
		flags = "(?is)"
	}
	pattern := flags + `^\s*` + strings.Join(fragments, `\s*`) + `\s*$`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "compile argument pattern %q", pattern)
	}
	return re, nil
}

// CompileDispatch builds the aggregate pattern matching any alias at the start of a message,
// introduced by a bot mention or a short prefix token. Longer aliases are tried first so an
// alias never shadows a longer alias it is a prefix of.
func CompileDispatch(aliases []string, caseInsensitive bool) (*regexp.Regexp, error) {
	if len(aliases) == 0 {
		return nil, errors.New("no aliases to compile")
	}
	sorted := append([]string(nil), aliases...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	quoted := make([]string, len(sorted))
	for i, a := range sorted {
		quoted[i] = regexp.QuoteMeta(a)
	}

	flags := "(?s)"
	if caseInsensitive {
		flags = "(?is)"
	}
	pattern := flags +
		`^(?:<@!?(?P<mention>\d+)>\s*|(?P<prefix>\S{1,5}?))` +
		`(?P<cmd>` + strings.Join(quoted, "|") + `)` +
		`(?:$|\s+(?P<args>.*))`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "compile dispatch pattern")
	}
	return re, nil
}

// Match is the result of matching a message against the dispatch pattern
type Match struct {
	// Mention is the mentioned user id when the command was addressed by mention.
	Mention string
	Prefix  string
	Name    string
	Args    string
}

// ByMention reports whether the command was introduced by a mention instead of a prefix
func (m Match) ByMention() bool {
	return m.Mention != ""
}

func matchDispatch(re *regexp.Regexp, content string) (Match, bool) {
	sub := re.FindStringSubmatch(content)
	if sub == nil {
		return Match{}, false
	}
	return Match{
		Mention: sub[re.SubexpIndex("mention")],
		Prefix:  sub[re.SubexpIndex("prefix")],
		Name:    sub[re.SubexpIndex("cmd")],
		Args:    sub[re.SubexpIndex("args")],
	}, true
}
