package tokens

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"edlmatch/internal/failure"
	"edlmatch/internal/logging"
)

// Map holds placeholder values keyed by placeholder name.
type Map map[string]string

// Merge returns a new Map holding m overlaid with each of others in order.
func (m Map) Merge(others ...Map) Map {
	size := len(m)
	for _, o := range others {
		size += len(o)
	}
	out := make(Map, size)
	for k, v := range m {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

var placeholderRE = regexp.MustCompile(`\{([^{}]+)\}`)

// Fill substitutes every {name} placeholder in template with its value from
// tokens. Unknown placeholders are left untouched.
func Fill(template string, tokens Map) string {
	if len(tokens) == 0 || !strings.Contains(template, "{") {
		return template
	}
	return placeholderRE.ReplaceAllStringFunc(template, func(match string) string {
		if value, ok := tokens[match[1:len(match)-1]]; ok {
			return value
		}
		return match
	})
}

// Rule is the declarative form of a template-driven regex extraction.
type Rule struct {
	Template    string
	Pattern     string
	Replacement string
}

// Status reports how a rule evaluation ended.
type Status int

const (
	// Empty means the rule ran but produced no value (no match, no group 1, or
	// an empty substitution result).
	Empty Status = iota
	// Produced means the rule yielded a non-empty value.
	Produced
	// Malformed means the pattern or replacement could not be used.
	Malformed
)

func (s Status) String() string {
	switch s {
	case Produced:
		return "produced"
	case Malformed:
		return "malformed"
	default:
		return "empty"
	}
}

// Result is the outcome of applying a rule.
type Result struct {
	Value  string
	Status Status
}

// OK reports whether the rule produced a value.
func (r Result) OK() bool { return r.Status == Produced }

// Compiled is a rule with its pattern compiled and replacement validated.
type Compiled struct {
	rule        Rule
	re          *regexp.Regexp
	replacement string
	err         error
}

// Compile prepares r for repeated use. Compile never fails; a malformed rule
// is returned with Err set and every Apply yields a Malformed result.
func Compile(r Rule) *Compiled {
	c := &Compiled{rule: r}
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		c.err = fmt.Errorf("%w: pattern %q: %w", failure.ErrRule, r.Pattern, err)
		return c
	}
	c.re = re
	if r.Replacement != "" {
		expanded, err := translateReplacement(r.Replacement, re)
		if err != nil {
			c.err = fmt.Errorf("%w: replacement %q: %w", failure.ErrRule, r.Replacement, err)
			return c
		}
		c.replacement = expanded
	}
	return c
}

// CompileLogged compiles r and logs a warning tagged with name when the rule
// is malformed.
func CompileLogged(r Rule, name string, logger *slog.Logger) *Compiled {
	c := Compile(r)
	if c.err != nil {
		logging.WarnWithContext(logger, "rule is malformed; it will produce no values", "rule_invalid",
			logging.String(logging.FieldRule, name),
			logging.String("pattern", r.Pattern),
			logging.Error(c.err),
			logging.String(logging.FieldErrorHint, "fix the regular expression or replacement in the config"),
		)
	}
	return c
}

// Rule returns the declarative rule c was compiled from.
func (c *Compiled) Rule() Rule { return c.rule }

// Err returns the compile error for a malformed rule, or nil.
func (c *Compiled) Err() error { return c.err }

// Apply fills the rule's template from tokens and runs the regex step.
func (c *Compiled) Apply(tokens Map) Result {
	return c.ApplyTo(c.rule.Template, tokens)
}

// ApplyTo runs the rule against template instead of the rule's own template.
// Record key derivation and skip filters use this to feed a column value as
// the template.
func (c *Compiled) ApplyTo(template string, tokens Map) Result {
	if c == nil || c.err != nil {
		return Result{Status: Malformed}
	}
	filled := Fill(template, tokens)
	var value string
	if c.rule.Replacement != "" {
		value = c.re.ReplaceAllString(filled, c.replacement)
	} else {
		m := c.re.FindStringSubmatchIndex(filled)
		if len(m) >= 4 && m[2] >= 0 {
			value = filled[m[2]:m[3]]
		}
	}
	if value == "" {
		return Result{Status: Empty}
	}
	return Result{Value: value, Status: Produced}
}

// Evaluate is the one-shot form: compile, apply, and log when the rule is
// malformed. It returns "" for both empty and malformed outcomes.
func Evaluate(template string, tokens Map, pattern, replacement string, logger *slog.Logger) string {
	c := Compile(Rule{Template: template, Pattern: pattern, Replacement: replacement})
	if c.err != nil {
		logging.WarnWithContext(logger, "regex rule is malformed", "rule_invalid",
			logging.String("pattern", pattern),
			logging.Error(c.err),
		)
		return ""
	}
	return c.Apply(tokens).Value
}

// translateReplacement converts a replacement string into Go expansion syntax
// and checks every group reference against re.
func translateReplacement(repl string, re *regexp.Regexp) (string, error) {
	var b strings.Builder
	names := re.SubexpNames()
	checkIndex := func(idx int) error {
		if idx > re.NumSubexp() {
			return fmt.Errorf("invalid group reference %d", idx)
		}
		return nil
	}
	checkName := func(name string) error {
		for _, n := range names {
			if n != "" && n == name {
				return nil
			}
		}
		return fmt.Errorf("unknown group name %q", name)
	}

	for i := 0; i < len(repl); i++ {
		ch := repl[i]
		switch ch {
		case '$':
			ref, width, err := parseDollarRef(repl[i:])
			if err != nil {
				return "", err
			}
			if ref == "" {
				b.WriteString("$$")
				i += width - 1
				continue
			}
			if idx, convErr := strconv.Atoi(ref); convErr == nil {
				if err := checkIndex(idx); err != nil {
					return "", err
				}
			} else if err := checkName(ref); err != nil {
				return "", err
			}
			b.WriteString("${" + ref + "}")
			i += width - 1
		case '\\':
			if i+1 >= len(repl) {
				return "", fmt.Errorf("trailing backslash")
			}
			next := repl[i+1]
			switch {
			case next >= '0' && next <= '9':
				j := i + 1
				for j < len(repl) && j < i+3 && repl[j] >= '0' && repl[j] <= '9' {
					j++
				}
				idx, _ := strconv.Atoi(repl[i+1 : j])
				if err := checkIndex(idx); err != nil {
					return "", err
				}
				b.WriteString("${" + strconv.Itoa(idx) + "}")
				i = j - 1
			case next == 'g':
				end := strings.IndexByte(repl[i:], '>')
				if i+2 >= len(repl) || repl[i+2] != '<' || end < 0 {
					return "", fmt.Errorf("malformed \\g reference")
				}
				ref := repl[i+3 : i+end]
				if idx, convErr := strconv.Atoi(ref); convErr == nil {
					if err := checkIndex(idx); err != nil {
						return "", err
					}
				} else if err := checkName(ref); err != nil {
					return "", err
				}
				b.WriteString("${" + ref + "}")
				i += end
			case next == '\\':
				b.WriteByte('\\')
				i++
			case strings.IndexByte("ntrfvab", next) >= 0:
				b.WriteByte(controlEscapes[next])
				i++
			case next >= 'a' && next <= 'z' || next >= 'A' && next <= 'Z':
				return "", fmt.Errorf("bad escape \\%c", next)
			default:
				b.WriteByte('\\')
				b.WriteByte(next)
				i++
			}
		default:
			b.WriteByte(ch)
		}
	}
	return b.String(), nil
}

var controlEscapes = map[byte]byte{
	'n': '\n',
	't': '\t',
	'r': '\r',
	'f': '\f',
	'v': '\v',
	'a': '\a',
	'b': '\b',
}

// parseDollarRef reads a Go-style $name, $1 or ${name} reference at the start
// of s. An empty ref with width 1 means a literal dollar sign; "$$" yields an
// empty ref with width 2.
func parseDollarRef(s string) (string, int, error) {
	if len(s) < 2 {
		return "", 1, nil
	}
	if s[1] == '$' {
		return "", 2, nil
	}
	if s[1] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return "", 0, fmt.Errorf("unterminated ${ reference")
		}
		if end == 2 {
			return "", 0, fmt.Errorf("empty ${} reference")
		}
		return s[2:end], end + 1, nil
	}
	j := 1
	for j < len(s) && (s[j] == '_' || s[j] >= '0' && s[j] <= '9' || s[j] >= 'a' && s[j] <= 'z' || s[j] >= 'A' && s[j] <= 'Z') {
		j++
	}
	if j == 1 {
		return "", 1, nil
	}
	return s[1:j], j, nil
}
