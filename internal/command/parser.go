package command

import (
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	// DefaultPrefix is the agent-command prefix character.
	DefaultPrefix = 'p'

	// DefaultContextLines is the scrollback depth attached to commands.
	DefaultContextLines = 100

	// maxContextLines bounds the scrollback attached to any one command.
	maxContextLines = 200

	// maxTokens is the upper bound accepted for --tokens.
	maxTokens = 100_000

	// maxTemperature is the upper bound accepted for --temp.
	maxTemperature = 2.0
)

// Options configures a Parser. Zero values select the defaults.
type Options struct {
	// Prefix is the command prefix character. Default 'p'.
	Prefix rune

	// ContextLines is how many scrollback lines to attach. Default 100,
	// hard cap 200.
	ContextLines int

	// IncludeEnv attaches the whitelisted environment variables.
	IncludeEnv bool
}

// Parser classifies input lines as terminal passthrough or agent
// commands, and parses the latter. It also owns the scrollback window
// used for context snapshots.
type Parser struct {
	prefix       rune
	contextLines int
	includeEnv   bool

	mu         sync.Mutex
	scrollback []string
}

// NewParser returns a parser with the given options.
func NewParser(opts Options) *Parser {
	if opts.Prefix == 0 {
		opts.Prefix = DefaultPrefix
	}
	if opts.ContextLines <= 0 {
		opts.ContextLines = DefaultContextLines
	}
	if opts.ContextLines > maxContextLines {
		opts.ContextLines = maxContextLines
	}
	return &Parser{
		prefix:       opts.Prefix,
		contextLines: opts.ContextLines,
		includeEnv:   opts.IncludeEnv,
	}
}

// Prefix returns the configured prefix character.
func (p *Parser) Prefix() rune { return p.prefix }

// Parse classifies one logical line. Lines that do not begin with the
// prefix character followed by a space or end-of-line pass through as
// KindTerminal, verbatim and without allocation. Prefixed lines parse
// as agent commands; a malformed one returns a *ParseError.
func (p *Parser) Parse(line string) (Command, error) {
	body, ok := p.stripPrefix(line)
	if !ok {
		return Terminal(line), nil
	}
	agent, err := p.ParseAgent(body)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: KindAgent, Agent: agent}, nil
}

// stripPrefix reports whether line starts an agent command and returns
// the body after the prefix. The prefix counts only at index 0 and only
// when followed by a space or nothing.
func (p *Parser) stripPrefix(line string) (string, bool) {
	r, size := utf8.DecodeRuneInString(line)
	if size == 0 || r != p.prefix {
		return "", false
	}
	if len(line) == size {
		return "", true
	}
	if line[size] != ' ' {
		return "", false
	}
	return line[size:], true
}

// ParseAgent parses the body of an agent command (the text after the
// prefix character). Flags may appear in any order before the prompt;
// everything after the last flag value is the prompt.
func (p *Parser) ParseAgent(body string) (*Agent, error) {
	agent := &Agent{}

	i := 0
	for {
		i = skipSpaces(body, i)
		if i >= len(body) || !strings.HasPrefix(body[i:], "--") {
			break
		}

		j := i + 2
		start := j
		for j < len(body) && body[j] != '=' && body[j] != ' ' && body[j] != '\t' {
			j++
		}
		name := body[start:j]

		var value string
		haveValue := false
		if j < len(body) && body[j] == '=' {
			var err error
			value, j, err = scanValue(body, j+1)
			if err != nil {
				return nil, err
			}
			haveValue = true
		} else {
			k := skipSpaces(body, j)
			if k < len(body) && !strings.HasPrefix(body[k:], "--") {
				var err error
				value, j, err = scanValue(body, k)
				if err != nil {
					return nil, err
				}
				haveValue = true
			} else {
				j = k
			}
		}

		if err := agent.applyFlag(name, value, haveValue); err != nil {
			return nil, err
		}
		i = j
	}

	agent.Prompt = strings.TrimSpace(body[i:])
	if agent.Prompt == "" {
		return nil, &ParseError{Kind: KindMissingArgument, Arg: "prompt"}
	}

	agent.Context = collectContext(p.includeEnv, p.snapshotScrollback(), p.contextLines)
	return agent, nil
}

// applyFlag validates and stores one --flag value.
func (a *Agent) applyFlag(name, value string, haveValue bool) error {
	switch name {
	case "model":
		if !haveValue || value == "" {
			return &ParseError{Kind: KindMissingArgument, Arg: "model"}
		}
		a.ModelOverride = value
	case "temp":
		if !haveValue || value == "" {
			return &ParseError{Kind: KindMissingArgument, Arg: "temp"}
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &ParseError{Kind: KindInvalidValue, Arg: "temp"}
		}
		if f < 0 || f > maxTemperature {
			return &ParseError{Kind: KindOutOfRange, Arg: "temp"}
		}
		a.Temperature = &f
	case "tokens":
		if !haveValue || value == "" {
			return &ParseError{Kind: KindMissingArgument, Arg: "tokens"}
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return &ParseError{Kind: KindInvalidValue, Arg: "tokens"}
		}
		if n <= 0 || n > maxTokens {
			return &ParseError{Kind: KindOutOfRange, Arg: "tokens"}
		}
		a.MaxTokens = &n
	default:
		return &ParseError{Kind: KindUnknownFlag, Arg: name}
	}
	return nil
}

// skipSpaces advances i past spaces and tabs.
func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// scanValue reads one flag value starting at i: a quoted string with
// backslash escapes, or a bare word ending at whitespace. It returns the
// value and the index just past it.
func scanValue(s string, i int) (string, int, error) {
	if i < len(s) && (s[i] == '"' || s[i] == '\'') {
		quote := s[i]
		var b strings.Builder
		j := i + 1
		for j < len(s) {
			c := s[j]
			if c == '\\' && j+1 < len(s) {
				switch s[j+1] {
				case '\\', '"', '\'':
					b.WriteByte(s[j+1])
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				case 'r':
					b.WriteByte('\r')
				default:
					b.WriteByte(c)
					b.WriteByte(s[j+1])
				}
				j += 2
				continue
			}
			if c == quote {
				return b.String(), j + 1, nil
			}
			b.WriteByte(c)
			j++
		}
		return "", 0, &ParseError{Kind: KindUnterminatedQuote}
	}

	j := i
	for j < len(s) && s[j] != ' ' && s[j] != '\t' {
		j++
	}
	return s[i:j], j, nil
}

// UpdateScrollback appends shell output lines to the context window.
// Retention is twice the configured context depth, so a snapshot always
// has a full window available without unbounded growth.
func (p *Parser) UpdateScrollback(lines []string) {
	if len(lines) == 0 {
		return
	}
	limit := 2 * p.contextLines

	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrollback = append(p.scrollback, lines...)
	if n := len(p.scrollback); n > limit {
		p.scrollback = append(p.scrollback[:0], p.scrollback[n-limit:]...)
	}
}

// snapshotScrollback copies the current scrollback window.
func (p *Parser) snapshotScrollback() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.scrollback) == 0 {
		return nil
	}
	return append([]string(nil), p.scrollback...)
}
