package command

import (
	"sort"
	"strings"
	"sync"
)

// Definition describes a named builtin command for help rendering.
// Builtins do not change parsing; they exist so the host can answer
// "help" locally instead of round-tripping through the agent.
type Definition struct {
	Name        string
	Description string
	Syntax      string
	Examples    []string
}

// Registry holds command definitions for help text.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry returns a registry seeded with the builtin commands.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	for _, def := range builtinDefinitions {
		r.defs[def.Name] = def
	}
	return r
}

var builtinDefinitions = []Definition{
	{
		Name:        "help",
		Description: "Show available commands or detail for one command",
		Syntax:      "help [command]",
		Examples:    []string{"help", "help model"},
	},
	{
		Name:        "run",
		Description: "Run a shell command and attach its output to the next prompt",
		Syntax:      "run <command>",
		Examples:    []string{"run ls -la"},
	},
	{
		Name:        "config",
		Description: "Show the active configuration",
		Syntax:      "config",
		Examples:    []string{"config"},
	},
	{
		Name:        "model",
		Description: "Show or switch the session model",
		Syntax:      "model [name]",
		Examples:    []string{"model", "model gpt-4"},
	},
	{
		Name:        "clear",
		Description: "Clear the conversation context",
		Syntax:      "clear",
		Examples:    []string{"clear"},
	},
	{
		Name:        "exit",
		Description: "Leave the agent session",
		Syntax:      "exit",
		Examples:    []string{"exit"},
	},
}

// Register adds or replaces a definition.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
}

// Lookup returns the definition for a command name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns all registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HelpText renders help for one command, or the command overview when
// name is empty. Unknown names get a pointer back to the overview.
func (r *Registry) HelpText(name string) string {
	var b strings.Builder

	if name == "" {
		b.WriteString("Available commands:\n")
		for _, n := range r.Names() {
			def, _ := r.Lookup(n)
			b.WriteString("  ")
			b.WriteString(def.Name)
			for i := len(def.Name); i < 10; i++ {
				b.WriteByte(' ')
			}
			b.WriteString(def.Description)
			b.WriteByte('\n')
		}
		return b.String()
	}

	def, ok := r.Lookup(name)
	if !ok {
		return "Unknown command " + name + ". Try \"help\" for the full list.\n"
	}

	b.WriteString(def.Name)
	b.WriteString(" - ")
	b.WriteString(def.Description)
	b.WriteString("\nSyntax: ")
	b.WriteString(def.Syntax)
	b.WriteByte('\n')
	if len(def.Examples) > 0 {
		b.WriteString("Examples:\n")
		for _, ex := range def.Examples {
			b.WriteString("  ")
			b.WriteString(ex)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
