package core

import (
	"errors"
	"sync"

	"tivago/protocol"
)

var ErrUnknownCommand = errors.New("unknown command")

// CommandHandler decodes its arguments from data and writes its response
// fields to out
type CommandHandler func(data *[]byte, out protocol.OutputBuffer) error

// Command is one bridge command and the shape of its reply
type Command struct {
	ID       uint16
	Name     string
	Format   string // argument format, e.g. "module=%c data=%*s"
	Response string // reply field format
	Handler  CommandHandler
}

// CommandRegistry holds the registered commands. IDs are assigned in
// registration order.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands []*Command
	nameToID map[string]uint16
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		nameToID: make(map[string]uint16),
	}
}

// Register adds a command and returns its ID. Registering a name twice
// returns the first ID.
func (r *CommandRegistry) Register(name, format, response string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := uint16(len(r.commands))
	r.commands = append(r.commands, &Command{
		ID:       id,
		Name:     name,
		Format:   format,
		Response: response,
		Handler:  handler,
	})
	r.nameToID[name] = id
	return id
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
}

// Lookup returns the ID registered for name
func (r *CommandRegistry) Lookup(name string) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	return id, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Commands returns the commands in ID order
func (r *CommandRegistry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Command(nil), r.commands...)
}

// Dispatch calls the handler registered under cmdID
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte, out protocol.OutputBuffer) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok || cmd.Handler == nil {
		return ErrUnknownCommand
	}
	return cmd.Handler(data, out)
}
