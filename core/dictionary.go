package core

import (
	"slices"
	"sync"
)

// Dictionary describes the firmware to the host: version, board constants
// and the command table. The host fetches it in chunks with identify.
type Dictionary struct {
	mu         sync.RWMutex
	constants  map[string]string
	commandReg *CommandRegistry
	version    string
	board      string
	cached     []byte
}

// NewDictionary creates a dictionary over cmdReg
func NewDictionary(cmdReg *CommandRegistry, version, board string) *Dictionary {
	return &Dictionary{
		constants:  make(map[string]string),
		commandReg: cmdReg,
		version:    version,
		board:      board,
	}
}

// AddConstant adds a constant; the cached dictionary is rebuilt on next use
func (d *Dictionary) AddConstant(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = value
	d.cached = nil
}

// Generate returns the dictionary as JSON
func (d *Dictionary) Generate() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cached == nil {
		d.cached = d.buildJSON()
	}
	return d.cached
}

// Chunk returns up to count bytes of the dictionary starting at offset. An
// empty chunk marks the end.
func (d *Dictionary) Chunk(offset uint32, count uint8) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return nil
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	return data[offset:end]
}

func appendJSONString(b []byte, s string) []byte {
	b = append(b, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			b = append(b, '\\')
		}
		b = append(b, c)
	}
	return append(b, '"')
}

// buildJSON writes the dictionary by hand; encoding/json is too heavy for
// the firmware image. Caller holds the lock.
func (d *Dictionary) buildJSON() []byte {
	b := make([]byte, 0, 1024)
	b = append(b, `{"version":`...)
	b = appendJSONString(b, d.version)
	b = append(b, `,"board":`...)
	b = appendJSONString(b, d.board)

	b = append(b, `,"constants":{`...)
	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	slices.Sort(names)
	for i, name := range names {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendJSONString(b, name)
		b = append(b, ':')
		b = appendJSONString(b, d.constants[name])
	}

	cmds := d.commandReg.Commands()
	b = append(b, `},"commands":{`...)
	for i, c := range cmds {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendJSONString(b, joinFormat(c.Name, c.Format))
		b = append(b, ':')
		b = append(b, utoa(uint32(c.ID))...)
	}
	b = append(b, `},"responses":{`...)
	for i, c := range cmds {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendJSONString(b, joinFormat(c.Name+"_response", c.Response))
		b = append(b, ':')
		b = append(b, utoa(uint32(c.ID))...)
	}
	return append(b, "}}"...)
}

func joinFormat(name, format string) string {
	if format == "" {
		return name
	}
	return name + " " + format
}
