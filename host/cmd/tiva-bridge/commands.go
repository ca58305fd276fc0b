package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"tivago/host/bridge"
)

var errQuit = errors.New("quit")

type shell struct {
	client *bridge.Client
	cfg    *Config
	out    io.Writer
}

type shellCommand struct {
	usage string
	run   func(sh *shell, ctx context.Context, args []string) error
}

// shellCommands is filled in init: help refers back to it
var shellCommands map[string]shellCommand

func init() {
	shellCommands = map[string]shellCommand{
		"help":         {"", (*shell).help},
		"dict":         {"", (*shell).dict},
		"raw":          {"", (*shell).raw},
		"spi":          {"<hex bytes> [module]", (*shell).spi},
		"spi_config":   {"<clock hz> <mode 0-3> <msb|lsb> [module]", (*shell).spiConfig},
		"i2c_write":    {"<addr> <hex bytes> [module]", (*shell).i2cWrite},
		"i2c_read":     {"<addr> <count> [module]", (*shell).i2cRead},
		"servo_attach": {"<pin> [min us] [max us]", (*shell).servoAttach},
		"servo_write":  {"<index> <angle or us>", (*shell).servoWrite},
		"servo_detach": {"<index>", (*shell).servoDetach},
		"eth":          {"", (*shell).eth},
		"quit":         {"", func(*shell, context.Context, []string) error { return errQuit }},
	}
}

// run executes one input line
func (sh *shell) run(ctx context.Context, line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse %q: %w", line, err)
	}
	if len(words) == 0 {
		return nil
	}
	name := words[0]
	switch name {
	case "exit", "q":
		name = "quit"
	case "?":
		name = "help"
	}
	cmd, ok := shellCommands[name]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", words[0])
	}
	return cmd.run(sh, ctx, words[1:])
}

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return v, nil
}

// parseBytes accepts hex with optional spaces, colons or a 0x prefix
func parseBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("bad hex %q", s)
	}
	return b, nil
}

func (sh *shell) module(args []string, i int, def uint8) (uint8, error) {
	if len(args) <= i {
		return def, nil
	}
	v, err := parseUint(args[i], 8)
	return uint8(v), err
}

func need(args []string, n int, name string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s %s", name, shellCommands[name].usage)
	}
	return nil
}

func (sh *shell) help(context.Context, []string) error {
	names := make([]string, 0, len(shellCommands))
	for name := range shellCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(sh.out, "Available commands:")
	for _, name := range names {
		fmt.Fprintf(sh.out, "  %-13s %s\n", name, shellCommands[name].usage)
	}
	return nil
}

func (sh *shell) dict(context.Context, []string) error {
	d := sh.client.Dictionary()
	if d == nil {
		return bridge.ErrNoDictionary
	}
	fmt.Fprintf(sh.out, "Board: %s  Version: %s\n", d.Board, d.Version)
	keys := make([]string, 0, len(d.Constants))
	for k := range d.Constants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(sh.out, "  %s = %s\n", k, d.Constants[k])
	}
	cmds := make([]string, 0, len(d.Commands))
	for k := range d.Commands {
		cmds = append(cmds, k)
	}
	sort.Slice(cmds, func(i, j int) bool { return d.Commands[cmds[i]] < d.Commands[cmds[j]] })
	for _, k := range cmds {
		fmt.Fprintf(sh.out, "  [%d] %s\n", d.Commands[k], k)
	}
	return nil
}

func (sh *shell) raw(context.Context, []string) error {
	raw := sh.client.RawDictionary()
	fmt.Fprintf(sh.out, "Raw dictionary data (%d bytes):\n%s\n", len(raw), raw)
	return nil
}

func (sh *shell) spi(ctx context.Context, args []string) error {
	if err := need(args, 1, "spi"); err != nil {
		return err
	}
	tx, err := parseBytes(args[0])
	if err != nil {
		return err
	}
	module, err := sh.module(args, 1, sh.cfg.SPIModule)
	if err != nil {
		return err
	}
	rx, err := sh.client.SPITransfer(ctx, module, tx)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "rx: % x\n", rx)
	return nil
}

func (sh *shell) spiConfig(ctx context.Context, args []string) error {
	if err := need(args, 3, "spi_config"); err != nil {
		return err
	}
	clock, err := parseUint(args[0], 32)
	if err != nil {
		return err
	}
	mode, err := parseUint(args[1], 8)
	if err != nil || mode > 3 {
		return fmt.Errorf("bad mode %q", args[1])
	}
	var order uint8
	switch args[2] {
	case "msb":
		order = 1
	case "lsb":
	default:
		return fmt.Errorf("bad bit order %q", args[2])
	}
	module, err := sh.module(args, 3, sh.cfg.SPIModule)
	if err != nil {
		return err
	}
	// SPI_MODE0..3 are 0x00, 0x80, 0x40, 0xC0 on the wire
	modes := [4]uint8{0x00, 0x80, 0x40, 0xC0}
	return sh.client.SPIConfig(ctx, module, uint32(clock), modes[mode], order)
}

func (sh *shell) i2cWrite(ctx context.Context, args []string) error {
	if err := need(args, 2, "i2c_write"); err != nil {
		return err
	}
	addr, err := parseUint(args[0], 7)
	if err != nil {
		return err
	}
	data, err := parseBytes(args[1])
	if err != nil {
		return err
	}
	module, err := sh.module(args, 2, sh.cfg.I2CModule)
	if err != nil {
		return err
	}
	status, err := sh.client.I2CWrite(ctx, module, uint8(addr), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "status: %d\n", status)
	return nil
}

func (sh *shell) i2cRead(ctx context.Context, args []string) error {
	if err := need(args, 2, "i2c_read"); err != nil {
		return err
	}
	addr, err := parseUint(args[0], 7)
	if err != nil {
		return err
	}
	count, err := parseUint(args[1], 8)
	if err != nil {
		return err
	}
	module, err := sh.module(args, 2, sh.cfg.I2CModule)
	if err != nil {
		return err
	}
	data, err := sh.client.I2CRead(ctx, module, uint8(addr), uint8(count))
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "data: % x\n", data)
	return nil
}

func (sh *shell) servoAttach(ctx context.Context, args []string) error {
	if err := need(args, 1, "servo_attach"); err != nil {
		return err
	}
	vals := make([]uint32, 3)
	for i, a := range args[:min(len(args), 3)] {
		v, err := parseUint(a, 32)
		if err != nil {
			return err
		}
		vals[i] = uint32(v)
	}
	idx, err := sh.client.ServoAttach(ctx, uint8(vals[0]), vals[1], vals[2])
	if err != nil {
		return err
	}
	if idx == 255 {
		return errors.New("no servo slot or invalid pin")
	}
	fmt.Fprintf(sh.out, "servo: %d\n", idx)
	return nil
}

func (sh *shell) servoWrite(ctx context.Context, args []string) error {
	if err := need(args, 2, "servo_write"); err != nil {
		return err
	}
	idx, err := parseUint(args[0], 8)
	if err != nil {
		return err
	}
	v, err := parseUint(args[1], 32)
	if err != nil {
		return err
	}
	us, err := sh.client.ServoWrite(ctx, uint8(idx), uint32(v))
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "pulse: %d us\n", us)
	return nil
}

func (sh *shell) servoDetach(ctx context.Context, args []string) error {
	if err := need(args, 1, "servo_detach"); err != nil {
		return err
	}
	idx, err := parseUint(args[0], 8)
	if err != nil {
		return err
	}
	return sh.client.ServoDetach(ctx, uint8(idx))
}

func (sh *shell) eth(ctx context.Context, _ []string) error {
	info, err := sh.client.EthInfo(ctx)
	if err != nil {
		return err
	}
	link := "down"
	if info.Link {
		link = "up"
	}
	fmt.Fprintf(sh.out, "link %s  mac %s\n", link, info.MAC)
	fmt.Fprintf(sh.out, "ip %s  gateway %s  subnet %s  dns %s\n", info.IP, info.Gateway, net4(info.Subnet), info.DNS)
	return nil
}

func net4(m []byte) string {
	if len(m) != 4 {
		return "?"
	}
	return fmt.Sprintf("%d.%d.%d.%d", m[0], m[1], m[2], m[3])
}
