package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fleetnc/fleetnc/pkg/grammar"
)

// Shell is an interactive REPL over the controller core: connect devices,
// inspect their schema, and resolve grammar references, all against the
// same store/synthesizer/resolver the noun-group commands use. Descended
// from the structure of the teacher's device shell (prompt/reader loop,
// a name-to-handler command map) but schema-driven rather than menu-driven:
// there is no fixed command set per device type, because the grammar
// resolver is what decides which grammar subtree applies.
type Shell struct {
	reader   *bufio.Reader
	current  string // selected device name, "" = none
	commands map[string]func(args []string)
}

// NewShell creates a shell with no device selected.
func NewShell() *Shell {
	s := &Shell{reader: bufio.NewReader(os.Stdin)}
	s.commands = map[string]func(args []string){
		"devices":  func([]string) { s.cmdDevices() },
		"use":      s.cmdUse,
		"connect":  s.cmdConnect,
		"show":     func([]string) { s.cmdShow() },
		"resolve":  s.cmdResolve,
		"help":     func([]string) { s.cmdHelp() },
		"?":        func([]string) { s.cmdHelp() },
	}
	return s
}

// Run starts the REPL loop.
func (s *Shell) Run() error {
	fmt.Println("fleetnc interactive shell. Type 'help' for available commands.")
	for {
		fmt.Print(s.prompt())
		line, err := s.reader.ReadString('\n')
		if err != nil { // EOF
			fmt.Println("\nDisconnecting...")
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		args := strings.Fields(line)
		cmd := args[0]
		switch cmd {
		case "quit", "exit", "q":
			return nil
		default:
			if fn, ok := s.commands[cmd]; ok {
				fn(args[1:])
			} else {
				fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
			}
		}
	}
}

func (s *Shell) prompt() string {
	if s.current == "" {
		return "fleetnc> "
	}
	return fmt.Sprintf("fleetnc:%s> ", s.current)
}

func (s *Shell) cmdDevices() {
	for _, name := range app.fleet.Names() {
		state := "-"
		if h, ok := app.store.Find(name); ok {
			state = formatState(h.State())
		}
		marker := "  "
		if name == s.current {
			marker = "* "
		}
		fmt.Printf("%s%-20s %s\n", marker, name, state)
	}
}

func (s *Shell) cmdUse(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: use <device>")
		return
	}
	if _, ok := app.store.Find(args[0]); !ok {
		fmt.Printf("unknown device: %s\n", args[0])
		return
	}
	s.current = args[0]
}

func (s *Shell) cmdConnect(args []string) {
	name := s.current
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		fmt.Println("Usage: connect <device> (or 'use <device>' first)")
		return
	}
	h, err := connectDevice(context.Background(), name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	s.current = name
	fmt.Printf("%s connected: %s (%d modules)\n", name, green(formatState(h.State())), len(h.Schema().Get().Modules))
}

func (s *Shell) cmdShow() {
	if s.current == "" {
		fmt.Println("No device selected. Use 'use <device>' first.")
		return
	}
	h, ok := app.store.Find(s.current)
	if !ok {
		fmt.Printf("unknown device: %s\n", s.current)
		return
	}
	fmt.Printf("State:     %s\n", formatState(h.State()))
	fmt.Printf("Transport: %s\n", h.TransportKind())
	inv := h.Schema().Get()
	fmt.Printf("Modules:   %d\n", len(inv.Modules))
	for _, m := range inv.Modules {
		fmt.Printf("  %s@%s\n", m.Name, dash(m.Revision))
	}
}

func (s *Shell) cmdResolve(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: resolve <reference> [token...]")
		return
	}
	editCtx, err := parseEditContext(nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if s.current != "" {
		editCtx = append(editCtx, grammar.EditField{Name: "name", Value: s.current})
	}
	resolved, ok, err := app.resolver.Resolve(context.Background(), args[0], args[1:], editCtx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if !ok {
		fmt.Printf("unresolved: %s (left as-is)\n", args[0])
		return
	}
	fmt.Printf("%s -> %s\n", args[0], green(resolved))
}

func (s *Shell) cmdHelp() {
	fmt.Println("Commands:")
	fmt.Println("  devices             List fleet devices and their state")
	fmt.Println("  use <device>        Select a device without connecting")
	fmt.Println("  connect [device]    Connect the selected (or named) device")
	fmt.Println("  show                Show the selected device's state and schema")
	fmt.Println("  resolve <ref> [..]  Resolve a grammar reference")
	fmt.Println("  quit                Leave the shell")
	fmt.Println("  help                Show this help")
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell over the controller core",
	RunE: func(cmd *cobra.Command, args []string) error {
		return NewShell().Run()
	},
}
