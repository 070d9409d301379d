package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fleetnc/fleetnc/pkg/cli"
	"github.com/fleetnc/fleetnc/pkg/devicehandle"
	"github.com/fleetnc/fleetnc/pkg/grammar"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Inspect and connect fleet devices",
}

var deviceListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List every device in the fleet inventory",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		t := cli.NewTable("DEVICE", "TRANSPORT", "STATE", "MODULES")
		for _, name := range app.fleet.Names() {
			cfg, _ := app.fleet.Find(name)
			state := "-"
			modules := "-"
			if h, ok := app.store.Find(name); ok {
				state = formatState(h.State())
				modules = fmt.Sprintf("%d", len(h.Schema().Get().Modules))
			}
			t.Row(name, cfg.Transport, state, modules)
		}
		t.Flush()
		return nil
	},
}

var deviceConnectCmd = &cobra.Command{
	Use:   "connect <device>",
	Short: "Connect a device and synthesize its grammar subtree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := connectDevice(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s connected: %s (%d modules)\n", args[0], green(formatState(h.State())), len(h.Schema().Get().Modules))
		return nil
	},
}

var deviceShowCmd = &cobra.Command{
	Use:   "show <device>",
	Short: "Show a device's state and schema inventory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, ok := app.store.Find(args[0])
		if !ok {
			return fmt.Errorf("unknown device %q", args[0])
		}
		fmt.Printf("Device:    %s\n", args[0])
		fmt.Printf("State:     %s\n", formatState(h.State()))
		fmt.Printf("Transport: %s\n", h.TransportKind())
		if reason := h.FailureReason(); reason != "" {
			fmt.Printf("Failure:   %s\n", red(reason))
		}
		inv := h.Schema().Get()
		fmt.Printf("Modules:   %d\n", len(inv.Modules))
		for _, m := range inv.Modules {
			fmt.Printf("  %s@%s\n", m.Name, dash(m.Revision))
		}
		return nil
	},
}

var grammarCmd = &cobra.Command{
	Use:   "grammar",
	Short: "Query the grammar reference resolver",
}

var grammarEditFlags []string

var grammarResolveCmd = &cobra.Command{
	Use:   "resolve <reference> [token...]",
	Short: "Resolve a grammar reference against the current edit context",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		tokens := args[1:]

		editCtx, err := parseEditContext(grammarEditFlags)
		if err != nil {
			return err
		}

		resolved, ok, err := app.resolver.Resolve(context.Background(), name, tokens, editCtx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("unresolved: %s (left as-is)\n", name)
			return nil
		}
		fmt.Printf("%s -> %s\n", name, green(resolved))
		return nil
	},
}

func init() {
	grammarResolveCmd.Flags().StringArrayVar(&grammarEditFlags, "edit", nil, "edit-context field as name=value (repeatable)")

	deviceCmd.AddCommand(deviceListCmd, deviceConnectCmd, deviceShowCmd)
	grammarCmd.AddCommand(grammarResolveCmd)
}

var mountschemaCmd = &cobra.Command{
	Use:   "mountschema",
	Short: "Query the mount-point schema provider",
}

var mountschemaShowCmd = &cobra.Command{
	Use:   "show <device>",
	Short: "Provide the mount module-set schema for a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := app.provider.Provide(context.Background(), devicePB(args[0]))
		if err != nil {
			return err
		}
		switch {
		case res.NoSchema:
			fmt.Println("no schema: not a device mount point, or no mount module-set advertised")
		case res.Unknown:
			fmt.Println("unknown: reentrant call")
		default:
			fmt.Printf("validity=%s writable=%s modules=%d\n", res.Validity, res.Writable, len(res.Inventory.Modules))
		}
		return nil
	},
}

func init() {
	mountschemaCmd.AddCommand(mountschemaShowCmd)
}

// parseEditContext turns repeated "name=value" flags into an EditContext.
func parseEditContext(fields []string) (grammar.EditContext, error) {
	ctx := make(grammar.EditContext, 0, len(fields))
	for _, f := range fields {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("--edit %q: expected name=value", f)
		}
		ctx = append(ctx, grammar.EditField{Name: parts[0], Value: parts[1]})
	}
	return ctx, nil
}

func formatState(s devicehandle.ConnState) string {
	switch s {
	case devicehandle.Open:
		return green(s.String())
	case devicehandle.Closed:
		return dim(s.String())
	default:
		return s.String()
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
