// fleetnc - multi-device NETCONF configuration controller CLI
//
// fleetnc wires the core's device handle store, schema inventory cache,
// shared spec interner, grammar synthesizer, and grammar reference resolver
// to a static fleet inventory, and exposes them through a noun-group
// command tree plus an interactive shell.
//
// Examples:
//
//	fleetnc device list
//	fleetnc device connect r1
//	fleetnc device show r1
//	fleetnc grammar resolve mountpoint --edit name=r1
//	fleetnc shell
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"

	"github.com/fleetnc/fleetnc/pkg/backend"
	"github.com/fleetnc/fleetnc/pkg/cli"
	"github.com/fleetnc/fleetnc/pkg/devicehandle"
	"github.com/fleetnc/fleetnc/pkg/devicestore"
	"github.com/fleetnc/fleetnc/pkg/fleetcfg"
	"github.com/fleetnc/fleetnc/pkg/grammar"
	"github.com/fleetnc/fleetnc/pkg/mountschema"
	"github.com/fleetnc/fleetnc/pkg/schemainv"
	"github.com/fleetnc/fleetnc/pkg/schemalist"
	"github.com/fleetnc/fleetnc/pkg/settings"
	"github.com/fleetnc/fleetnc/pkg/specintern"
	"github.com/fleetnc/fleetnc/pkg/util"
	"github.com/fleetnc/fleetnc/pkg/version"
)

// App holds state shared across every command, built once in
// PersistentPreRunE and torn down in PersistentPostRunE.
type App struct {
	// flags
	fleetPath      string
	fixturesPath   string
	eager          bool
	verbose        bool
	jsonOutput     bool

	settings *settings.Settings
	fleet    *fleetcfg.Fleet

	store     *devicestore.Store
	interner  *specintern.Interner
	runtime   grammar.Runtime
	synth     *grammar.Synthesizer
	resolver  *grammar.Resolver
	provider  *mountschema.Provider

	backend  backend.Backend
	notifSock backend.Socket
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "fleetnc",
	Short:         "Multi-device NETCONF configuration controller",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `fleetnc is a noun-group CLI over a multi-device NETCONF configuration
controller core: a device handle store, a per-device schema inventory
cache, a shared spec interner, and a grammar synthesizer/resolver pair
that keep one compiled grammar subtree per distinct device schema.

  fleetnc device list
  fleetnc device connect r1
  fleetnc grammar resolve mountpoint --edit name=r1
  fleetnc shell`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isHelpOrVersion(cmd) {
			return nil
		}

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			util.Logger.Warnf("could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}

		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if app.jsonOutput {
			util.SetJSONFormat()
		}

		app.fleet, err = fleetcfg.Load(app.fleetPath)
		if err != nil {
			return fmt.Errorf("loading fleet inventory: %w", err)
		}

		app.store = devicestore.New()
		app.interner = specintern.New()
		app.runtime = grammar.NewInMemoryRuntime()
		app.synth = grammar.NewSynthesizer(app.runtime, app.interner, schemalist.MetadataAdapter{})
		app.resolver = grammar.NewResolver(app.runtime, app.synth, grammar.StoreDeviceSource{Store: app.store})

		mem := backend.NewMemory()
		app.backend = mem
		app.provider = mountschema.New(&backendFetcher{backend: mem})

		if app.fixturesPath != "" {
			if err := loadFixtures(mem, app.fixturesPath); err != nil {
				return fmt.Errorf("loading schema fixtures: %w", err)
			}
		}

		ctx := context.Background()
		sock, err := app.backend.CreateSubscription(ctx, "controller-transaction")
		if err != nil {
			return fmt.Errorf("opening transaction subscription: %w", err)
		}
		app.notifSock = sock

		for _, name := range app.fleet.Names() {
			h, err := app.store.Create(name)
			if err != nil {
				util.WithDevice(name).Warnf("registering fleet device: %v", err)
				continue
			}
			// Re-synthesize this device's grammar instead of serving one
			// compiled from a now-stale inventory (spec §8 scenario 4).
			h.Schema().OnChange(func() { app.synth.Invalidate(name) })
		}

		if app.eager {
			connectAll(ctx)
			app.synth.EnsureAll(ctx, knownInventories())
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if isHelpOrVersion(cmd) || app.backend == nil {
			return nil
		}
		ctx := context.Background()
		if app.notifSock != nil {
			if err := app.backend.CloseNotification(ctx, app.notifSock); err != nil {
				util.Logger.Warnf("closing notification socket: %v", err)
			}
		}
		if err := app.backend.CloseGeneral(ctx); err != nil {
			util.Logger.Warnf("closing general socket: %v", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.fleetPath, "fleet", "f", "fleet.yaml", "Fleet inventory file")
	rootCmd.PersistentFlags().StringVar(&app.fixturesPath, "schema-fixtures", "", "YAML file seeding each device's yang-library module-set (demo/test use; real schema discovery arrives over the device transport)")
	rootCmd.PersistentFlags().BoolVarP(&app.eager, "eager", "g", false, "Eagerly synthesize every known device's grammar subtree at startup")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "JSON-formatted logs")

	rootCmd.AddCommand(deviceCmd, grammarCmd, mountschemaCmd, versionCmd, shellCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("fleetnc dev build")
		} else {
			fmt.Printf("fleetnc %s (%s)\n", version.Version, version.GitCommit)
		}
	},
}

// isHelpOrVersion skips the expensive fleet/backend wiring for commands that
// don't need it.
func isHelpOrVersion(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version":
			return true
		}
	}
	return false
}

// devicePath is the xpath convention used to key a device's entry in the
// backend (spec §6's get-config/get RPCs are xpath-scoped).
func devicePath(name string) string {
	return fmt.Sprintf("/devices/device[name='%s']/config", name)
}

// devicePB builds the gnmi.Path form of the same location, for callers into
// the mount-point schema provider (component G).
func devicePB(name string, rest ...string) *gnmipb.Path {
	elems := []*gnmipb.PathElem{
		{Name: "devices"},
		{Name: "device", Key: map[string]string{"name": name}},
	}
	for _, r := range rest {
		elems = append(elems, &gnmipb.PathElem{Name: r})
	}
	return &gnmipb.Path{Elem: elems}
}

// connectDevice drives one device's handle from Closed through schema
// discovery to Open, fetching its module-set from the backend and handing
// it to the schema inventory cache and the grammar synthesizer. The real
// wire exchange that would fill the cache as discovery messages arrive is
// out of scope for this core (spec §1); this stands in for it with a single
// backend.Get call.
func connectDevice(ctx context.Context, name string) (*devicehandle.DeviceHandle, error) {
	h, ok := app.store.Find(name)
	if !ok {
		return nil, fmt.Errorf("device %q is not in the fleet inventory", name)
	}
	cfg, _ := app.fleet.Find(name)
	kind, err := cfg.TransportKind()
	if err != nil {
		return nil, err
	}
	h.SetTransportKind(kind)
	h.SetState(devicehandle.Connecting)

	h.SetState(devicehandle.SchemaList)
	inv, err := app.backend.Get(ctx, devicePath(name))
	if err != nil {
		h.Close(err.Error())
		return nil, err
	}
	if inv == nil {
		h.Close("no schema advertised")
		return nil, fmt.Errorf("device %q advertised no schema", name)
	}
	if err := h.Schema().Set(inv); err != nil {
		h.Close(err.Error())
		return nil, err
	}

	h.SetState(devicehandle.Open)
	if _, err := app.synth.EnsureGrammarFor(ctx, name, inv); err != nil {
		util.WithDevice(name).Warnf("grammar synthesis failed: %v", err)
	}
	return h, nil
}

// connectAll connects every fleet device, logging and continuing past
// individual failures (same policy as Synthesizer.EnsureAll).
func connectAll(ctx context.Context) {
	for _, name := range app.fleet.Names() {
		if _, err := connectDevice(ctx, name); err != nil {
			util.WithDevice(name).Warnf("connect failed: %v", err)
		}
	}
}

// knownInventories collects the schema inventory of every device currently
// holding one, for EnsureAll's eager pre-expansion.
func knownInventories() map[string]*schemainv.Inventory {
	out := make(map[string]*schemainv.Inventory)
	app.store.Iterate(func(h *devicehandle.DeviceHandle) bool {
		if inv := h.Schema().Get(); len(inv.Modules) > 0 {
			out[h.Name()] = inv
		}
		return true
	})
	return out
}

func green(s string) string { return cli.Green(s) }
func red(s string) string   { return cli.Red(s) }
func dim(s string) string   { return cli.Dim(s) }
