package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fleetnc/fleetnc/pkg/devicehandle"
	"github.com/fleetnc/fleetnc/pkg/transport"
)

var deviceSSHCheckCmd = &cobra.Command{
	Use:   "ssh-check <device>",
	Short: "Open and immediately close an SSH session to an ssh-transport device",
	Long: `ssh-check dials the fleet entry's SSH address and starts its remote
command, confirming the SSHSubprocess transport is reachable before a real
connect attempt binds a DeviceHandle to it. It never touches the schema
inventory cache or grammar synthesis.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, ok := app.fleet.Find(name)
		if !ok {
			return fmt.Errorf("unknown device %q", name)
		}
		kind, err := cfg.TransportKind()
		if err != nil {
			return err
		}
		if kind != devicehandle.SSHSubprocess {
			return fmt.Errorf("device %q is not configured for ssh transport", name)
		}

		password := cfg.Password
		if password == "" {
			password, err = promptPassword(fmt.Sprintf("Password for %s@%s: ", cfg.User, cfg.Address))
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
		}

		dialer := transport.NewSSHDialer()
		remoteCmd := cfg.RemoteCmd
		if remoteCmd == "" {
			remoteCmd = "netconf"
		}
		sess, err := dialer.Dial(cfg.Address, cfg.User, password, remoteCmd)
		if err != nil {
			return fmt.Errorf("ssh-check failed: %w", err)
		}
		defer sess.Close()

		fmt.Println(green("ssh session established: stdin/stdout/stderr pipes ready"))
		return nil
	},
}

func init() {
	deviceCmd.AddCommand(deviceSSHCheckCmd)
}

// promptPassword reads a password from the controlling terminal without
// echoing it, the same way pkg/cli/table.go already reaches for
// golang.org/x/term to inspect the terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
