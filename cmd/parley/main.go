package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/five82/parley/internal/app"
	"github.com/five82/parley/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "parley: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:           "parley",
		Short:         "A terminal IRC client with safe DCC file transfers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return errors.New("standard output is not a terminal")
			}
			return app.Run(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.Flags().StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/parley/prefs.toml)")
	root.Flags().StringSliceVar(&opts.Connect, "connect", nil, "connect to these configured servers at startup")

	root.AddCommand(newCheckCmd(&opts))
	return root
}

// newCheckCmd validates the configuration without starting the UI.
func newCheckCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration file and print the resolved servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "download dir: %s\n", cfg.DCC.DownloadDir)
			fmt.Fprintf(out, "max file size: %d bytes\n", cfg.DCC.MaxFileSize)
			if len(cfg.Servers) == 0 {
				fmt.Fprintln(out, "no servers configured")
			}
			for _, s := range cfg.Servers {
				tls := "plain"
				if s.TLS {
					tls = "tls"
				}
				fmt.Fprintf(out, "server %s: %s:%d (%s) as %s\n", s.Name, s.Host, s.Port, tls, s.Nickname)
			}
			return nil
		},
	}
}
