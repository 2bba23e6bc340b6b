// Command lspcore-server is the Language Server Protocol entrypoint for
// DWScript. It wires internal/config and internal/server together behind a
// cobra CLI, grounded on bennypowers-cem's cmd/root.go + cmd/lsp.go split and
// the teacher's original cmd/go-dws-lsp/main.go transport/log flags.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polylsp/polylsp/internal/config"
	"github.com/polylsp/polylsp/internal/server"
)

var version = "0.1.0"

var (
	tcpAddress string
	pipePath   string
	useStdio   bool
	configPath string
	logLevel   string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "lspcore-server",
	Short: "Language Server Protocol server for DWScript",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the language server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the server version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("lspcore-server version %s\n", version)
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&useStdio, "stdio", false, "serve over standard input/output (default)")
	serveCmd.Flags().StringVar(&tcpAddress, "tcp", "", "serve over TCP at the given address (e.g. 127.0.0.1:8765)")
	serveCmd.Flags().StringVar(&pipePath, "pipe", "", "serve over a Unix domain socket at the given path")
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	serveCmd.Flags().StringVar(&logFile, "log-file", "", "log file path (default: stderr, overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	flagCount := 0
	if useStdio {
		flagCount++
	}
	if tcpAddress != "" {
		flagCount++
	}
	if pipePath != "" {
		flagCount++
	}
	if flagCount > 1 {
		return fmt.Errorf("only one of --stdio, --tcp, --pipe may be specified")
	}

	v, err := config.New(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}

	d, err := server.New(cfg, logLevel == "debug")
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	switch {
	case tcpAddress != "":
		return d.RunTCP(tcpAddress)
	case pipePath != "":
		return d.RunPipe(pipePath)
	default:
		return d.RunStdio()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
