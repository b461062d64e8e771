package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/twardoch/zmarkdown/internal/config"
	"github.com/twardoch/zmarkdown/internal/db"
	"github.com/twardoch/zmarkdown/internal/mcp"
	"github.com/twardoch/zmarkdown/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"render": true, "fmt": true, "parse": true, "directives": true,
	"cache": true, "serve": true, "mcp": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	if len(arg) > 1 && arg[0] == '-' {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	title := color.New(color.FgCyan, color.Bold)
	title.Println(`
   _____ __  __ ____
  |_  / |  \/  |  _ \
   / /  | |\/| | | | |
  /___| |_|  |_|____/`)
	fmt.Println(`
  Markdown with directive blocks

  Usage: zmd <command> [options]
         zmd --help

  MCP server mode requires piped input.`)
}

// baseDir returns the global zmd directory, $ZMD_HOME or ~/.zmd.
func baseDir() (string, error) {
	if dir := os.Getenv("ZMD_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".zmd"), nil
}

// setup loads configuration, opens the render cache unless disabled, and
// builds the runtime shared by every command.
func setup() (*ops.Runtime, func(), error) {
	dir, err := baseDir()
	if err != nil {
		return nil, nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("could not determine working directory: %w", err)
	}

	cfg, err := config.LoadWithRepo(dir, cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	var database *sql.DB
	if !cfg.CacheDisabled {
		database, err = db.Init(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db.ConfigurePool(database, cfg)
	}

	cleanup := func() {
		if database != nil {
			database.Close()
		}
	}

	rt, err := ops.NewRuntime(database, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return rt, cleanup, nil
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Help and version need no runtime.
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode(os.Args) && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'zmd --help' for usage.\n")
		os.Exit(1)
	}

	rt, cleanup, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if isCLIMode(os.Args) {
		app := newCLIApp(rt)
		err = app.Run(os.Args)
	} else {
		// MCP server mode (default). Stdout carries the protocol.
		commonlog.Configure(0, nil)
		err = mcp.Run(rt, Version)
	}
	cleanup()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
