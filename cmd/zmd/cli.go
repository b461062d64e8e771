package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"
	"github.com/urfave/cli/v2"

	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/mcp"
	"github.com/twardoch/zmarkdown/internal/ops"
	"github.com/twardoch/zmarkdown/internal/processor"
	"github.com/twardoch/zmarkdown/internal/web"
)

var errorColor = color.New(color.FgRed, color.Bold)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(rt *ops.Runtime) *cli.App {
	app := &cli.App{
		Name:    "zmd",
		Usage:   "Markdown with directive blocks",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "verbosity", Usage: "Log verbosity (-1 quiet, 0 notices, 1 info, 2 debug)"},
			&cli.StringFlag{Name: "log-file", Usage: "Write logs to this file instead of stderr"},
		},
		Before: func(c *cli.Context) error {
			if path := c.String("log-file"); path != "" {
				commonlog.Configure(c.Int("verbosity"), &path)
			} else {
				commonlog.Configure(c.Int("verbosity"), nil)
			}
			return nil
		},
		Commands: []*cli.Command{
			renderCmd(rt),
			fmtCmd(rt),
			parseCmd(rt),
			directivesCmd(rt),
			cacheCmd(rt),
			serveCmd(rt),
			mcpCmd(rt),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// optionFlags are the rendering options shared by render commands.
func optionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "xhtml", Usage: "Self-close void elements (html)"},
		&cli.BoolFlag{Name: "unsafe", Usage: "Pass raw HTML through"},
		&cli.BoolFlag{Name: "hard-wraps", Usage: "Render soft line breaks as hard breaks"},
		&cli.BoolFlag{Name: "standalone", Aliases: []string{"s"}, Usage: "Wrap output in a complete document"},
		&cli.StringFlag{Name: "title", Usage: "Document title for standalone output"},
	}
}

// optionsFromFlags collects processor.Options from optionFlags.
func optionsFromFlags(c *cli.Context) processor.Options {
	return processor.Options{
		XHTML:      c.Bool("xhtml"),
		Unsafe:     c.Bool("unsafe"),
		HardWraps:  c.Bool("hard-wraps"),
		Standalone: c.Bool("standalone"),
		Title:      c.String("title"),
	}
}

// renderCmd creates the render command.
func renderCmd(rt *ops.Runtime) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "Output target: html|epub|latex"},
		&cli.StringFlag{Name: "out-dir", Aliases: []string{"o"}, Usage: "Directory for rendered files (default: next to each source)"},
		&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: "Parallel workers for file rendering"},
		&cli.BoolFlag{Name: "no-cache", Usage: "Bypass the render cache"},
		&cli.BoolFlag{Name: "json", Usage: "Print a JSON result instead of the rendered content"},
	}
	return &cli.Command{
		Name:      "render",
		Usage:     "Render documents (reads stdin when no files are given)",
		ArgsUsage: "[file...]",
		Flags:     append(flags, optionFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				output, err := ops.RenderFiles(c.Context, rt, ops.RenderFilesInput{
					Paths:     c.Args().Slice(),
					Target:    c.String("target"),
					Options:   optionsFromFlags(c),
					OutputDir: c.String("out-dir"),
					Jobs:      c.Int("jobs"),
					NoCache:   c.Bool("no-cache"),
				})
				if err != nil {
					return outputError(err)
				}
				if err := outputJSON(c.App.Writer, output); err != nil {
					return err
				}
				if output.Failed > 0 {
					return cli.Exit(fmt.Sprintf("%d of %d documents failed", output.Failed, len(output.Results)), 1)
				}
				return nil
			}

			markdown, err := readInput(c.App.Reader, "")
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Render(c.Context, rt, ops.RenderInput{
				Markdown: markdown,
				Target:   c.String("target"),
				Options:  optionsFromFlags(c),
				NoCache:  c.Bool("no-cache"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("json") {
				return outputJSON(c.App.Writer, output)
			}
			_, err = io.WriteString(c.App.Writer, output.Content)
			return err
		},
	}
}

// fmtCmd creates the fmt command.
func fmtCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "Print a document in canonical form",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "Rewrite the file in place"},
			&cli.BoolFlag{Name: "check", Usage: "Exit with status 1 if the document is not canonical"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if c.Bool("write") && path == "" {
				return outputError(errors.NewInvalidRequest("--write requires a file argument"))
			}

			markdown, err := readInput(c.App.Reader, path)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Format(c.Context, rt, ops.FormatInput{Markdown: markdown})
			if err != nil {
				return outputError(err)
			}

			switch {
			case c.Bool("check"):
				if output.Changed {
					name := path
					if name == "" {
						name = "<stdin>"
					}
					return cli.Exit(fmt.Sprintf("%s is not formatted", name), 1)
				}
				return nil
			case c.Bool("write"):
				if !output.Changed {
					return nil
				}
				if err := writeFile(path, output.Markdown); err != nil {
					return outputError(err)
				}
				return nil
			default:
				_, err = io.WriteString(c.App.Writer, output.Markdown)
				return err
			}
		},
	}
}

// parseCmd creates the parse command.
func parseCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Print the document tree as JSON",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "directives", Aliases: []string{"d"}, Usage: "Only list the directive blocks used"},
		},
		Action: func(c *cli.Context) error {
			markdown, err := readInput(c.App.Reader, c.Args().First())
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Parse(c.Context, rt, ops.ParseInput{Markdown: markdown})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("directives") {
				return outputJSON(c.App.Writer, output.Directives)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// directivesCmd creates the directives command.
func directivesCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:      "directives",
		Usage:     "List configured directives",
		ArgsUsage: "[name]",
		Action: func(c *cli.Context) error {
			if name := c.Args().First(); name != "" {
				info, err := ops.GetDirective(rt, name)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c.App.Writer, info)
			}
			return outputJSON(c.App.Writer, ops.Directives(rt))
		},
	}
}

// cacheCmd creates the cache command group.
func cacheCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or purge the render cache",
		Subcommands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache entries and hits per target",
				Action: func(c *cli.Context) error {
					output, err := ops.CacheStats(c.Context, rt)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
			{
				Name:  "purge",
				Usage: "Delete cached renders not accessed recently",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "Only purge this target"},
					&cli.StringFlag{Name: "older-than", Usage: "Retention window (e.g., 7d; 0d purges everything)"},
				},
				Action: func(c *cli.Context) error {
					input := ops.PurgeInput{Target: c.String("target")}
					if olderThan := c.String("older-than"); olderThan != "" {
						days, err := parseDuration(olderThan)
						if err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
						input.OlderThanDays = &days
					}

					output, err := ops.PurgeCache(c.Context, rt, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP render server and playground",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind := rt.Config.ServerBind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := rt.Config.ServerPort
			if c.IsSet("port") {
				port = c.Int("port")
			}
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port %d", port)))
			}

			srv, err := web.NewServer(rt, Version, bind, port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv)
		},
	}
}

// mcpCmd creates the mcp command, which serves MCP over stdio.
func mcpCmd(rt *ops.Runtime) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "list-tools", Usage: "Print enabled tool names and exit"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("list-tools") {
				return outputJSON(c.App.Writer, mcp.EnabledToolNames(rt.Config.DisabledTools))
			}
			return mcp.Run(rt, Version)
		},
	}
}

// Helper functions

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return cli.Exit("interrupted", 130)
	}
	if zErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("%s %s", errorColor.Sprintf("[%s]", zErr.Code), zErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// exitCode returns the process exit status for err.
func exitCode(err error) int {
	var coder cli.ExitCoder
	if stderrors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// readInput reads a document from path, or from r when path is empty.
// An interactive terminal on r is rejected.
func readInput(r io.Reader, path string) (string, error) {
	if path != "" {
		if err := ops.ValidatePath(path, ops.PathCheckRead); err != nil {
			return "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.NewInternal(err)
		}
		return string(data), nil
	}

	if f, ok := r.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return "", errors.NewInvalidRequest("document must be piped via stdin or given as a file")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

// writeFile replaces the contents of an existing source file.
func writeFile(path, content string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
