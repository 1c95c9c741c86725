package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"basic/interp"
)

// main wires the CLI surface of SPEC_FULL.md's AMBIENT STACK section,
// replacing the teacher's hand-rolled flag.Bool/positional-arg parsing
// in main.go with urfave/cli/v2 commands.
func main() {
	app := &cli.App{
		Name:  "basic",
		Usage: "a BBC BASIC execution engine",
		Commands: []*cli.Command{
			runCommand(),
			listDemosCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Error("run failed")
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run one of the bundled demo programs",
		ArgsUsage: "<demo-name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "trace", Usage: "log every dispatched statement"},
			&cli.BoolFlag{Name: "debug", Usage: "single-step under an interactive debugger"},
			&cli.StringFlag{Name: "config", Usage: "path to a TOML engine sizing config"},
		},
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				return cli.Exit("usage: basic run <demo-name>", 2)
			}
			build, ok := interp.Demos[name]
			if !ok {
				return cli.Exit(fmt.Sprintf("unknown demo %q (see: basic list-demos)", name), 2)
			}

			cfg := interp.DefaultConfig()
			if path := c.String("config"); path != "" {
				if _, err := toml.DecodeFile(path, cfg); err != nil {
					return cli.Exit(fmt.Sprintf("reading config: %v", err), 1)
				}
			}

			it := interp.NewInterp(build(), cfg, os.Stdout, os.Stdin)
			it.Trace = c.Bool("trace")
			if it.Trace {
				it.Log.SetLevel(logrus.TraceLevel)
			}

			var code int
			var err error
			if c.Bool("debug") {
				code, err = it.RunDebugMode(bufio.NewReader(os.Stdin), os.Stdout)
			} else {
				code, err = it.Run()
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
}

func listDemosCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-demos",
		Usage: "list the demo program names run accepts",
		Action: func(c *cli.Context) error {
			names := make([]string, 0, len(interp.Demos))
			for name := range interp.Demos {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}
