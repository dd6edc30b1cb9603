package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/okrejci/worthy/cmd"
)

func main() {
	completion()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion answers shell completion requests and returns immediately in
// a normal run. Install with: COMP_INSTALL=1 wt
func completion() {
	wt := &complete.Command{
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.yaml"),
		},
		Sub: map[string]*complete.Command{
			"snapshot": {Flags: map[string]complete.Predictor{
				"publish": predict.Nothing,
				"no-save": predict.Nothing,
			}},
			"model": {Flags: map[string]complete.Predictor{
				"s": predict.Files("*.json"),
			}},
			"csv": {Flags: map[string]complete.Predictor{
				"o": predict.Files("*.csv"),
			}},
			"config": {},
		},
	}
	wt.Complete("wt")
}
