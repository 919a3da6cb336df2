// Command regforge generates Go register access code from SVD device
// descriptions and lets you browse them.
//
// Usage:
//
//	regforge <command> [flags] [PATTERN]
//
// Commands:
//
//	generate  Generate code for a peripheral, or the base address table
//	list      List the peripherals of a device
//	browse    Search and list registers, fields and values
//	events    Inspect generation event logs (.rlog)
//
// Examples:
//
//	# Base address constants of every peripheral
//	regforge generate -i chip.svd
//
//	# Register code for the UART0 peripheral into a file
//	regforge generate -i chip.svd -o uart0.go -pkg chip uart0
//
//	# Every peripheral into its own package under regs/, with an event log
//	regforge generate -i chip.svd -all -o regs/ -events gen.rlog
//
//	# Everything mentioning "dma", including descriptions
//	regforge browse -i chip.svd -d -v 2 dma
//
//	# Show what went wrong in the last run
//	regforge events view -kind error gen.rlog
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/regforge/regforge/cmd/regforge/commands"
	"github.com/regforge/regforge/pkg/log"
	"github.com/regforge/regforge/pkg/svd"
)

const usage = `regforge - register access code generator

Usage:
  regforge <command> [flags] [PATTERN]

Commands:
  generate  Generate code for a peripheral, or the base address table
  list      List the peripherals of a device
  browse    Search and list registers, fields and values
  events    Inspect generation event logs (view, stats, export)

Use "regforge <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "generate":
		runGenerate(args)
	case "list":
		runList(args)
	case "browse":
		runBrowse(args)
	case "events":
		runEvents(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `regforge generate - Generate register access code

Without PATTERN the base address constants of all peripherals are generated.
With PATTERN the full register code of the one peripheral it selects: an
exact (case-insensitive) name match, otherwise the first name containing it.

Usage:
  regforge generate -i <file> [flags] [PATTERN]

Flags:
`)
		fs.PrintDefaults()
	}

	var opts commands.GenerateOptions
	fs.StringVar(&opts.Input, "i", "", "Input device description (.svd, .xml, .yaml)")
	fs.StringVar(&opts.Output, "o", "", "Output file, or directory with -all (default: stdout)")
	fs.StringVar(&opts.Package, "pkg", "", "Package name of the generated file (default: regs)")
	fs.StringVar(&opts.Config, "config", "", "Config file (YAML)")
	fs.StringVar(&opts.Events, "events", "", "Append the generation trace to this .rlog file")
	fs.BoolVar(&opts.All, "all", false, "Generate every peripheral, one package each under -o (ignores -pkg)")
	fs.BoolVar(&opts.Dump, "dump", false, "Print the resolved model of the selected peripheral")
	fs.BoolVar(&opts.Verbose, "v", false, "Log progress and events to stderr")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if opts.Input == "" {
		fmt.Fprintln(os.Stderr, "Error: input file (-i) required")
		fs.Usage()
		os.Exit(1)
	}
	opts.Pattern = fs.Arg(0)

	if err := commands.RunGenerate(opts, os.Stdout, os.Stderr); err != nil {
		fatal(err)
	}
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `regforge list - List the peripherals of a device

Usage:
  regforge list -i <file> [PATTERN]

Flags:
`)
		fs.PrintDefaults()
	}

	input := fs.String("i", "", "Input device description (.svd, .xml, .yaml)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: input file (-i) required")
		fs.Usage()
		os.Exit(1)
	}

	dev, err := svd.Load(*input)
	if err != nil {
		fatal(err)
	}
	commands.RunList(dev, fs.Arg(0), os.Stdout)
}

func runBrowse(args []string) {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `regforge browse - Search and list registers, fields and values

Lists every peripheral with a name, group, register, field or enumerated
value matching PATTERN (case-insensitive). Without PATTERN all peripherals
are listed.

Usage:
  regforge browse -i <file> [flags] [PATTERN]

Flags:
`)
		fs.PrintDefaults()
	}

	input := fs.String("i", "", "Input device description (.svd, .xml, .yaml)")
	descriptions := fs.Bool("d", false, "Also search descriptions")
	verbosity := fs.Int("v", 0, "Listing depth: 0 peripherals, 1 registers, 2 fields, 3 values")
	interactive := fs.Bool("interactive", false, "Start the interactive browser")
	color := fs.String("color", "auto", "Colour output (auto, always, never)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: input file (-i) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.BrowseOptions{
		Pattern:      fs.Arg(0),
		Descriptions: *descriptions,
	}
	var err error
	if opts.Verbosity, err = commands.ParseVerbosityFlag(*verbosity); err != nil {
		fatal(err)
	}
	if opts.Color, err = commands.ParseColorFlag(*color, os.Stdout); err != nil {
		fatal(err)
	}

	dev, err := svd.Load(*input)
	if err != nil {
		fatal(err)
	}

	if *interactive {
		err = commands.RunShell(dev, opts)
	} else {
		err = commands.RunBrowse(dev, opts, os.Stdout)
	}
	if err != nil {
		fatal(err)
	}
}

const eventsUsage = `regforge events - Inspect generation event logs

Usage:
  regforge events <view|stats|export> [flags] <file.rlog>

Subcommands:
  view     Print events in human-readable form
  stats    Summarize runs in the log
  export   Write events as JSON lines
`

func runEvents(args []string) {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, eventsUsage)
		os.Exit(1)
	}

	sub, args := args[0], args[1:]
	switch sub {
	case "view", "export":
		runEventsFiltered(sub, args)
	case "stats":
		fs := flag.NewFlagSet("stats", flag.ExitOnError)
		if err := fs.Parse(args); err != nil {
			os.Exit(1)
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "Error: event log path required")
			os.Exit(1)
		}
		if err := commands.RunEventsStats(fs.Arg(0), os.Stdout); err != nil {
			fatal(err)
		}
	case "-h", "-help", "--help", "help":
		fmt.Print(eventsUsage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown events command: %s\n", sub)
		fmt.Fprint(os.Stderr, eventsUsage)
		os.Exit(1)
	}
}

func runEventsFiltered(name string, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `regforge events %s

Usage:
  regforge events %s [flags] <file.rlog>

Flags:
`, name, name)
		fs.PrintDefaults()
	}

	kind := fs.String("kind", "", "Filter by kind (start, unit, collision, error, done)")
	stage := fs.String("stage", "", "Filter by stage (run, resolve, layout, emit)")
	peripheral := fs.String("peripheral", "", "Filter by peripheral name")
	runID := fs.String("run", "", "Filter by run ID")
	since := fs.String("since", "", "Only events at or after this time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: event log path required")
		fs.Usage()
		os.Exit(1)
	}

	filter := log.Filter{RunID: *runID, Peripheral: *peripheral}
	if *kind != "" {
		k, err := commands.ParseKindFlag(*kind)
		if err != nil {
			fatal(err)
		}
		filter.Kind = &k
	}
	if *stage != "" {
		s, err := commands.ParseStageFlag(*stage)
		if err != nil {
			fatal(err)
		}
		filter.Stage = &s
	}
	if *since != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			fatal(fmt.Errorf("invalid -since: %w", err))
		}
		filter.TimeStart = &t
	}

	run := commands.RunEventsView
	if name == "export" {
		run = commands.RunEventsExport
	}
	if err := run(fs.Arg(0), filter, os.Stdout); err != nil {
		fatal(err)
	}
}
