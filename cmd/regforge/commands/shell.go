package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/regforge/regforge/pkg/browse"
	"github.com/regforge/regforge/pkg/resolve"
	"github.com/regforge/regforge/pkg/svd"
)

// Shell is the interactive browser. Each input line is one command.
type Shell struct {
	dev      *svd.Device
	resolver *resolve.Resolver
	opts     BrowseOptions
	out      io.Writer
}

// NewShell creates a shell over dev writing to out.
func NewShell(dev *svd.Device, opts BrowseOptions, out io.Writer) *Shell {
	return &Shell{
		dev:      dev,
		resolver: resolve.New(dev),
		opts:     opts,
		out:      out,
	}
}

// RunShell runs the interactive browser on the terminal until quit or EOF.
func RunShell(dev *svd.Device, opts BrowseOptions) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "regforge> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	sh := NewShell(dev, opts, rl.Stdout())
	sh.printHelp()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		if !sh.Exec(line) {
			return nil
		}
	}
}

// Exec runs one command line. It returns false when the shell should exit.
func (s *Shell) Exec(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "list", "ls":
		RunList(s.dev, strings.Join(args, " "), s.out)

	case "search", "s":
		s.cmdSearch(args)

	case "show":
		s.cmdShow(args)

	case "decode", "d":
		s.cmdDecode(args)

	case "verbosity", "v":
		s.cmdVerbosity(args)

	case "descriptions", "desc":
		s.cmdDescriptions(args)

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
regforge browser commands:
    list [pattern]          - List peripherals (by name)
    search <pattern>        - Search names (and descriptions, see desc)
    show <path>             - Show a peripheral, register or field
    decode <path> <value>   - Split a register value into its fields
    verbosity <0-3>         - Set listing depth for search
    desc on|off             - Include descriptions in search
    help                    - Show this help
    quit                    - Exit

Paths are peripheral[/register[/field]], e.g. TIMER0/CTRL/MODE.`)
}

func (s *Shell) cmdSearch(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: search <pattern>")
		return
	}
	if err := search(s.dev, s.resolver, s.opts, strings.Join(args, " "), s.out); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func (s *Shell) lookup(raw string) (*browse.Target, bool) {
	path, err := browse.ParsePath(raw)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil, false
	}
	t, err := browse.Lookup(s.resolver, s.dev, path)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil, false
	}
	return t, true
}

func (s *Shell) cmdShow(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: show <path>")
		return
	}
	t, ok := s.lookup(args[0])
	if !ok {
		return
	}

	ro := browse.RenderOptions{Verbosity: browse.VerbosityValues, Color: s.opts.Color}
	switch {
	case t.Field != nil:
		ro.Highlight = browse.Pattern(t.Field.Name)
		fmt.Fprintln(s.out, browse.RenderRegister(t.Register, ro))
	case t.Register != nil:
		fmt.Fprintln(s.out, browse.RenderRegister(t.Register, ro))
	default:
		fmt.Fprintln(s.out, strings.TrimRight(browse.Render(t.Peripheral, ro), "\n"))
	}
}

func (s *Shell) cmdDecode(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: decode <path> <value>")
		return
	}
	t, ok := s.lookup(args[0])
	if !ok {
		return
	}
	if t.Register == nil {
		fmt.Fprintln(s.out, "Error: decode needs a register path")
		return
	}
	value, err := svd.ParseUint(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	fields, reserved, err := browse.Decode(t.Register, value)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if t.Field != nil {
		for _, fv := range fields {
			if fv.Field.Name == t.Field.Name {
				fmt.Fprintf(s.out, "%s = %s\n", fv.Field.Name, browse.FormatValue(fv))
				return
			}
		}
		fmt.Fprintln(s.out, "Error: field is not part of the register layout")
		return
	}
	fmt.Fprintln(s.out, browse.FormatDecoded(t.Register, value, fields, reserved))
}

func (s *Shell) cmdVerbosity(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Verbosity: %d\n", s.opts.Verbosity)
		return
	}
	n, err := strconv.Atoi(args[0])
	if err == nil {
		n, err = ParseVerbosityFlag(n)
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.opts.Verbosity = n
	fmt.Fprintf(s.out, "Verbosity: %d\n", n)
}

func (s *Shell) cmdDescriptions(args []string) {
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "on":
			s.opts.Descriptions = true
		case "off":
			s.opts.Descriptions = false
		default:
			fmt.Fprintln(s.out, "Usage: desc on|off")
			return
		}
	}
	state := "off"
	if s.opts.Descriptions {
		state = "on"
	}
	fmt.Fprintf(s.out, "Description search: %s\n", state)
}
