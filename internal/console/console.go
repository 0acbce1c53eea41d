// Package console parses admin commands for the sensor daemon. Parsing is
// pure; commands are executed on the main loop goroutine so the registry
// keeps a single writer.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/shlex"

	"github.com/sweeney/station-sensor/internal/scan"
)

// Action identifies a console command.
type Action int

const (
	ActionHelp Action = iota
	ActionAdd
	ActionRemove
	ActionList
	ActionSet
	ActionSave
)

// Command is one parsed console command.
type Command struct {
	Action Action
	ID     uint16
	Pin    int
	Pullup bool
	State  bool
}

// errEmpty marks a blank line; Run skips these silently.
var errEmpty = errors.New("empty command")

// Usage describes the accepted commands.
const Usage = `commands:
  add <id> <pin|none> [pullup]   register a sensor (replaces same id)
  del <id>                       remove a sensor
  list                           show confirmed state of every sensor
  set <id> <0|1>                 drive a pinless sensor's state
  save                           write definitions to the store
  help                           show this text`

// Parse turns one input line into a Command. The line is split with shell
// quoting rules, so quoted arguments behave as expected.
func Parse(line string) (Command, error) {
	words, err := shlex.Split(line)
	if err != nil {
		return Command{}, fmt.Errorf("parse: %w", err)
	}
	if len(words) == 0 {
		return Command{}, errEmpty
	}

	switch words[0] {
	case "add":
		if len(words) < 3 || len(words) > 4 {
			return Command{}, errors.New("usage: add <id> <pin|none> [pullup]")
		}
		id, err := parseID(words[1])
		if err != nil {
			return Command{}, err
		}
		pin, err := parsePin(words[2])
		if err != nil {
			return Command{}, err
		}
		cmd := Command{Action: ActionAdd, ID: id, Pin: pin}
		if len(words) == 4 {
			on, err := parseBool(words[3])
			if err != nil {
				return Command{}, err
			}
			cmd.Pullup = on
		}
		return cmd, nil

	case "del", "remove":
		if len(words) != 2 {
			return Command{}, errors.New("usage: del <id>")
		}
		id, err := parseID(words[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Action: ActionRemove, ID: id}, nil

	case "list":
		return Command{Action: ActionList}, nil

	case "set":
		if len(words) != 3 {
			return Command{}, errors.New("usage: set <id> <0|1>")
		}
		id, err := parseID(words[1])
		if err != nil {
			return Command{}, err
		}
		state, err := parseBool(words[2])
		if err != nil {
			return Command{}, err
		}
		return Command{Action: ActionSet, ID: id, State: state}, nil

	case "save":
		return Command{Action: ActionSave}, nil

	case "help":
		return Command{Action: ActionHelp}, nil

	default:
		return Command{}, fmt.Errorf("unknown command %q (try help)", words[0])
	}
}

func parseID(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("bad sensor id %q", s)
	}
	return uint16(n), nil
}

func parsePin(s string) (int, error) {
	if s == "none" {
		return scan.PinNone, nil
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("bad pin %q (number or none)", s)
	}
	return int(n), nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "1", "on", "true":
		return true, nil
	case "0", "off", "false":
		return false, nil
	}
	return false, fmt.Errorf("bad flag %q (0 or 1)", s)
}

// Run reads lines from r until EOF, sending parsed commands on cmds. Parse
// errors are written to errw and do not stop the loop. Run closes cmds when
// the input ends.
func Run(r io.Reader, cmds chan<- Command, errw io.Writer) {
	defer close(cmds)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd, err := Parse(scanner.Text())
		if err != nil {
			if !errors.Is(err, errEmpty) {
				fmt.Fprintln(errw, err)
			}
			continue
		}
		cmds <- cmd
	}
}
