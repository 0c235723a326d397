// Command nmux-split reads channel-prefixed sentences from stdin
// (typically nmuxd's own output with channel prefixes enabled) and routes
// each to a named fifo or stdout by its leading channel digit, per spec
// section 6's wire format. It is deliberately stdlib-only: the job is a
// byte-oriented line router over os.Stdin/bufio, which the standard
// library already does directly, and none of the pack's third-party
// dependencies (YAML, gpiod, ishell, termios) apply to it.
package main

import (
	"bufio"
	"fmt"
	"os"
	"syscall"

	"nmuxd/internal/nmea"
)

const stdoutTarget = "-"

type route struct {
	name string
	f    *os.File
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdin *os.File, stdout, stderr *os.File) error {
	routes, err := parseArgs(args)
	if err != nil {
		return err
	}

	channelRoute := [nmea.ChannelCount]*route{}
	byName := map[string]*route{}
	for _, r := range routes {
		if r.name == stdoutTarget {
			continue
		}
		if _, ok := byName[r.name]; !ok {
			byName[r.name] = &route{name: r.name}
		}
	}

	for name, r := range byName {
		if err := createFifo(name); err != nil {
			return err
		}
		f, err := os.OpenFile(name, os.O_WRONLY, 0)
		if err != nil {
			_ = os.Remove(name)
			return fmt.Errorf("open fifo %s: %w", name, err)
		}
		r.f = f
	}
	defer func() {
		for name, r := range byName {
			if r.f != nil {
				_ = r.f.Close()
			}
			_ = os.Remove(name)
		}
	}()

	for _, t := range routes {
		if t.name == stdoutTarget {
			for _, ch := range t.channels {
				channelRoute[ch] = &route{name: stdoutTarget, f: stdout}
			}
		} else {
			r := byName[t.name]
			for _, ch := range t.channels {
				channelRoute[ch] = r
			}
		}
	}

	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 1024), 1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] < '1' || line[0] > '0'+nmea.ChannelCount {
			fmt.Fprintf(stderr, "wrong channel number in input: %s\n", line)
			continue
		}
		idx := int(line[0] - '1')
		r := channelRoute[idx]
		if r == nil || r.f == nil {
			continue
		}
		fmt.Fprintln(r.f, line[1:])
	}
	return scanner.Err()
}

// target is one parsed -f option: the set of channel indices (0-based) it
// covers and either a fifo path or stdoutTarget.
type target struct {
	channels []int
	name     string
}

func parseArgs(args []string) ([]target, error) {
	var targets []target
	seenChannel := [nmea.ChannelCount]bool{}
	seenName := map[string]bool{}
	sawStdout := false
	found := false

	for i := 0; i < len(args); {
		if args[i] != "-f" {
			return nil, fmt.Errorf("unknown option: %s", args[i])
		}
		if i+2 >= len(args) {
			return nil, fmt.Errorf("-f requires <channels> <fifo file>")
		}
		chanSpec, name := args[i+1], args[i+2]
		i += 3
		found = true

		if name == stdoutTarget {
			if sawStdout {
				return nil, fmt.Errorf("stdout given as output twice")
			}
			sawStdout = true
		} else if seenName[name] {
			return nil, fmt.Errorf("fifo name %s given twice", name)
		} else {
			seenName[name] = true
		}

		var channels []int
		for _, c := range chanSpec {
			if c < '1' || c > '0'+nmea.ChannelCount {
				return nil, fmt.Errorf("wrong channel number: %c", c)
			}
			idx := int(c-'1')
			if seenChannel[idx] {
				return nil, fmt.Errorf("fifo for channel %c given twice", c)
			}
			seenChannel[idx] = true
			channels = append(channels, idx)
		}

		targets = append(targets, target{channels: channels, name: name})
	}

	if !found {
		return nil, fmt.Errorf("no -f option found")
	}
	return targets, nil
}

func createFifo(name string) error {
	if fi, err := os.Stat(name); err == nil {
		if fi.Mode()&os.ModeNamedPipe != 0 {
			if err := os.Remove(name); err != nil {
				return fmt.Errorf("remove existing fifo %s: %w", name, err)
			}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	if err := syscall.Mkfifo(name, 0666); err != nil {
		return fmt.Errorf("mkfifo %s: %w", name, err)
	}
	return nil
}
