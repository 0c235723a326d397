// Command nmux-configure is the operator-facing client for the
// configuration dialogue (spec section 6): it asserts the configuration
// GPIO pin, opens the config tty, and drives the wire grammar through an
// interactive ishell prompt so an operator can type the single-letter
// commands (or their friendlier aliases) without memorising hex layouts.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/abiosoft/ishell"

	"nmuxd/internal/gpioconfig"
	"nmuxd/internal/serialio"
)

func main() {
	var (
		device   = flag.String("i", "/dev/ttyAMA0", "tty device the multiplexer's config UART is on")
		baud     = flag.Int("b", 4800, "baud rate: 4800, 38400 or 115200")
		gpioChip = flag.String("gpio-chip", "/dev/gpiochip0", "gpiod chip for the configuration pin")
		gpioLine = flag.Int("g", -1, "gpiod line offset for the configuration pin, -1 for none")
	)
	flag.Parse()

	switch *baud {
	case 4800, 38400, 115200:
	default:
		log.Fatalf("unsupported baud rate %d", *baud)
	}

	var pin gpioconfig.OutputPin
	if *gpioLine >= 0 {
		var err error
		pin, err = gpioconfig.OpenOutput(*gpioChip, *gpioLine)
		if err != nil {
			log.Fatalf("open gpio: %v", err)
		}
		if err := pin.Assert(); err != nil {
			log.Fatalf("assert config pin: %v", err)
		}
		defer func() {
			if err := pin.Release(); err != nil {
				log.Printf("release config pin: %v", err)
			}
			_ = pin.Close()
		}()
	}

	port, err := serialio.Open(*device, *baud, false)
	if err != nil {
		log.Fatalf("open %s: %v", *device, err)
	}
	defer port.Close()

	fmt.Println("[starting...]")
	go copyDeviceOutput(port)
	fmt.Println("[ready]")

	shell := newShell(port)
	shell.Run()
	fmt.Println("[done]")
}

// copyDeviceOutput echoes whatever the device sends back (its "Ok"/"Error"
// replies and the P/G command's printed payloads) to stdout, mirroring the
// source client's background reader thread.
func copyDeviceOutput(port *serialio.Port) {
	for {
		b, err := port.ReadByte()
		if err != nil {
			return
		}
		os.Stdout.Write([]byte{b})
	}
}

func newShell(port *serialio.Port) *ishell.Shell {
	sh := ishell.New()
	sh.SetPrompt("nmux-config> ")

	send := func(line string) {
		for _, b := range []byte(line) {
			port.Write(b)
		}
		port.Write('\n')
	}

	sh.AddCmd(&ishell.Cmd{
		Name: "send",
		Help: "send a raw dialogue command line, e.g. 'send C1'",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("usage: send <command-line>"))
				return
			}
			send(strings.Join(c.Args, " "))
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "print diagnostics (equivalent to the G command)",
		Func: func(c *ishell.Context) { send("G") },
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "dump",
		Help: "print the raw settings layout (equivalent to the P command)",
		Func: func(c *ishell.Context) { send("P") },
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "save",
		Help: "persist the working settings to non-volatile storage (S)",
		Func: func(c *ishell.Context) { send("S") },
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "reload",
		Help: "reload the working settings from storage, discarding edits (L)",
		Func: func(c *ishell.Context) { send("L") },
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "reset",
		Help: "reset the working settings to factory defaults (R)",
		Func: func(c *ishell.Context) { send("R") },
	})
	sh.AddCmd(&ishell.Cmd{
		Name:    "exit",
		Aliases: []string{"quit", "x"},
		Help:    "leave configuration mode",
		Func: func(c *ishell.Context) {
			c.Stop()
		},
	})

	return sh
}
