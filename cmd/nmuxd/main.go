// Command nmuxd is the daemon: eight input serial lines multiplexed onto
// one output line, with an optional configuration pin/UART dialogue and a
// read-only HTTP diagnostics endpoint (spec sections 1-9).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"nmuxd/internal/configdialog"
	"nmuxd/internal/diag"
	"nmuxd/internal/gpioconfig"
	"nmuxd/internal/nmea"
	"nmuxd/internal/serialio"
	"nmuxd/internal/settings"
)

const version = "0.1.0"

func main() {
	var (
		settingsPath = flag.String("settings", "/etc/nmuxd/settings.yaml", "path to the persisted settings file")
		inputDevs    [nmea.ChannelCount]string
		outputDev    string
		configDev    string
		gpioChip     string
		gpioLine     int
		httpAddr     string
	)
	for i := range inputDevs {
		flag.StringVar(&inputDevs[i], fmt.Sprintf("in%d", i+1), "", fmt.Sprintf("tty device for input channel %d", i+1))
	}
	flag.StringVar(&outputDev, "out", "", "tty device for the multiplexed output line")
	flag.StringVar(&configDev, "config-tty", "", "tty device the configuration dialogue listens on")
	flag.StringVar(&gpioChip, "gpio-chip", "/dev/gpiochip0", "gpiod chip for the configuration pin")
	flag.IntVar(&gpioLine, "gpio-line", -1, "gpiod line offset for the configuration pin, -1 to disable")
	flag.StringVar(&httpAddr, "http", ":8383", "listen address for the diagnostics HTTP endpoint")
	flag.Parse()

	store, err := settings.Load(*settingsPath)
	if err != nil {
		log.Fatalf("settings load failed: %v", err)
	}

	cfg := store.User.ToEngineConfig()
	engine := nmea.NewEngine(cfg)

	var sources [nmea.ChannelCount]nmea.SampleSource
	for i, dev := range inputDevs {
		if dev == "" {
			continue
		}
		baud := 4800
		if cfg.Channels[i].Fast {
			baud = 38400
		}
		port, err := serialio.Open(dev, baud, cfg.Channels[i].Invert)
		if err != nil {
			log.Fatalf("open input %d (%s): %v", i+1, dev, err)
		}
		sources[i] = serialio.NewLiveSource(port)
	}

	var sink nmea.ByteSink
	if outputDev != "" {
		port, err := serialio.Open(outputDev, cfg.OutputBaud, cfg.OutputInvert)
		if err != nil {
			log.Fatalf("open output (%s): %v", outputDev, err)
		}
		sink = port
	}

	sched := nmea.NewScheduler(engine, sources, sink, 0)

	var pin gpioconfig.Pin
	if gpioLine >= 0 {
		pin, err = gpioconfig.Open(gpioChip, gpioLine)
		if err != nil {
			log.Fatalf("open config pin: %v", err)
		}
		defer pin.Close()
		sched.Pin = pin
	}

	if configDev != "" {
		conn, err := serialio.Open(configDev, 4800, false)
		if err != nil {
			log.Fatalf("open config tty (%s): %v", configDev, err)
		}
		dlg := configdialog.New(store, engine)
		dlg.Conn = configConn{conn}
		dlg.Pin = pin
		dlg.Version = version
		dlg.Board = "hosted"
		sched.Dialogue = dlg
	}

	status := diag.NewStatus(version, "hosted")
	httpServer := &http.Server{Addr: httpAddr, Handler: diag.Handler(status, engine)}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("diagnostics server stopped: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("nmuxd starting, version=%s", version)
	go sched.Run(0, func() bool { return ctx.Err() != nil })

	<-ctx.Done()
	log.Printf("nmuxd stopping")
	_ = httpServer.Close()
}

// configConn adapts a *serialio.Port, which exposes ReadByte/Write at byte
// granularity, to the io.ReadWriter the dialogue's line scanner expects.
type configConn struct {
	port *serialio.Port
}

func (c configConn) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, err := c.port.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = b
	return 1, nil
}

func (c configConn) Write(p []byte) (int, error) {
	for _, b := range p {
		c.port.Write(b)
	}
	return len(p), nil
}
