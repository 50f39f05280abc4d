// ampctl drives a Kemper Profiler or a Vox AD60VT from a Line6 FBV foot
// controller.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/speters/ampctl/pkg/bridge"
	"github.com/speters/ampctl/pkg/fbv"
	"github.com/speters/ampctl/pkg/kemper"
	"github.com/speters/ampctl/pkg/link"
	"github.com/speters/ampctl/pkg/vox"
)

// reconnectDelay is the pause before a lost port is opened again
const reconnectDelay = 12 * time.Second

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	if cfg.ListPorts {
		ports, err := link.ListPorts()
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	fbvPort, err := link.Open(cfg.FBVPort, fbv.Baud)
	if err != nil {
		log.Fatalf("FBV: %v", err)
	}
	ampPort, err := link.Open(cfg.AmpPort, cfg.Baud)
	if err != nil {
		log.Fatalf("amp: %v", err)
	}

	board := fbv.New(fbvPort)
	board.SetDefaultHoldTime(cfg.HoldTime)
	board.SetFlashTime(cfg.FlashTime)

	var b *bridge.Bridge
	switch cfg.Mode {
	case bridge.ModeVox:
		b = bridge.NewVox(board, vox.New(ampPort))
	default:
		b = bridge.NewKemper(board, kemper.New(ampPort))
	}
	if err := b.Start(time.Now()); err != nil {
		log.Fatal(err)
	}
	log.Infof("ampctl %s: FBV at %s, %s at %s", buildVersion, cfg.FBVPort, cfg.Mode, cfg.AmpPort)

	done := make(chan os.Signal, 1)
	signal.Notify(done,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	if cfg.HTTP != "" {
		h := &http.Server{Addr: cfg.HTTP, Handler: newRouter(b)}
		go func() { log.Error(h.ListenAndServe()) }()
	}

	go keepConnected("FBV", fbvPort)
	go keepConnected("amp", ampPort)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			fbvPort.Close()
			ampPort.Close()
			return
		case now := <-ticker.C:
			if err := b.Poll(now); err != nil && !errors.Is(err, link.ErrClosed) {
				log.Error(err)
			}
		}
	}
}

// keepConnected reopens p whenever it is lost
func keepConnected(name string, p *link.Port) {
	for {
		<-p.Lost()
		<-time.After(reconnectDelay)
		if err := p.Reconnect(); err != nil {
			log.Errorf("%s: %v", name, err)
		} else {
			log.Infof("%s: reconnected", name)
		}
	}
}
