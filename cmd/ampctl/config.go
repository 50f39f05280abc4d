package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/speters/ampctl/pkg/bridge"
	"github.com/speters/ampctl/pkg/fbv"
	"github.com/speters/ampctl/pkg/link"
)

type config struct {
	Mode      string
	FBVPort   string
	AmpPort   string
	Baud      int
	HoldTime  time.Duration
	FlashTime time.Duration
	HTTP      string
	Poll      time.Duration

	Verbose   bool
	ListPorts bool
}

func defaultConfig() config {
	return config{
		Mode:      bridge.ModeKemper,
		Baud:      link.MIDIBaud,
		HoldTime:  fbv.DefaultHoldTime,
		FlashTime: fbv.DefaultFlashTime,
		Poll:      2 * time.Millisecond,
	}
}

type fileConfig struct {
	Mode         string `toml:"mode"`
	FBVPort      string `toml:"fbv_port"`
	AmpPort      string `toml:"amp_port"`
	Baud         int    `toml:"baud"`
	HoldTime     string `toml:"hold_time"`
	FlashTime    string `toml:"flash_time"`
	HTTP         string `toml:"http"`
	PollInterval string `toml:"poll_interval"`
}

// loadConfig applies the keys set in the TOML file at path onto cfg
func loadConfig(path string, cfg config) (config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("mode") {
		cfg.Mode = strings.ToLower(strings.TrimSpace(raw.Mode))
	}
	if meta.IsDefined("fbv_port") {
		cfg.FBVPort = strings.TrimSpace(raw.FBVPort)
	}
	if meta.IsDefined("amp_port") {
		cfg.AmpPort = strings.TrimSpace(raw.AmpPort)
	}
	if meta.IsDefined("baud") {
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("hold_time") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HoldTime))
		if err != nil {
			return config{}, fmt.Errorf("parse hold_time: %w", err)
		}
		cfg.HoldTime = d
	}
	if meta.IsDefined("flash_time") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.FlashTime))
		if err != nil {
			return config{}, fmt.Errorf("parse flash_time: %w", err)
		}
		cfg.FlashTime = d
	}
	if meta.IsDefined("http") {
		cfg.HTTP = strings.TrimSpace(raw.HTTP)
	}
	if meta.IsDefined("poll_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollInterval))
		if err != nil {
			return config{}, fmt.Errorf("parse poll_interval: %w", err)
		}
		cfg.Poll = d
	}

	return cfg, nil
}

var errNoPort = errors.New("need both -f and -a ports")

func (c config) validate() error {
	switch c.Mode {
	case bridge.ModeKemper, bridge.ModeVox:
	default:
		return fmt.Errorf("unknown mode %q, use %s or %s", c.Mode, bridge.ModeKemper, bridge.ModeVox)
	}
	if c.FBVPort == "" || c.AmpPort == "" {
		return errNoPort
	}
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.HoldTime <= 0 || c.FlashTime <= 0 || c.Poll <= 0 {
		return fmt.Errorf("hold_time, flash_time and poll_interval must be positive")
	}
	return nil
}

// httpAddr accepts :[portnum] as well as [portnum]
func httpAddr(s string) string {
	if i, err := strconv.Atoi(s); err == nil {
		return fmt.Sprintf(":%d", i)
	}
	return s
}

// parseArgs reads the config file named by -config, if any, and lets the
// other flags override it
func parseArgs(args []string) (config, error) {
	fs := flag.NewFlagSet("ampctl", flag.ContinueOnError)
	path := fs.String("config", "", "TOML config `file`")
	mode := fs.String("m", "", "amp to control, kemper or vox")
	fbvPort := fs.String("f", "", "FBV connection string, use socket://[host]:[port] for TCP or [serialDevice]")
	ampPort := fs.String("a", "", "amp connection string, use socket://[host]:[port] for TCP or [serialDevice]")
	baud := fs.Int("b", 0, "amp baud rate")
	hold := fs.Duration("hold", 0, "time a switch must be held to count as held")
	serve := fs.String("s", "", "start http server at [bindtohost][:]port")
	verbose := fs.Bool("v", false, "verbose logging")
	list := fs.Bool("l", false, "list serial ports and exit")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	cfg := defaultConfig()
	if *path != "" {
		var err error
		if cfg, err = loadConfig(*path, cfg); err != nil {
			return config{}, err
		}
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["m"] {
		cfg.Mode = strings.ToLower(*mode)
	}
	if set["f"] {
		cfg.FBVPort = *fbvPort
	}
	if set["a"] {
		cfg.AmpPort = *ampPort
	}
	if set["b"] {
		cfg.Baud = *baud
	}
	if set["hold"] {
		cfg.HoldTime = *hold
	}
	if set["s"] {
		cfg.HTTP = *serve
	}
	cfg.HTTP = httpAddr(cfg.HTTP)
	cfg.Verbose = *verbose
	cfg.ListPorts = *list

	if cfg.ListPorts {
		return cfg, nil
	}
	return cfg, cfg.validate()
}
