package link

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// WiFiConfig holds the static credentials of the access point to join.
type WiFiConfig struct {
	Interface string
	SSID      string
	Password  string
	// JoinTimeout bounds a single nmcli join.
	JoinTimeout time.Duration
}

// WiFiLink joins an access point with NetworkManager's nmcli and reports the
// link up when the interface has a routable address.
type WiFiLink struct {
	cfg    WiFiConfig
	probe  *InterfaceLink
	run    CommandRunner
	logger zerolog.Logger
}

// NewWiFiLink joins cfg.SSID through nmcli and probes cfg.Interface.
func NewWiFiLink(cfg WiFiConfig, logger zerolog.Logger) *WiFiLink {
	return NewWiFiLinkWith(cfg, NewInterfaceLink(cfg.Interface, logger), execRunner, logger)
}

// NewWiFiLinkWith builds a WiFiLink on an explicit probe and command runner.
func NewWiFiLinkWith(cfg WiFiConfig, probe *InterfaceLink, run CommandRunner, logger zerolog.Logger) *WiFiLink {
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = 15 * time.Second
	}
	return &WiFiLink{cfg: cfg, probe: probe, run: run, logger: logger}
}

// Name identifies the link by SSID.
func (w *WiFiLink) Name() string { return "wifi:" + w.cfg.SSID }

// Connected reports whether the wireless interface is up with an address.
func (w *WiFiLink) Connected() bool {
	return w.probe.Connected()
}

// Attach issues one nmcli join for the configured SSID.
func (w *WiFiLink) Attach(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.JoinTimeout)
	defer cancel()

	args := []string{"dev", "wifi", "connect", w.cfg.SSID}
	if w.cfg.Password != "" {
		args = append(args, "password", w.cfg.Password)
	}
	if w.cfg.Interface != "" {
		args = append(args, "ifname", w.cfg.Interface)
	}

	out, err := w.run(ctx, "nmcli", args...)
	if err != nil {
		return fmt.Errorf("nmcli join %s: %w: %s", w.cfg.SSID, err, strings.TrimSpace(string(out)))
	}
	w.logger.Debug().Str("ssid", w.cfg.SSID).Str("output", strings.TrimSpace(string(out))).Msg("nmcli join finished")
	return nil
}
