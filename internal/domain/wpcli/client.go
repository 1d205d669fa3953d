// Package wpcli is a thin typed façade over the wp-cli tool. It shells out
// through ports.CommandRunner and interprets only the output shapes the
// updater needs; everything else about WordPress stays wp-cli's business.
package wpcli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wpsteward/wpsteward/internal/ports"
)

// DefaultBin is the wp-cli executable name.
const DefaultBin = "wp"

// Kind selects which item type list/update subcommands operate on.
type Kind string

// Item kinds with per-item updates.
const (
	KindPlugin Kind = "plugin"
	KindTheme  Kind = "theme"
)

// Update describes one available item update as reported by wp-cli.
type Update struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	UpdateVersion string `json:"update_version"`
}

// String renders the update as "name version -> update_version".
func (u Update) String() string {
	return fmt.Sprintf("%s %s -> %s", u.Name, u.Version, u.UpdateVersion)
}

// Client issues wp-cli commands against one WordPress installation.
type Client struct {
	runner ports.CommandRunner
	bin    string
	path   string
}

// NewClient creates a client for the installation at path.
func NewClient(runner ports.CommandRunner, path string) *Client {
	return &Client{
		runner: runner,
		bin:    DefaultBin,
		path:   path,
	}
}

// WithBin returns a client using a different wp-cli executable.
func (c *Client) WithBin(bin string) *Client {
	return &Client{
		runner: c.runner,
		bin:    bin,
		path:   c.path,
	}
}

// Bin returns the wp-cli executable name in use.
func (c *Client) Bin() string {
	return c.bin
}

// CoreVersion returns the installed WordPress core version.
func (c *Client) CoreVersion(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "core", "version")
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", fmt.Errorf("wp core version exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	// Deprecation warnings from the installation can precede the version;
	// the version is the last non-empty line.
	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

// ActivePlugins returns the names of all active plugins.
func (c *Client) ActivePlugins(ctx context.Context) ([]string, error) {
	res, err := c.run(ctx, "plugin", "list", "--fields=name", "--status=active", "--format=json")
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, fmt.Errorf("wp plugin list exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	var plugins []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(extractJSON(res.Stdout)), &plugins); err != nil {
		return nil, fmt.Errorf("parse plugin list: %w", err)
	}

	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names, nil
}

// AvailableUpdates lists pending updates for the given item kind.
func (c *Client) AvailableUpdates(ctx context.Context, kind Kind) ([]Update, error) {
	res, err := c.run(ctx, string(kind), "list",
		"--update=available", "--fields=name,version,update_version", "--format=json")
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, fmt.Errorf("wp %s list exited %d: %s", kind, res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	var updates []Update
	if err := json.Unmarshal([]byte(extractJSON(res.Stdout)), &updates); err != nil {
		return nil, fmt.Errorf("parse %s update list: %w", kind, err)
	}
	return updates, nil
}

// SetActive activates or deactivates the named plugins. A nil list is a no-op.
func (c *Client) SetActive(ctx context.Context, names []string, active bool) error {
	if len(names) == 0 {
		return nil
	}

	verb := "deactivate"
	if active {
		verb = "activate"
	}

	args := append([]string{"plugin", verb}, names...)
	res, err := c.run(ctx, args...)
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("wp plugin %s exited %d: %s", verb, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// run invokes wp-cli with the --path flag appended.
func (c *Client) run(ctx context.Context, args ...string) (ports.CommandResult, error) {
	args = append(args, "--path="+c.path)
	return c.runner.Run(ctx, "", c.bin, args...)
}

// jsonStart marks the beginning of a wp-cli JSON array payload.
const jsonStart = `[{"`

// extractJSON returns the JSON array embedded in wp-cli output. Installations
// with deprecated code print PHP notices before the payload; everything up to
// the first array-of-objects marker is noise. An output with no payload is an
// empty array.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		return s
	}
	if idx := strings.Index(s, jsonStart); idx >= 0 {
		return s[idx:]
	}
	return "[]"
}
