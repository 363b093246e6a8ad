package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// hostsFile is the structured form of a CDN hosts file.
type hostsFile struct {
	CDNs []string `yaml:"cdns" json:"cdns"`
}

// CompileHosts merges the built-in pool with ExtraHosts and the hosts file,
// preserving first-seen order so the probe order stays deterministic.
func (c CDNConfig) CompileHosts(builtin []string) ([]string, error) {
	hosts := make([]string, 0, len(builtin)+len(c.ExtraHosts))
	seen := make(map[string]bool, len(builtin))

	add := func(host string) {
		host = strings.TrimSpace(host)
		if host == "" || seen[host] {
			return
		}
		seen[host] = true
		hosts = append(hosts, host)
	}

	for _, h := range builtin {
		add(h)
	}
	for _, h := range c.ExtraHosts {
		add(h)
	}

	if c.HostsFile == "" {
		return hosts, nil
	}

	data, err := os.ReadFile(c.HostsFile)
	if err != nil {
		return nil, fmt.Errorf("read CDN hosts file: %w", err)
	}

	var extra hostsFile
	switch strings.ToLower(filepath.Ext(c.HostsFile)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &extra); err != nil {
			return nil, fmt.Errorf("parse CDN hosts file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &extra); err != nil {
			return nil, fmt.Errorf("parse CDN hosts file: %w", err)
		}
	case ".txt", "":
		extra.CDNs = strings.Split(string(data), "\n")
	default:
		return nil, fmt.Errorf("unsupported CDN hosts file extension %q (txt, yaml or json)", filepath.Ext(c.HostsFile))
	}

	for _, h := range extra.CDNs {
		add(h)
	}
	return hosts, nil
}
