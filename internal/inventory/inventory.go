// Package inventory loads hosts from a YAML file with defaults and group
// inheritance, keeping the order hosts appear in.
//
//	defaults:
//	  username: gx
//	groups:
//	  web:
//	    platform: linux
//	    data: {role: web}
//	hosts:
//	  web1:
//	    hostname: 10.0.0.1
//	    groups: [web]
package inventory

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

// attrs is one layer of host attributes: a host, a group or the defaults.
type attrs struct {
	Hostname string         `yaml:"hostname"`
	Port     int            `yaml:"port"`
	Username string         `yaml:"username"`
	Password string         `yaml:"password"`
	Platform string         `yaml:"platform"`
	Groups   []string       `yaml:"groups"`
	Data     map[string]any `yaml:"data"`
}

type document struct {
	Defaults attrs            `yaml:"defaults"`
	Groups   map[string]attrs `yaml:"groups"`
	Hosts    yaml.Node        `yaml:"hosts"`
}

// Load reads and parses the inventory file at path.
func Load(fsys afero.Fs, path string) (*api.Inventory, error) {
	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	inv, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("hosts", inv.Len()).Msg("inventory loaded")
	return inv, nil
}

// Parse builds an inventory from YAML. Host attributes override those of
// their groups, in the order listed, which override the defaults. Data maps
// are merged key by key the same way.
func Parse(content []byte) (*api.Inventory, error) {
	var doc document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse inventory: %w", err)
	}
	inv := api.NewInventory()
	switch {
	case doc.Hosts.Kind == 0, doc.Hosts.Tag == "!!null":
		return inv, nil
	case doc.Hosts.Kind == yaml.MappingNode:
	default:
		return nil, fmt.Errorf("parse inventory: hosts must be a mapping (line %d)", doc.Hosts.Line)
	}

	for i := 0; i+1 < len(doc.Hosts.Content); i += 2 {
		key, val := doc.Hosts.Content[i], doc.Hosts.Content[i+1]
		name := key.Value
		if _, dup := inv.Get(name); dup {
			return nil, fmt.Errorf("parse inventory: duplicate host %q (line %d)", name, key.Line)
		}
		var own attrs
		if err := val.Decode(&own); err != nil {
			return nil, fmt.Errorf("parse inventory: host %s: %w", name, err)
		}
		host, err := resolve(name, own, doc)
		if err != nil {
			return nil, fmt.Errorf("parse inventory: %w", err)
		}
		inv.Add(host)
	}
	return inv, nil
}

func resolve(name string, own attrs, doc document) (*api.Host, error) {
	layers := []attrs{own}
	seen := map[string]bool{}
	var walk func(groups []string) error
	walk = func(groups []string) error {
		for _, g := range groups {
			if seen[g] {
				continue
			}
			seen[g] = true
			ga, ok := doc.Groups[g]
			if !ok {
				return fmt.Errorf("host %s: unknown group %q", name, g)
			}
			layers = append(layers, ga)
			if err := walk(ga.Groups); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(own.Groups); err != nil {
		return nil, err
	}
	layers = append(layers, doc.Defaults)

	h := &api.Host{Name: name, Groups: append([]string(nil), own.Groups...), Data: map[string]any{}}
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if l.Hostname != "" {
			h.Hostname = l.Hostname
		}
		if l.Port != 0 {
			h.Port = l.Port
		}
		if l.Username != "" {
			h.Username = l.Username
		}
		if l.Password != "" {
			h.Password = l.Password
		}
		if l.Platform != "" {
			h.Platform = l.Platform
		}
		for k, v := range l.Data {
			h.Data[k] = v
		}
	}
	if h.Hostname == "" {
		h.Hostname = name
	}
	return h, nil
}
