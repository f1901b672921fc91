// Package catalog maps muscle groups to the ordered exercises a trainer can
// pick from.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Group is one muscle group with its exercises in display order.
type Group struct {
	Name      string   `yaml:"name" json:"name"`
	Exercises []string `yaml:"exercises" json:"exercises"`
}

type file struct {
	Groups []Group `yaml:"groups"`
}

// Catalog is an immutable muscle group lookup.
type Catalog struct {
	groups []Group
	index  map[string]int
}

// Default returns the catalog shipped with the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(f.Groups) == 0 {
		return nil, fmt.Errorf("catalog has no groups")
	}

	c := &Catalog{index: make(map[string]int, len(f.Groups))}
	for _, g := range f.Groups {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return nil, fmt.Errorf("group without name")
		}
		if _, dup := c.index[name]; dup {
			return nil, fmt.Errorf("duplicate group %q", name)
		}
		exercises := make([]string, 0, len(g.Exercises))
		for _, ex := range g.Exercises {
			ex = strings.TrimSpace(ex)
			if ex == "" {
				return nil, fmt.Errorf("group %q has an empty exercise name", name)
			}
			exercises = append(exercises, ex)
		}
		c.index[name] = len(c.groups)
		c.groups = append(c.groups, Group{Name: name, Exercises: exercises})
	}
	return c, nil
}

// Groups returns the muscle group keys in catalog order.
func (c *Catalog) Groups() []string {
	names := make([]string, len(c.groups))
	for i, g := range c.groups {
		names[i] = g.Name
	}
	return names
}

// ExercisesFor returns the exercises of a muscle group. An empty or unknown
// key yields an empty, non-nil slice.
func (c *Catalog) ExercisesFor(group string) []string {
	i, ok := c.index[group]
	if !ok {
		return []string{}
	}
	return append([]string{}, c.groups[i].Exercises...)
}

// All returns a copy of every group.
func (c *Catalog) All() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		out[i] = Group{Name: g.Name, Exercises: append([]string{}, g.Exercises...)}
	}
	return out
}
