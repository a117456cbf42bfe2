// Package metadata keeps per-dataset information needed to present results, such as class
// names and the colours used to draw them.
package metadata

import (
	"image/color"
	"slices"
	"sort"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Metadata describes a dataset.
type Metadata struct {
	Name         string
	ThingClasses []string
	ThingColors  []color.RGBA
}

// ColorOf returns the colour of class, falling back to white for unknown classes.
func (md *Metadata) ColorOf(class int) color.RGBA {
	if md == nil || class < 0 || class >= len(md.ThingColors) {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return md.ThingColors[class]
}

// ClassName returns the name of class and whether it is known.
func (md *Metadata) ClassName(class int) (string, bool) {
	if md == nil || class < 0 || class >= len(md.ThingClasses) {
		return "", false
	}
	return md.ThingClasses[class], true
}

// Palette returns n colours evenly spaced in hue in HCL space, so that neighbouring classes
// are easy to tell apart.
func Palette(n int) []color.RGBA {
	colors := make([]color.RGBA, 0, n)
	for i := 0; i < n; i++ {
		c := colorful.Hcl(360*float64(i)/float64(n), 0.6, 0.7).Clamped()
		r, g, b := c.RGB255()
		colors = append(colors, color.RGBA{R: r, G: g, B: b, A: 255})
	}
	return colors
}

// ParseColors parses "#rrggbb" strings.
func ParseColors(hexes []string) ([]color.RGBA, error) {
	colors := make([]color.RGBA, 0, len(hexes))
	for _, hex := range hexes {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, errors.Wrapf(err, "bad colour %q", hex)
		}
		r, g, b := c.RGB255()
		colors = append(colors, color.RGBA{R: r, G: g, B: b, A: 255})
	}
	return colors, nil
}

// Catalog maps dataset names to their metadata. It is safe for concurrent use.
type Catalog struct {
	mu       sync.Mutex
	datasets map[string]*Metadata
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{datasets: map[string]*Metadata{}}
}

// Register adds the metadata of a dataset. Missing colours are filled from Palette.
func (c *Catalog) Register(md Metadata) error {
	if err := complete(&md); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.datasets[md.Name]; ok {
		return errors.Errorf("dataset %q is already registered", md.Name)
	}
	c.datasets[md.Name] = &md
	return nil
}

// GetOrRegister returns the metadata registered under md.Name, registering md when the name is
// free. A registered entry must list the same classes as md.
func (c *Catalog) GetOrRegister(md Metadata) (*Metadata, error) {
	if err := complete(&md); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.datasets[md.Name]; ok {
		if !slices.Equal(existing.ThingClasses, md.ThingClasses) {
			return nil, errors.Errorf("dataset %q is already registered with classes %v", md.Name, existing.ThingClasses)
		}
		return existing, nil
	}
	c.datasets[md.Name] = &md
	return &md, nil
}

func complete(md *Metadata) error {
	if md.Name == "" {
		return errors.New("cannot register metadata without a dataset name")
	}
	if md.ThingColors == nil {
		md.ThingColors = Palette(len(md.ThingClasses))
	}
	if len(md.ThingColors) != len(md.ThingClasses) {
		return errors.Errorf("dataset %q has %d colours for %d classes", md.Name, len(md.ThingColors), len(md.ThingClasses))
	}
	return nil
}

// Get returns the metadata of a registered dataset.
func (c *Catalog) Get(name string) (*Metadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	md, ok := c.datasets[name]
	if !ok {
		return nil, errors.Errorf("dataset %q is not registered", name)
	}
	return md, nil
}

// Names returns the registered dataset names in order.
func (c *Catalog) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.datasets))
	for name := range c.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultCatalog = NewCatalog()

// Register adds md to the global catalog.
func Register(md Metadata) error {
	return defaultCatalog.Register(md)
}

// GetOrRegister looks md.Name up in the global catalog, registering md when it is missing.
func GetOrRegister(md Metadata) (*Metadata, error) {
	return defaultCatalog.GetOrRegister(md)
}

// Get looks name up in the global catalog.
func Get(name string) (*Metadata, error) {
	return defaultCatalog.Get(name)
}
