package tools

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Catalog is an ordered set of tools with unique names.
// A catalog is built once and is read-only afterwards.
type Catalog struct {
	tools []*boundTool
	index map[string]int
}

// NewCatalog returns an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		index: make(map[string]int),
	}
}

// NewRemoteCatalog returns a catalog of descriptors with no local implementation,
// each owned by the endpoint.
// For duplicate names the first descriptor is kept.
func NewRemoteCatalog(endpoint string, list []ToolDescriptor) *Catalog {
	c := NewCatalog()
	for _, d := range list {
		if _, ok := c.index[d.Name]; ok {
			continue
		}
		c.add(d.WithEndpoint(endpoint), nil)
	}
	return c
}

func (c *Catalog) add(d ToolDescriptor, call Callable) {
	c.index[d.Name] = len(c.tools)
	c.tools = append(c.tools, &boundTool{desc: d, call: call})
}

// Len returns the number of tools
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tools)
}

// List returns descriptors in declaration order
func (c *Catalog) List() []ToolDescriptor {
	if c == nil {
		return nil
	}
	res := make([]ToolDescriptor, len(c.tools))
	for i, t := range c.tools {
		res[i] = t.desc.Clone()
	}
	return res
}

// Names returns tool names in declaration order
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	res := make([]string, len(c.tools))
	for i, t := range c.tools {
		res[i] = t.desc.Name
	}
	return res
}

// Get returns the named descriptor
func (c *Catalog) Get(name string) (ToolDescriptor, bool) {
	if c == nil {
		return ToolDescriptor{}, false
	}
	if i, ok := c.index[name]; ok {
		return c.tools[i].desc.Clone(), true
	}
	return ToolDescriptor{}, false
}

// Tool returns the named tool
func (c *Catalog) Tool(name string) (ITool, bool) {
	if c == nil {
		return nil, false
	}
	if i, ok := c.index[name]; ok {
		return c.tools[i], true
	}
	return nil, false
}

// WithEndpoint returns a copy of the catalog owned by the endpoint
func (c *Catalog) WithEndpoint(endpoint string) *Catalog {
	res := NewCatalog()
	if c == nil {
		return res
	}
	for _, t := range c.tools {
		res.add(t.desc.WithEndpoint(endpoint), t.call)
	}
	return res
}

// Digest returns a hash over tool names and input schemas,
// it changes whenever the catalog presented to a model changes.
func (c *Catalog) Digest() string {
	h := xxhash.New()
	if c != nil {
		for _, t := range c.tools {
			_, _ = h.WriteString(t.desc.Name)
			_, _ = h.Write([]byte{0})
			_, _ = h.WriteString(t.desc.Description)
			_, _ = h.Write([]byte{0})
			js, _ := json.Marshal(t.desc.InputSchema())
			_, _ = h.Write(js)
			_, _ = h.Write([]byte{0})
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
