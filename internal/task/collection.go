package task

import "fmt"

// Collection is an indexed, read-only set of descriptors. It keeps the
// declaration order for deterministic iteration and answers lookups by name
// in constant time.
type Collection struct {
	order []*Descriptor
	index map[string]*Descriptor
}

// NewCollection indexes descs. Names must be unique; validation is expected
// to have rejected duplicates already, so a clash here is reported as an
// error rather than resolved.
func NewCollection(descs []Descriptor) (*Collection, error) {
	c := &Collection{
		order: make([]*Descriptor, 0, len(descs)),
		index: make(map[string]*Descriptor, len(descs)),
	}
	for i := range descs {
		d := descs[i]
		if _, exists := c.index[d.Name]; exists {
			return nil, fmt.Errorf("duplicate task name %q", d.Name)
		}
		c.order = append(c.order, &d)
		c.index[d.Name] = &d
	}
	return c, nil
}

// Get returns the descriptor called name.
func (c *Collection) Get(name string) (*Descriptor, bool) {
	d, ok := c.index[name]
	return d, ok
}

// Len returns the number of descriptors.
func (c *Collection) Len() int {
	return len(c.order)
}

// All returns the descriptors in declaration order. The slice is a copy.
func (c *Collection) All() []*Descriptor {
	out := make([]*Descriptor, len(c.order))
	copy(out, c.order)
	return out
}

// Names returns the task names in declaration order.
func (c *Collection) Names() []string {
	names := make([]string, len(c.order))
	for i, d := range c.order {
		names[i] = d.Name
	}
	return names
}
