package hal

import (
	"iter"
	"slices"
)

// LinkCollection is an ordered multimap of relation -> links.
//
// A relation holds a single link until a second one is added without
// overwrite; it then renders as an array. Relations iterate in the order
// they were first added.
type LinkCollection struct {
	order []string
	links map[string][]*Link
}

// NewLinkCollection returns an empty collection.
func NewLinkCollection() *LinkCollection {
	return &LinkCollection{links: make(map[string][]*Link)}
}

// Add stores link under its relation. With overwrite the relation ends up
// holding exactly this link; otherwise the link is appended.
func (c *LinkCollection) Add(link *Link, overwrite bool) {
	if link == nil {
		return
	}
	if c.links == nil {
		c.links = make(map[string][]*Link)
	}

	rel := link.Relation()
	existing, ok := c.links[rel]
	if !ok {
		c.order = append(c.order, rel)
	}
	if !ok || overwrite {
		c.links[rel] = []*Link{link}
		return
	}
	c.links[rel] = append(existing, link)
}

// Get returns the links for a relation, or nil if absent.
func (c *LinkCollection) Get(relation string) []*Link {
	return c.links[relation]
}

// First returns the first link for a relation.
func (c *LinkCollection) First(relation string) (*Link, bool) {
	links := c.links[relation]
	if len(links) == 0 {
		return nil, false
	}
	return links[0], true
}

// Has reports whether the relation is present.
func (c *LinkCollection) Has(relation string) bool {
	_, ok := c.links[relation]
	return ok
}

// Remove drops a relation and all of its links.
// Returns false if the relation was not present.
func (c *LinkCollection) Remove(relation string) bool {
	if _, ok := c.links[relation]; !ok {
		return false
	}
	delete(c.links, relation)
	c.order = slices.DeleteFunc(c.order, func(rel string) bool { return rel == relation })
	return true
}

// Len returns the number of relations.
func (c *LinkCollection) Len() int {
	return len(c.order)
}

// All iterates relations in insertion order.
func (c *LinkCollection) All() iter.Seq2[string, []*Link] {
	return func(yield func(string, []*Link) bool) {
		for _, rel := range c.order {
			if !yield(rel, c.links[rel]) {
				return
			}
		}
	}
}
