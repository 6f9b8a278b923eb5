package publication

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// Manifest is the parsed description of a publication: its metadata and every
// resource it declares.
type Manifest struct {
	Metadata     Metadata `json:"metadata"`
	Links        []Link   `json:"links,omitempty"`
	ReadingOrder []Link   `json:"readingOrder,omitempty"`
	Resources    []Link   `json:"resources,omitempty"`
}

// LinksWithRel returns every link carrying rel, searching Links, then
// ReadingOrder, then Resources. Declaration order is preserved.
func (m Manifest) LinksWithRel(rel string) []Link {
	var found []Link
	for _, group := range [][]Link{m.Links, m.ReadingOrder, m.Resources} {
		for _, link := range group {
			if link.HasRel(rel) {
				found = append(found, link)
			}
		}
	}
	return found
}

// LinkWithHref returns the first declared link pointing to href.
func (m Manifest) LinkWithHref(href string) (Link, bool) {
	for _, group := range [][]Link{m.Links, m.ReadingOrder, m.Resources} {
		for _, link := range group {
			if link.Href == href {
				return link, true
			}
		}
	}
	return Link{}, false
}

// Clone returns a deep copy so that services never share mutable state with
// the owning publication.
func (m Manifest) Clone() Manifest {
	return Manifest{
		Metadata:     m.Metadata.Clone(),
		Links:        cloneLinks(m.Links),
		ReadingOrder: cloneLinks(m.ReadingOrder),
		Resources:    cloneLinks(m.Resources),
	}
}

func cloneLinks(links []Link) []Link {
	if links == nil {
		return nil
	}
	out := make([]Link, len(links))
	for i, link := range links {
		link.Rels = slices.Clone(link.Rels)
		out[i] = link
	}
	return out
}

// ParseManifest decodes a JSON publication manifest.
func ParseManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}
