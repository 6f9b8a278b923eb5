package publication

import (
	"encoding/json"
	"fmt"
	"slices"
)

// RelCover marks a manifest link as a cover candidate.
const RelCover = "cover"

// Link points to a resource declared by the publication manifest.
type Link struct {
	Href   string
	Type   string
	Title  string
	Rels   []string
	Width  int
	Height int
}

// HasRel reports whether the link carries the given relation.
func (l Link) HasRel(rel string) bool {
	return slices.Contains(l.Rels, rel)
}

type linkJSON struct {
	Href   string          `json:"href"`
	Type   string          `json:"type,omitempty"`
	Title  string          `json:"title,omitempty"`
	Rel    json.RawMessage `json:"rel,omitempty"`
	Width  int             `json:"width,omitempty"`
	Height int             `json:"height,omitempty"`
}

// MarshalJSON writes a single relation as a string and several as an array.
func (l Link) MarshalJSON() ([]byte, error) {
	out := linkJSON{
		Href:   l.Href,
		Type:   l.Type,
		Title:  l.Title,
		Width:  l.Width,
		Height: l.Height,
	}
	switch len(l.Rels) {
	case 0:
	case 1:
		raw, err := json.Marshal(l.Rels[0])
		if err != nil {
			return nil, err
		}
		out.Rel = raw
	default:
		raw, err := json.Marshal(l.Rels)
		if err != nil {
			return nil, err
		}
		out.Rel = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts "rel" either as a string or as an array of strings.
func (l *Link) UnmarshalJSON(data []byte) error {
	var in linkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Href == "" {
		return fmt.Errorf("link is missing href")
	}

	rels, err := parseRels(in.Rel)
	if err != nil {
		return fmt.Errorf("link %s: %w", in.Href, err)
	}

	*l = Link{
		Href:   in.Href,
		Type:   in.Type,
		Title:  in.Title,
		Rels:   rels,
		Width:  in.Width,
		Height: in.Height,
	}
	return nil
}

func parseRels(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil, nil
		}
		return []string{single}, nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("rel must be a string or an array of strings")
	}
	return many, nil
}
