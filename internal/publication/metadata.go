package publication

import (
	"encoding/json"
	"slices"
	"strings"
)

// Metadata is the descriptive metadata of a publication.
type Metadata struct {
	Identifier         string
	Title              MultilangString
	Subtitle           MultilangString
	Languages          []string
	Authors            []string
	Publisher          string
	Published          string
	Description        string
	ReadingProgression string
}

type metadataJSON struct {
	Identifier         string          `json:"identifier,omitempty"`
	Title              json.RawMessage `json:"title,omitempty"`
	Subtitle           json.RawMessage `json:"subtitle,omitempty"`
	Languages          []string        `json:"language,omitempty"`
	Authors            []string        `json:"author,omitempty"`
	Publisher          string          `json:"publisher,omitempty"`
	Published          string          `json:"published,omitempty"`
	Description        string          `json:"description,omitempty"`
	ReadingProgression string          `json:"readingProgression,omitempty"`
}

// TitleForLang returns the title variant for lang, if one was declared.
func (m Metadata) TitleForLang(lang string) (string, bool) {
	return m.Title.ResolveLang(lang)
}

// PrimaryLanguage returns the first declared language.
func (m Metadata) PrimaryLanguage() string {
	if len(m.Languages) == 0 {
		return ""
	}
	return m.Languages[0]
}

// ISBN extracts an ISBN from an "urn:isbn:" identifier.
func (m Metadata) ISBN() string {
	id := strings.TrimSpace(m.Identifier)
	if len(id) < len("urn:isbn:") || !strings.EqualFold(id[:len("urn:isbn:")], "urn:isbn:") {
		return ""
	}
	isbn := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == 'X' || r == 'x' {
			return r
		}
		return -1
	}, id[len("urn:isbn:"):])
	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return strings.ToUpper(isbn)
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	m.Title = m.Title.Clone()
	m.Subtitle = m.Subtitle.Clone()
	m.Languages = slices.Clone(m.Languages)
	m.Authors = slices.Clone(m.Authors)
	return m
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	out := metadataJSON{
		Identifier:         m.Identifier,
		Languages:          m.Languages,
		Authors:            m.Authors,
		Publisher:          m.Publisher,
		Published:          m.Published,
		Description:        m.Description,
		ReadingProgression: m.ReadingProgression,
	}
	var err error
	if !m.Title.IsZero() {
		if out.Title, err = json.Marshal(m.Title); err != nil {
			return nil, err
		}
	}
	if !m.Subtitle.IsZero() {
		if out.Subtitle, err = json.Marshal(m.Subtitle); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes metadata. The default of a localized title is its
// first entry.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var in metadataJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*m = Metadata{
		Identifier:         in.Identifier,
		Languages:          in.Languages,
		Authors:            in.Authors,
		Publisher:          in.Publisher,
		Published:          in.Published,
		Description:        in.Description,
		ReadingProgression: in.ReadingProgression,
	}
	if err := m.Title.UnmarshalJSON(in.Title); err != nil {
		return err
	}
	return m.Subtitle.UnmarshalJSON(in.Subtitle)
}
