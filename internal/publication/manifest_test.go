package publication

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `{
	"metadata": {
		"identifier": "urn:isbn:978-0-14-243724-7",
		"title": "Moby-Dick",
		"author": ["Herman Melville"],
		"language": ["en"]
	},
	"links": [
		{"href": "manifest.json", "rel": "self", "type": "application/webpub+json"}
	],
	"readingOrder": [
		{"href": "chapter1.xhtml", "type": "application/xhtml+xml"}
	],
	"resources": [
		{"href": "images/cover.jpg", "rel": ["cover", "alternate"], "type": "image/jpeg", "width": 600, "height": 900},
		{"href": "images/cover-small.jpg", "rel": "cover", "type": "image/jpeg"}
	]
}`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	title, ok := m.Metadata.Title.Resolve()
	assert.True(t, ok)
	assert.Equal(t, "Moby-Dick", title)
	assert.Equal(t, "9780142437247", m.Metadata.ISBN())
	assert.Equal(t, "en", m.Metadata.PrimaryLanguage())

	covers := m.LinksWithRel(RelCover)
	require.Len(t, covers, 2)
	assert.Equal(t, "images/cover.jpg", covers[0].Href)
	assert.Equal(t, 600, covers[0].Width)
	assert.Equal(t, "images/cover-small.jpg", covers[1].Href)
	assert.True(t, covers[0].HasRel("alternate"))
}

func TestParseManifest_Invalid(t *testing.T) {
	_, err := ParseManifest(strings.NewReader(`{"links": [{"rel": "cover"}]}`))
	assert.Error(t, err)

	_, err = ParseManifest(strings.NewReader(`{"links": [{"href": "a", "rel": 3}]}`))
	assert.Error(t, err)
}

func TestManifest_LinksWithRelOrder(t *testing.T) {
	m := Manifest{
		Links:        []Link{{Href: "a", Rels: []string{RelCover}}},
		ReadingOrder: []Link{{Href: "b", Rels: []string{RelCover}}},
		Resources:    []Link{{Href: "c"}, {Href: "d", Rels: []string{"alternate", RelCover}}},
	}

	var hrefs []string
	for _, l := range m.LinksWithRel(RelCover) {
		hrefs = append(hrefs, l.Href)
	}
	assert.Equal(t, []string{"a", "b", "d"}, hrefs)

	link, ok := m.LinkWithHref("c")
	assert.True(t, ok)
	assert.Equal(t, "c", link.Href)
}

func TestManifest_RoundTripKeepsRelShape(t *testing.T) {
	m, err := ParseManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rel":["cover","alternate"]`)
	assert.Contains(t, string(data), `"rel":"cover"`)
	assert.Contains(t, string(data), `"title":"Moby-Dick"`)
}

func TestManifest_CloneIsDeep(t *testing.T) {
	m, err := ParseManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	clone := m.Clone()
	clone.Resources[0].Rels[0] = "changed"
	clone.Metadata.Authors[0] = "Someone else"

	assert.Equal(t, RelCover, m.Resources[0].Rels[0])
	assert.Equal(t, "Herman Melville", m.Metadata.Authors[0])
}

func TestMetadata_ISBN(t *testing.T) {
	for id, want := range map[string]string{
		"urn:isbn:0-306-40615-2": "0306406152",
		"URN:ISBN:080442957x":    "080442957X",
		"urn:uuid:1234":          "",
		"urn:isbn:123":           "",
		"":                       "",
	} {
		assert.Equal(t, want, Metadata{Identifier: id}.ISBN(), id)
	}
}
