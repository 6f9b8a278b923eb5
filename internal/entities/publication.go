package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// Publication is a publication imported into the library. The full metadata is
// kept as JSON; the default title and language are denormalized for listing.
type Publication struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Identifier   string    `gorm:"index;size:512" json:"identifier"`
	Title        string    `gorm:"index;size:512" json:"title"`
	Language     string    `gorm:"size:35" json:"language,omitempty"`
	Author       string    `gorm:"index;size:256" json:"author,omitempty"`
	RootPath     string    `gorm:"size:1024" json:"root_path"`
	MetadataJSON string    `gorm:"type:text" json:"-"`
	Links        []Link    `gorm:"foreignKey:PublicationID;constraint:OnDelete:CASCADE" json:"links,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LinkGroup tells which manifest collection a link was declared in.
type LinkGroup string

const (
	LinkGroupLinks        LinkGroup = "links"
	LinkGroupReadingOrder LinkGroup = "reading_order"
	LinkGroupResources    LinkGroup = "resources"
)

// Link is one manifest link. Position preserves declaration order within its group.
type Link struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PublicationID uint      `gorm:"index" json:"publication_id"`
	Group         LinkGroup `gorm:"size:20;index" json:"group"`
	Position      int       `json:"position"`
	Href          string    `gorm:"size:2048" json:"href"`
	Type          string    `gorm:"size:255" json:"type,omitempty"`
	Title         string    `gorm:"size:512" json:"title,omitempty"`
	RelsJSON      string    `gorm:"column:rels;type:text" json:"-"`
	Width         int       `json:"width,omitempty"`
	Height        int       `json:"height,omitempty"`
}

func (Publication) TableName() string {
	return "publications"
}

func (Link) TableName() string {
	return "publication_links"
}

// SetRels stores rels as a JSON array. An empty list is stored as "".
func (l *Link) SetRels(rels []string) error {
	if len(rels) == 0 {
		l.RelsJSON = ""
		return nil
	}
	data, err := json.Marshal(rels)
	if err != nil {
		return err
	}
	l.RelsJSON = string(data)
	return nil
}

// RelList decodes the stored relations.
func (l Link) RelList() ([]string, error) {
	if l.RelsJSON == "" {
		return nil, nil
	}
	var rels []string
	if err := json.Unmarshal([]byte(l.RelsJSON), &rels); err != nil {
		return nil, fmt.Errorf("decode rels of link %d: %w", l.ID, err)
	}
	if len(rels) == 0 {
		return nil, nil
	}
	return rels, nil
}
