package publication

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// AlternateValue is a localized variant of a string, for example an
// alternate-script title.
type AlternateValue struct {
	Lang  string
	Value string
}

// UndeterminedLang is the tag the default value is stored under when its
// language is unknown.
const UndeterminedLang = "und"

// MultilangString holds a default value and an optional set of localized
// variants keyed by BCP 47 language tag.
//
// The localized map is only populated when the source declares alternates. In
// that case the default value is also stored under its own language, so every
// value a caller can observe is reachable through the map.
type MultilangString struct {
	value     string
	hasValue  bool
	lang      string
	localized map[string]string
}

// NewMultilangString returns a string with a default value and no variants.
func NewMultilangString(value string) MultilangString {
	return MultilangString{value: value, hasValue: true}
}

// Resolve returns the default value.
func (s MultilangString) Resolve() (string, bool) {
	return s.value, s.hasValue
}

// String returns the default value, or an empty string when unset.
func (s MultilangString) String() string {
	return s.value
}

// Lang returns the tag the default value is stored under. It is empty while
// the string has no variants.
func (s MultilangString) Lang() string {
	return s.lang
}

// ResolveLang returns the variant registered for lang. It never falls back to
// the default value or to another language.
func (s MultilangString) ResolveLang(lang string) (string, bool) {
	if len(s.localized) == 0 {
		return "", false
	}
	v, ok := s.localized[normalizeLang(lang)]
	return v, ok
}

// Set stores value under lang, replacing any previous variant for that tag.
// The first variant of an unset string becomes its default. A default without
// a language is kept reachable under UndeterminedLang.
func (s *MultilangString) Set(lang, value string) {
	tag := normalizeLang(lang)
	if tag == "" {
		return
	}
	if !s.hasValue {
		s.value, s.hasValue, s.lang = value, true, tag
	}
	if s.lang == "" {
		s.lang = UndeterminedLang
		s.put(s.lang, s.value)
	}
	s.put(tag, value)
	if tag == s.lang {
		s.value = value
	}
}

func (s *MultilangString) put(tag, value string) {
	if s.localized == nil {
		s.localized = make(map[string]string)
	}
	s.localized[tag] = value
}

// PopulateFrom resets s to primary and fills the localized map from
// alternates. The primary value is written back under primaryLang, or
// UndeterminedLang when it is empty, only when at least one alternate was
// stored, so single-language strings keep an empty map.
func (s *MultilangString) PopulateFrom(primary, primaryLang string, alternates []AlternateValue) {
	*s = MultilangString{value: primary, hasValue: true}

	for _, alt := range alternates {
		if tag := normalizeLang(alt.Lang); tag != "" && alt.Value != "" {
			s.put(tag, alt.Value)
		}
	}
	if len(s.localized) == 0 {
		return
	}

	s.lang = normalizeLang(primaryLang)
	if s.lang == "" {
		s.lang = UndeterminedLang
	}
	s.put(s.lang, primary)
}

// Languages returns the tags of every localized variant, sorted.
func (s MultilangString) Languages() []string {
	return slices.Sorted(maps.Keys(s.localized))
}

// IsZero reports whether neither a default nor a variant is set.
func (s MultilangString) IsZero() bool {
	return !s.hasValue && len(s.localized) == 0
}

// Clone returns a copy that does not share the localized map.
func (s MultilangString) Clone() MultilangString {
	s.localized = maps.Clone(s.localized)
	return s
}

// MarshalJSON writes the localized map when variants exist and the plain
// default value otherwise. The default's tag is written first, followed by
// the other tags in sorted order.
func (s MultilangString) MarshalJSON() ([]byte, error) {
	if len(s.localized) == 0 {
		if !s.hasValue {
			return []byte("null"), nil
		}
		return json.Marshal(s.value)
	}

	tags := s.Languages()
	if i := slices.Index(tags, s.lang); i > 0 {
		tags = append(append([]string{s.lang}, tags[:i]...), tags[i+1:]...)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tag := range tags {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tag)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s.localized[tag])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts a plain string or a language map. For a map the
// default is the first entry in document order, and later entries whose tags
// canonicalize to the same tag replace earlier ones.
func (s *MultilangString) UnmarshalJSON(data []byte) error {
	*s = MultilangString{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = NewMultilangString(single)
		return nil
	}

	errInvalid := fmt.Errorf("multilingual string must be a string or a language map")
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return errInvalid
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errInvalid
		}
		lang, _ := tok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return errInvalid
		}
		s.Set(lang, value)
	}
	if _, err := dec.Token(); err != nil {
		return errInvalid
	}
	return nil
}

// normalizeLang canonicalizes a BCP 47 tag. Tags that do not parse are kept
// as written, minus surrounding whitespace.
func normalizeLang(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}
