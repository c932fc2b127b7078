package entities

import (
	"bytes"
	"encoding/json"
)

// Section is a titled block of encyclopedia text.
type Section struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Sections keeps document order and marshals as a JSON object keyed by title.
type Sections []Section

// Set replaces the text of an existing title in place, or appends a new section.
func (s Sections) Set(title, text string) Sections {
	for i := range s {
		if s[i].Title == title {
			s[i].Text = text
			return s
		}
	}
	return append(s, Section{Title: title, Text: text})
}

// Merge applies every section of other in order.
func (s Sections) Merge(other Sections) Sections {
	for _, sec := range other {
		s = s.Set(sec.Title, sec.Text)
	}
	return s
}

// MarshalJSON writes the sections as an ordered object.
func (s Sections) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sec := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sec.Title)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(sec.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object produced by MarshalJSON, keeping key order.
func (s *Sections) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	out := Sections{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		title, _ := tok.(string)
		var text string
		if err := dec.Decode(&text); err != nil {
			return err
		}
		out = out.Set(title, text)
	}
	*s = out
	return nil
}

// EncyclopediaInfo is reference material for a disease name.
type EncyclopediaInfo struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Sections     Sections `json:"sections"`
	PageURL      string   `json:"page_url"`
	SourceDomain string   `json:"source_domain"`
	Exists       bool     `json:"exists"`
}

// AbsentEncyclopediaInfo is returned whenever no page could be resolved.
func AbsentEncyclopediaInfo(disease string) *EncyclopediaInfo {
	return &EncyclopediaInfo{
		Title:    disease,
		Sections: Sections{},
	}
}
