// Package stac models STAC catalog documents and implements the shape-based
// recognition used by the harvest engines. Documents are parsed leniently:
// remote catalogs disagree on which fields they populate, so everything is
// optional and the raw body is retained for knowledge-base output.
package stac

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Link is a typed reference from one catalog document to another.
type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
}

// Document is the in-memory form of a single fetched catalog body.
// Collections is non-nil only when the body carried a `collections` array
// (the paginated API shape).
type Document struct {
	Type        string
	ID          string
	StacVersion string
	Links       []Link
	Collections []Document
	Raw         json.RawMessage
}

// envelope mirrors the wire shape. `collections` is kept raw so a non-array
// value (seen in the wild) degrades to "absent" instead of failing the whole
// document.
type envelope struct {
	Type        string          `json:"type"`
	ID          string          `json:"id"`
	StacVersion string          `json:"stac_version"`
	Links       []Link          `json:"links"`
	Collections json.RawMessage `json:"collections"`
}

// DecodeDocument parses a response body into a Document. It returns an error
// only when the body is not a JSON object; missing fields are fine.
func DecodeDocument(body []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("body is not a JSON object")
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	doc := &Document{
		Type:        env.Type,
		ID:          env.ID,
		StacVersion: env.StacVersion,
		Links:       env.Links,
		Raw:         append(json.RawMessage(nil), trimmed...),
	}

	if isJSONArray(env.Collections) {
		var items []json.RawMessage
		if err := json.Unmarshal(env.Collections, &items); err == nil {
			doc.Collections = make([]Document, 0, len(items))
			for _, item := range items {
				child, err := DecodeDocument(item)
				if err != nil {
					continue
				}
				doc.Collections = append(doc.Collections, *child)
			}
		}
	}

	return doc, nil
}

// HasCollections reports whether the body carried a `collections` array,
// even an empty one.
func (d *Document) HasCollections() bool {
	return d.Collections != nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
