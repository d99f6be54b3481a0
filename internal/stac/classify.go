package stac

import "strings"

// Classification is the result of inspecting a single document.
type Classification struct {
	IsCollection bool
	ChildLinks   []Link
}

// Classify decides whether a document is harvestable catalog data and
// extracts its outgoing links whose rel is in rels. A document counts as
// catalog data when its type is "catalog" or "collection" (case-insensitive)
// or when it declares any stac_version. Pure function of its inputs.
func Classify(doc *Document, rels map[string]struct{}) Classification {
	if doc == nil {
		return Classification{}
	}

	typ := strings.ToLower(doc.Type)
	isCollection := typ == "catalog" || typ == "collection" || doc.StacVersion != ""

	var children []Link
	for _, link := range doc.Links {
		if _, ok := rels[link.Rel]; ok {
			children = append(children, link)
		}
	}

	return Classification{IsCollection: isCollection, ChildLinks: children}
}

// RelSet builds a rel lookup set for Classify.
func RelSet(rels ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(rels))
	for _, rel := range rels {
		set[rel] = struct{}{}
	}
	return set
}
