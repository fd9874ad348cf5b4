package convert

import (
	"sort"

	"langcodec/internal/domain"
)

// MergeResources merges resources of one language into one, resolving
// duplicate ids with strategy. The result is sorted by id and keeps the
// metadata of the first resource.
func MergeResources(resources []domain.Resource, strategy domain.ConflictStrategy) (domain.Resource, error) {
	if len(resources) == 0 {
		return domain.Resource{}, domain.NewError(domain.CodeInvalidResource, "no resources to merge")
	}
	lang := resources[0].Metadata.Language
	for i, r := range resources {
		if r.Metadata.Language != lang {
			return domain.Resource{}, domain.NewError(domain.CodeInvalidResource,
				"cannot merge resources with different languages: resource %d has language %q, but first resource has language %q",
				i+1, r.Metadata.Language, lang)
		}
	}

	merged := resources[0].Clone()
	entries := map[string]domain.Entry{}
	skipped := map[string]bool{}
	for _, r := range resources {
		for _, e := range r.Entries {
			switch strategy {
			case domain.ConflictFirst:
				if _, ok := entries[e.ID]; !ok {
					entries[e.ID] = e.Clone()
				}
			case domain.ConflictSkip:
				if skipped[e.ID] {
					continue
				}
				if _, ok := entries[e.ID]; ok {
					delete(entries, e.ID)
					skipped[e.ID] = true
					continue
				}
				entries[e.ID] = e.Clone()
			default:
				entries[e.ID] = e.Clone()
			}
		}
	}

	merged.Entries = make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		merged.Entries = append(merged.Entries, e)
	}
	sort.Slice(merged.Entries, func(i, j int) bool { return merged.Entries[i].ID < merged.Entries[j].ID })
	return merged, nil
}
