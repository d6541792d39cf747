package changelog

import (
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
)

// ComputeChangelog compares two manifests. Entries are grouped Added,
// Updated, Removed and sorted by byte-wise name order within each group, so
// the result does not depend on manifest order. A nil previous manifest is
// treated as empty; a nil current manifest is a caller error.
func ComputeChangelog(previous, current *model.Manifest) ([]model.ChangeEntry, error) {
	if current == nil {
		return nil, goerr.Wrap(types.ErrInvalidArgument, "current manifest is nil")
	}

	var added, updated, removed []model.ChangeEntry

	for _, cur := range current.Entries() {
		prev, ok := previous.Get(cur.Name)
		switch {
		case !ok:
			added = append(added, model.ChangeEntry{
				Name:       cur.Name,
				Kind:       model.ChangeAdded,
				NewVersion: cur.Version,
			})
		case prev.Version != cur.Version:
			updated = append(updated, model.ChangeEntry{
				Name:       cur.Name,
				Kind:       model.ChangeUpdated,
				OldVersion: prev.Version,
				NewVersion: cur.Version,
			})
		}
	}

	for _, prev := range previous.Entries() {
		if !current.Has(prev.Name) {
			removed = append(removed, model.ChangeEntry{
				Name:       prev.Name,
				Kind:       model.ChangeRemoved,
				OldVersion: prev.Version,
			})
		}
	}

	byName := func(a, b model.ChangeEntry) int { return strings.Compare(a.Name, b.Name) }
	slices.SortFunc(added, byName)
	slices.SortFunc(updated, byName)
	slices.SortFunc(removed, byName)

	entries := make([]model.ChangeEntry, 0, len(added)+len(updated)+len(removed))
	entries = append(entries, added...)
	entries = append(entries, updated...)
	entries = append(entries, removed...)
	return entries, nil
}
