package catalog

import "github.com/spiffcs/storefront/internal/model"

// MergeUnique appends incoming to existing, dropping any product whose ID
// has already been seen. The first occurrence wins, so the result depends
// only on the order of its inputs. Neither input slice is modified.
func MergeUnique(existing, incoming []model.Product) []model.Product {
	seen := make(map[int]struct{}, len(existing)+len(incoming))
	out := make([]model.Product, 0, len(existing)+len(incoming))

	for _, list := range [][]model.Product{existing, incoming} {
		for _, p := range list {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
