package schema

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/multierr"
)

// CheckNonNamespacedFields verifies that the named sources can be flattened
// into one result without two of them contributing the same top-level field.
// Every conflict is reported; the returned error combines them.
func CheckNonNamespacedFields(sources map[string]Schema) error {
	names := slices.Sorted(maps.Keys(sources))
	var errs error
	for i, a := range names {
		for _, b := range names[i+1:] {
			errs = multierr.Append(errs, checkPair(a, sources[a], b, sources[b]))
		}
	}
	return errs
}

func checkPair(aName string, a Schema, bName string, b Schema) error {
	overlap := a.HasOverlappingKeysWith(b)
	if overlap == Not {
		return nil
	}
	aFields, aErr := topLevelFields(a)
	bFields, bErr := topLevelFields(b)
	if aErr != nil || bErr != nil {
		return FieldConflictError("", fmt.Sprintf("%s and %s may share fields that cannot be listed", aName, bName))
	}
	var errs error
	for _, field := range aFields {
		if slices.Contains(bFields, field) {
			errs = multierr.Append(errs, FieldConflictError(field,
				fmt.Sprintf("field appears in both %s and %s (%s)", aName, bName, strings.ToLower(overlap.String()))))
		}
	}
	return errs
}

func topLevelFields(s Schema) ([]string, error) {
	paths, _, err := s.EnumerateFieldPaths(1)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if len(p) == 1 {
			out = append(out, p[0])
		}
	}
	return out, nil
}
