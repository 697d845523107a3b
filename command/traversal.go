package command

import "regexp"

// traversalPattern matches a ".." path segment, the exact pattern named in
// spec.md §4.2 and §8 (V1, scenario 5).
var traversalPattern = regexp.MustCompile(`(^|[/\\])\.\.([/\\]|$)`)

func hasTraversal(s string) bool {
	return traversalPattern.MatchString(s)
}
