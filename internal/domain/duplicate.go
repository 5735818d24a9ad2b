package domain

import "strings"

// NoDuplicate is the sentinel the AI pass writes into duplicate_AI when an
// activity matched nothing. It is a real value on the wire, not an absence.
const NoDuplicate = "NO_DUPLICATE"

// HasDuplicateFlag reports whether an activity was flagged by the duplicate
// pass: a non-blank duplicate_AI that is not the sentinel.
func (a ActivityRecord) HasDuplicateFlag() bool {
	v := strings.TrimSpace(StrVal(a.DuplicateAI))
	return v != "" && v != NoDuplicate
}

// ParseDuplicateGroup splits a duplicate-group value into its member
// incident numbers. The value arrives either bracketed ("[INC1, INC2]") or
// as a bare comma list; blanks and the sentinel parse to no members.
func ParseDuplicateGroup(value string) []string {
	v := strings.TrimSpace(value)
	if v == "" || v == NoDuplicate {
		return nil
	}
	v = strings.TrimPrefix(v, "[")
	v = strings.TrimSuffix(v, "]")
	var members []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			members = append(members, p)
		}
	}
	return members
}

// DuplicateGroups buckets flagged activities by their normalized group
// value, preserving first-seen order. Unflagged activities are skipped.
type DuplicateGroup struct {
	Key     string
	Members []ActivityRecord
}

func DuplicateGroups(records []ActivityRecord) []DuplicateGroup {
	index := make(map[string]int)
	var groups []DuplicateGroup
	for _, rec := range records {
		if !rec.HasDuplicateFlag() {
			continue
		}
		key := strings.Join(ParseDuplicateGroup(StrVal(rec.DuplicateAI)), ",")
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DuplicateGroup{Key: key})
		}
		groups[i].Members = append(groups[i].Members, rec)
	}
	return groups
}
