package core

import "sort"

// Operation names a gated vault operation
type Operation string

const (
	OpList   Operation = "list"
	OpAdd    Operation = "add"
	OpModify Operation = "modify"
	OpRemove Operation = "remove"
	OpReveal Operation = "reveal"
)

// Operations returns every gated operation
func Operations() []Operation {
	return []Operation{OpList, OpAdd, OpModify, OpRemove, OpReveal}
}

// Actions maps an operation to the permission required to perform it
type Actions map[Operation]string

// DefaultActions returns the permission names used when none are configured
func DefaultActions() Actions {
	return Actions{
		OpList:   "show",
		OpAdd:    "create",
		OpRemove: "remove",
		OpModify: "modify",
		OpReveal: "get_pwd",
	}
}

// Permissions returns the distinct permission names, sorted
func (a Actions) Permissions() []string {
	seen := make(map[string]struct{}, len(a))
	names := make([]string, 0, len(a))
	for _, name := range a {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
