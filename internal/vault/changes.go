package vault

import (
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeKind classifies an unsaved change
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Modified
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Change is one label that differs from the last saved state
type Change struct {
	Label string
	Kind  ChangeKind
}

// Pending lists the labels that differ from the last Load or Save.
// A label removed and added again is reported as modified.
func (s *Store) Pending() []Change {
	if !s.changed {
		return nil
	}
	return s.diff()
}

func (s *Store) diff() []Change {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(labelLines(s.saved), labelLines(s.order))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	kinds := make(map[string]ChangeKind)
	var order []string
	record := func(label string, kind ChangeKind) {
		prev, seen := kinds[label]
		if !seen {
			order = append(order, label)
			kinds[label] = kind
			return
		}
		if prev != kind {
			kinds[label] = Modified
		}
	}

	for _, d := range diffs {
		for _, label := range splitLabelLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				record(label, Added)
			case diffmatchpatch.DiffDelete:
				record(label, Removed)
			case diffmatchpatch.DiffEqual:
				if _, ok := s.touched[label]; ok {
					record(label, Modified)
				}
			}
		}
	}

	changes := make([]Change, 0, len(order))
	for _, label := range order {
		kind := kinds[label]
		// A label that only moved is not a change
		if kind == Modified && !s.isTouched(label) {
			continue
		}
		changes = append(changes, Change{Label: label, Kind: kind})
	}
	return changes
}

func (s *Store) isTouched(label string) bool {
	_, ok := s.touched[label]
	return ok
}

// labelLines quotes each label so labels containing newlines stay on one line
func labelLines(labels []string) string {
	var b strings.Builder
	for _, l := range labels {
		b.WriteString(strconv.Quote(l))
		b.WriteByte('\n')
	}
	return b.String()
}

func splitLabelLines(text string) []string {
	var labels []string
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		label, err := strconv.Unquote(line)
		if err != nil {
			continue
		}
		labels = append(labels, label)
	}
	return labels
}
