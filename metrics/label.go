package metrics

import (
	"sort"
	"strings"
)

// Label is a single dimension of a recorded measurement, e.g. name="cpu0".
type Label struct {
	Key   string
	Value string
}

// L is shorthand for Label{Key: key, Value: value}.
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}

// labelSetKey returns a canonical, order-independent key for a set of labels.
// The empty set maps to "".
func labelSetKey(labels []Label) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0].Key + "=" + labels[0].Value
	}
	sorted := make([]Label, len(labels))
	copy(sorted, labels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	for i, l := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(l.Key)
		b.WriteByte('=')
		b.WriteString(l.Value)
	}
	return b.String()
}
