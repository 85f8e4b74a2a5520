package blocks

import "fmt"

// Kind identifies which bridge block a block is.
type Kind int

// The kinds of bridge blocks.
const (
	KindConditionalMsg Kind = iota + 1
	KindEvent
	KindFdc
)

var kindNames = map[Kind]string{
	KindConditionalMsg: "conditional_msg",
	KindEvent:          "event",
	KindFdc:            "fdc",
}

func (k Kind) String() string {
	name, ok := kindNames[k]
	if !ok {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return name
}

// ParseKind converts a kind name as used in model files into a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}

	return 0, fmt.Errorf("blocks: unknown block kind %q", s)
}
