package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidBranch is returned when a wire label does not name a branch.
var ErrInvalidBranch = errors.New("invalid branch label")

// BranchKind discriminates the outgoing edge label of a node.
type BranchKind uint8

const (
	BranchDefault BranchKind = iota
	BranchBoolean
	BranchCase
	BranchElse
)

// Branch labels an outgoing edge. It is comparable and used as the key of
// Node.NextNodes; on the wire it is one of "default", "true", "false",
// "case{n}" or "else".
type Branch struct {
	Kind  BranchKind
	Value bool // BranchBoolean only
	Index int  // BranchCase only, 1-based
}

var (
	Default = Branch{Kind: BranchDefault}
	Else    = Branch{Kind: BranchElse}
	True    = Branch{Kind: BranchBoolean, Value: true}
	False   = Branch{Kind: BranchBoolean, Value: false}
)

func Case(index int) Branch {
	return Branch{Kind: BranchCase, Index: index}
}

func (b Branch) String() string {
	switch b.Kind {
	case BranchDefault:
		return "default"
	case BranchBoolean:
		return strconv.FormatBool(b.Value)
	case BranchCase:
		return "case" + strconv.Itoa(b.Index)
	case BranchElse:
		return "else"
	default:
		return fmt.Sprintf("branch(%d)", b.Kind)
	}
}

// IsDefault reports whether the branch carries no visible label.
func (b Branch) IsDefault() bool {
	return b.Kind == BranchDefault
}

// ParseBranch converts a wire label into a Branch.
func ParseBranch(label string) (Branch, error) {
	switch label {
	case "default":
		return Default, nil
	case "true":
		return True, nil
	case "false":
		return False, nil
	case "else":
		return Else, nil
	}

	if rest, ok := strings.CutPrefix(label, "case"); ok {
		index, err := strconv.Atoi(rest)
		if err == nil && index >= 1 {
			return Case(index), nil
		}
	}

	return Branch{}, fmt.Errorf("%w: %q", ErrInvalidBranch, label)
}

func (b Branch) MarshalText() ([]byte, error) {
	if b.Kind == BranchCase && b.Index < 1 {
		return nil, fmt.Errorf("%w: case index %d", ErrInvalidBranch, b.Index)
	}

	return []byte(b.String()), nil
}

func (b *Branch) UnmarshalText(text []byte) error {
	parsed, err := ParseBranch(string(text))
	if err != nil {
		return err
	}

	*b = parsed

	return nil
}

// less orders branches the way an editor lists ports: default, true, false,
// case1..caseN, else.
func (b Branch) less(other Branch) bool {
	if b.Kind != other.Kind {
		return b.Kind < other.Kind
	}

	switch b.Kind {
	case BranchBoolean:
		return b.Value && !other.Value
	case BranchCase:
		return b.Index < other.Index
	default:
		return false
	}
}
