package filter

// Built-in filter types.
const (
	TypeReferences            = "references"
	TypePolymorphicReferences = "polymorphic_references"
	TypeBlockList             = "block_list"
	TypeTimestamp             = "timestamp"
	TypeCustom                = "custom"
)

// JoinOperator combines sibling fragments of a specification node.
type JoinOperator string

const (
	JoinAnd JoinOperator = "AND"
	JoinOr  JoinOperator = "OR"
)

// ListMode tells a ConvertFunc which side of a partition it is converting.
type ListMode string

const (
	ListOnly   ListMode = "only"
	ListExcept ListMode = "except"
)

// ConvertFunc converts the raw list of a block_list partition.
type ConvertFunc func(e *Engine, list []interface{}, mode ListMode) []interface{}

// GeneratorFunc replaces the default clause generation of a single filter.
// An empty string means the filter contributes no fragment.
type GeneratorFunc func(e *Engine, name string, d Descriptor, value interface{}) (string, error)

// RewriteFunc is called by Adjust with the normalized value of each configured leaf.
// Its return value replaces the leaf value in the adjusted tree.
type RewriteFunc func(e *Engine, name string, value interface{}) (interface{}, error)

// Descriptor describes one configured filter.
type Descriptor struct {
	Type      string `json:"type"`
	Field     string `json:"field"`
	ClassName string `json:"class_name,omitempty"`

	Convert   ConvertFunc   `json:"-"`
	Generator GeneratorFunc `json:"-"`
}

// Config is the static filter configuration an Engine is built from.
type Config struct {
	Filters    map[string]Descriptor
	Generators map[string]GeneratorFactory

	// Classes maps a class name to its parent class. It is consulted when a
	// references filter restricts identifiers to a class and its subclasses.
	Classes Classes
}

// Partition is the normalized {only, except} value of the partitioned filter types.
// A nil slice means the key was absent.
type Partition struct {
	Only   []interface{}
	Except []interface{}
}

// Classes is a child to parent class table.
type Classes map[string]string

// IsA reports whether class is ancestor or one of its descendants.
func (c Classes) IsA(class, ancestor string) bool {
	seen := make(map[string]bool)
	for class != "" && !seen[class] {
		if class == ancestor {
			return true
		}
		seen[class] = true
		class = c[class]
	}
	return false
}
