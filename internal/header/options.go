package header

// Type describes the declared value type for a header key.
type Type struct {
	kind typeKind
	elem *Type
}

type typeKind int

const (
	kindInvalid typeKind = iota
	kindString
	kindInteger
	kindDateTime
	kindList
)

// Scalar types supported by the parser.
var (
	String   = Type{kind: kindString}
	Integer  = Type{kind: kindInteger}
	DateTime = Type{kind: kindDateTime}
)

// List declares a list of elem values. Lists of lists can be declared but
// never parsed; the parser rejects them with a structured error instead of
// treating the declaration as a lookup into an unbounded type space.
func List(elem Type) Type {
	return Type{kind: kindList, elem: &elem}
}

// Field pairs a header key with its declared type.
type Field struct {
	Key  string
	Type Type
}

// Options declares the keys a caller expects in a header and which of them
// are required. Keys not declared here are silently dropped by Parse.
type Options struct {
	Fields   []Field
	Required []string
}

func (o Options) field(key string) (Field, bool) {
	for _, f := range o.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}
