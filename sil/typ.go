package sil

// Typ is a SIL type.
type Typ interface {
	String() string
	typ()
}

// IntKind is the machine kind of an integer type.
type IntKind uint8

const (
	IInt IntKind = iota
	ILong
	IBool
	IChar
)

// Tint is an integer type.
type Tint struct{ Kind IntKind }

// Tfloat is a double precision floating point type.
type Tfloat struct{}

// Tvoid is the empty type.
type Tvoid struct{}

// Tstruct is a named class or value type.
type Tstruct struct{ Name string }

// Tptr is a reference to a value of type Elem.
type Tptr struct{ Elem Typ }

func (Tint) typ()    {}
func (Tfloat) typ()  {}
func (Tvoid) typ()   {}
func (Tstruct) typ() {}
func (Tptr) typ()    {}

func (t Tint) String() string {
	switch t.Kind {
	case ILong:
		return "long"
	case IBool:
		return "bool"
	case IChar:
		return "char"
	default:
		return "int"
	}
}

func (Tfloat) String() string    { return "double" }
func (Tvoid) String() string     { return "void" }
func (t Tstruct) String() string { return t.Name }
func (t Tptr) String() string    { return t.Elem.String() + "*" }

// ObjectTypeName is the CLR name of the universal object type.
const ObjectTypeName = "System.Object"

// ObjectType is the SIL type of a System.Object reference.
var ObjectType Typ = Tptr{Elem: Tstruct{Name: ObjectTypeName}}

// FromTypeName maps a CLR type name to its SIL type. Reference types map to
// pointers to the named struct.
func FromTypeName(name string) Typ {
	switch name {
	case "", "System.Void":
		return Tvoid{}
	case "System.Int32", "System.Int16", "System.SByte", "System.Byte", "System.UInt16", "System.UInt32":
		return Tint{Kind: IInt}
	case "System.Int64", "System.UInt64":
		return Tint{Kind: ILong}
	case "System.Boolean":
		return Tint{Kind: IBool}
	case "System.Char":
		return Tint{Kind: IChar}
	case "System.Double", "System.Single":
		return Tfloat{}
	default:
		return Tptr{Elem: Tstruct{Name: name}}
	}
}
