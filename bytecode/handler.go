package bytecode

import "fmt"

// HandlerKind distinguishes the kinds of exception handler clauses.
type HandlerKind uint8

const (
	HandlerCatch HandlerKind = iota
	HandlerFinally
	HandlerFault
)

// String returns the lower-case clause keyword.
func (k HandlerKind) String() string {
	switch k {
	case HandlerCatch:
		return "catch"
	case HandlerFinally:
		return "finally"
	case HandlerFault:
		return "fault"
	default:
		return "unknown"
	}
}

// ParseHandlerKind returns the kind for a clause keyword.
func ParseHandlerKind(s string) (HandlerKind, error) {
	switch s {
	case "catch":
		return HandlerCatch, nil
	case "finally":
		return HandlerFinally, nil
	case "fault":
		return HandlerFault, nil
	default:
		return 0, fmt.Errorf("unknown handler kind %q", s)
	}
}

// ExceptionHandler describes a protected region and its handler block.
// Ranges are half-open bytecode offset intervals.
type ExceptionHandler struct {
	Kind         HandlerKind
	TryStart     int    // offset of the first protected instruction
	TryEnd       int    // offset just past the protected region
	HandlerStart int    // offset of the first handler instruction
	HandlerEnd   int    // offset just past the handler block
	CatchType    string // caught type name (catch clauses only)
}

// InTry reports whether the offset lies inside the protected region.
func (h ExceptionHandler) InTry(offset int) bool {
	return offset >= h.TryStart && offset < h.TryEnd
}

func (h ExceptionHandler) tryLen() int {
	return h.TryEnd - h.TryStart
}

// InHandler reports whether the offset lies inside the handler block.
func (h ExceptionHandler) InHandler(offset int) bool {
	return offset >= h.HandlerStart && offset < h.HandlerEnd
}

func (h ExceptionHandler) String() string {
	return fmt.Sprintf("%s try IL_%04x-IL_%04x handler IL_%04x-IL_%04x",
		h.Kind, h.TryStart, h.TryEnd, h.HandlerStart, h.HandlerEnd)
}
