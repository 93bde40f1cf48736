package sil

import "fmt"

// Location is the source position an instruction or node was produced for.
type Location struct {
	File   string
	Line   int
	Column int
	// Offset is the bytecode offset of the originating instruction, -1
	// when there is none.
	Offset int
}

// NoLocation is the location of synthetic start and exit nodes.
var NoLocation = Location{Offset: -1}

func (l Location) String() string {
	if l.File != "" {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}
