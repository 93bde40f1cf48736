package bytecode

// Module is the set of decoded methods of one assembly listing.
type Module struct {
	name    string
	methods []*Method
}

// NewModule creates a module from already constructed methods.
func NewModule(name string, methods ...*Method) *Module {
	return &Module{
		name:    name,
		methods: append([]*Method(nil), methods...),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// MethodCount returns the number of methods.
func (m *Module) MethodCount() int {
	return len(m.methods)
}

// MethodAt returns the method at the given index.
func (m *Module) MethodAt(index int) *Method {
	return m.methods[index]
}

// Methods returns a copy of the module's method list.
func (m *Module) Methods() []*Method {
	return append([]*Method(nil), m.methods...)
}

// Method returns the method with the given full name.
func (m *Module) Method(fullName string) (*Method, bool) {
	for _, method := range m.methods {
		if method.fullName == fullName {
			return method, true
		}
	}
	return nil, false
}

// Stats returns statistics about the module.
func (m *Module) Stats() Stats {
	stats := Stats{MethodCount: len(m.methods)}
	for _, method := range m.methods {
		stats.InstructionCount += len(method.instructions)
		stats.HandlerCount += len(method.handlers)
		for _, h := range method.handlers {
			if h.Kind == HandlerFinally {
				stats.FinallyCount++
			}
		}
	}
	return stats
}
