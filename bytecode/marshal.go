package bytecode

import (
	"encoding/json"
	"fmt"

	"github.com/deepnoodle-ai/cilsil/op"
)

// Marshal converts a Module into its JSON listing.
func Marshal(module *Module) ([]byte, error) {
	return json.Marshal(stateFromModule(module))
}

// Unmarshal converts a JSON listing into a Module.
func Unmarshal(data []byte) (*Module, error) {
	var state moduleDef
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return moduleFromState(&state)
}

// Serialization types

type locationDef struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type instructionDef struct {
	Offset   int          `json:"offset"`
	OpCode   string       `json:"opcode"`
	Operand  any          `json:"operand,omitempty"`
	Location *locationDef `json:"location,omitempty"`
}

type handlerDef struct {
	Kind         string `json:"kind"`
	TryStart     int    `json:"try_start"`
	TryEnd       int    `json:"try_end"`
	HandlerStart int    `json:"handler_start"`
	HandlerEnd   int    `json:"handler_end"`
	CatchType    string `json:"catch_type,omitempty"`
}

type parameterDef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type methodDef struct {
	Name         string           `json:"name"`
	ReturnType   string           `json:"return_type,omitempty"`
	IsStatic     bool             `json:"is_static,omitempty"`
	SourceFile   string           `json:"source_file,omitempty"`
	Parameters   []parameterDef   `json:"parameters,omitempty"`
	Locals       []string         `json:"locals,omitempty"`
	Instructions []instructionDef `json:"instructions"`
	Handlers     []handlerDef     `json:"handlers,omitempty"`
}

type moduleDef struct {
	Name    string       `json:"name"`
	Methods []*methodDef `json:"methods"`
}

func stateFromModule(module *Module) *moduleDef {
	state := &moduleDef{
		Name:    module.name,
		Methods: make([]*methodDef, len(module.methods)),
	}
	for i, m := range module.methods {
		def := &methodDef{
			Name:         m.fullName,
			ReturnType:   m.returnType,
			IsStatic:     m.isStatic,
			SourceFile:   m.sourceFile,
			Locals:       copyStrings(m.locals),
			Instructions: make([]instructionDef, len(m.instructions)),
		}
		for _, p := range m.parameters {
			def.Parameters = append(def.Parameters, parameterDef{Name: p.Name, Type: p.Type})
		}
		for j, instr := range m.instructions {
			idef := instructionDef{
				Offset:  instr.Offset,
				OpCode:  instr.Info().Name,
				Operand: instr.Operand,
			}
			if !instr.Location.IsZero() {
				idef.Location = &locationDef{Line: instr.Location.Line, Column: instr.Location.Column}
			}
			def.Instructions[j] = idef
		}
		for _, h := range m.handlers {
			def.Handlers = append(def.Handlers, handlerDef{
				Kind:         h.Kind.String(),
				TryStart:     h.TryStart,
				TryEnd:       h.TryEnd,
				HandlerStart: h.HandlerStart,
				HandlerEnd:   h.HandlerEnd,
				CatchType:    h.CatchType,
			})
		}
		state.Methods[i] = def
	}
	return state
}

func moduleFromState(state *moduleDef) (*Module, error) {
	methods := make([]*Method, 0, len(state.Methods))
	for _, def := range state.Methods {
		params := MethodParams{
			FullName:     def.Name,
			ReturnType:   def.ReturnType,
			IsStatic:     def.IsStatic,
			SourceFile:   def.SourceFile,
			Locals:       def.Locals,
			Instructions: make([]Instruction, len(def.Instructions)),
		}
		for _, p := range def.Parameters {
			params.Parameters = append(params.Parameters, Parameter{Name: p.Name, Type: p.Type})
		}
		for i, idef := range def.Instructions {
			code, ok := op.Lookup(idef.OpCode)
			if !ok {
				return nil, fmt.Errorf("%s: IL_%04x: unknown opcode %q", def.Name, idef.Offset, idef.OpCode)
			}
			instr := Instruction{
				Offset:  idef.Offset,
				OpCode:  code,
				Operand: idef.Operand,
			}
			if idef.Location != nil {
				instr.Location = SourceLocation{Line: idef.Location.Line, Column: idef.Location.Column}
			}
			params.Instructions[i] = instr
		}
		for _, hdef := range def.Handlers {
			kind, err := ParseHandlerKind(hdef.Kind)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", def.Name, err)
			}
			params.Handlers = append(params.Handlers, ExceptionHandler{
				Kind:         kind,
				TryStart:     hdef.TryStart,
				TryEnd:       hdef.TryEnd,
				HandlerStart: hdef.HandlerStart,
				HandlerEnd:   hdef.HandlerEnd,
				CatchType:    hdef.CatchType,
			})
		}
		method, err := NewMethod(params)
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	return NewModule(state.Name, methods...), nil
}

// copyStrings returns a copy of the given string slice.
func copyStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}
