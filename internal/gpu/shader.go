package gpu

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

//go:embed shaders/quad.wgsl
var quadShaderSource string

// Entry point names in quad.wgsl.
const (
	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

// QuadShaderSource returns the embedded WGSL program.
func QuadShaderSource() string { return quadShaderSource }

// VertexInput is a location-bound vertex stage input.
type VertexInput struct {
	Location   uint32
	Components uint8 // vector width; 1 for scalars
	Float      bool
}

// UniformBinding is a var<uniform> global with its resource binding.
type UniformBinding struct {
	Name    string
	Group   uint32
	Binding uint32
	Size    uint32
}

// ShaderInterface describes the parts of a WGSL module the pipeline depends
// on: which entry points exist and what they consume.
type ShaderInterface struct {
	VertexEntries   []string
	FragmentEntries []string
	// VertexInputs holds the location inputs of each vertex entry point,
	// sorted by location.
	VertexInputs map[string][]VertexInput
	Uniforms     []UniformBinding
}

// ReflectShader parses, lowers and validates WGSL source with naga and
// extracts its pipeline-facing interface.
func ReflectShader(source string) (*ShaderInterface, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse wgsl: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lower wgsl: %w", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validate wgsl: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("validate wgsl: %s (%d errors)", verrs[0].Message, len(verrs))
	}

	si := &ShaderInterface{VertexInputs: make(map[string][]VertexInput)}
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		switch ep.Stage {
		case ir.StageVertex:
			si.VertexEntries = append(si.VertexEntries, ep.Name)
			si.VertexInputs[ep.Name] = vertexInputs(module, &ep.Function)
		case ir.StageFragment:
			si.FragmentEntries = append(si.FragmentEntries, ep.Name)
		}
	}
	for _, gv := range module.GlobalVariables {
		if gv.Space != ir.SpaceUniform || gv.Binding == nil {
			continue
		}
		si.Uniforms = append(si.Uniforms, UniformBinding{
			Name:    gv.Name,
			Group:   gv.Binding.Group,
			Binding: gv.Binding.Binding,
			Size:    typeSize(module, gv.Type),
		})
	}
	return si, nil
}

// vertexInputs collects location-bound arguments, descending into struct
// arguments whose members carry the bindings.
func vertexInputs(m *ir.Module, fn *ir.Function) []VertexInput {
	var inputs []VertexInput
	for _, arg := range fn.Arguments {
		if loc, ok := locationOf(arg.Binding); ok {
			inputs = append(inputs, vertexInput(m, loc, arg.Type))
			continue
		}
		st, ok := typeInner(m, arg.Type).(ir.StructType)
		if !ok {
			continue
		}
		for _, member := range st.Members {
			if loc, ok := locationOf(member.Binding); ok {
				inputs = append(inputs, vertexInput(m, loc, member.Type))
			}
		}
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Location < inputs[j].Location })
	return inputs
}

func vertexInput(m *ir.Module, loc uint32, th ir.TypeHandle) VertexInput {
	in := VertexInput{Location: loc}
	switch t := typeInner(m, th).(type) {
	case ir.VectorType:
		in.Components = uint8(t.Size)
		in.Float = t.Scalar.Kind == ir.ScalarFloat
	case ir.ScalarType:
		in.Components = 1
		in.Float = t.Kind == ir.ScalarFloat
	}
	return in
}

func locationOf(b *ir.Binding) (uint32, bool) {
	if b == nil || *b == nil {
		return 0, false
	}
	switch lb := (*b).(type) {
	case ir.LocationBinding:
		return lb.Location, true
	case *ir.LocationBinding:
		return lb.Location, true
	}
	return 0, false
}

func typeInner(m *ir.Module, th ir.TypeHandle) ir.TypeInner {
	if int(th) >= len(m.Types) {
		return nil
	}
	return m.Types[th].Inner
}

// typeSize returns the host-shareable size of the uniform types the quad
// shader can declare. Unknown types report 0.
func typeSize(m *ir.Module, th ir.TypeHandle) uint32 {
	switch t := typeInner(m, th).(type) {
	case ir.StructType:
		return t.Span
	case ir.VectorType:
		return uint32(t.Size) * uint32(t.Scalar.Width)
	case ir.ScalarType:
		return uint32(t.Width)
	}
	return 0
}

// Check verifies that the interface matches the quad pipeline: the named
// vertex entry point consumes exactly the attributes of layout, the named
// fragment entry point exists, and exactly one uniform sits at group 0
// binding 0 with at least uniformSize bytes.
func (si *ShaderInterface) Check(vsEntry, fsEntry string, layout []gputypes.VertexBufferLayout, uniformSize uint64) error {
	if !slices.Contains(si.VertexEntries, vsEntry) {
		return fmt.Errorf("%w: vertex entry point %q not found", ErrShaderInterface, vsEntry)
	}
	if !slices.Contains(si.FragmentEntries, fsEntry) {
		return fmt.Errorf("%w: fragment entry point %q not found", ErrShaderInterface, fsEntry)
	}

	var attrs []gputypes.VertexAttribute
	for _, l := range layout {
		attrs = append(attrs, l.Attributes...)
	}
	inputs := si.VertexInputs[vsEntry]
	if len(inputs) != len(attrs) {
		return fmt.Errorf("%w: %s has %d vertex inputs, layout has %d attributes",
			ErrShaderInterface, vsEntry, len(inputs), len(attrs))
	}
	byLoc := make(map[uint32]VertexInput, len(inputs))
	for _, in := range inputs {
		byLoc[in.Location] = in
	}
	for _, a := range attrs {
		in, ok := byLoc[a.ShaderLocation]
		if !ok {
			return fmt.Errorf("%w: no vertex input at location %d", ErrShaderInterface, a.ShaderLocation)
		}
		want := float32Components(a.Format)
		if want == 0 || !in.Float || in.Components != want {
			return fmt.Errorf("%w: location %d is %d-wide (float=%v), layout format %v",
				ErrShaderInterface, a.ShaderLocation, in.Components, in.Float, a.Format)
		}
	}

	var found *UniformBinding
	for i := range si.Uniforms {
		u := &si.Uniforms[i]
		if u.Group != 0 || u.Binding != 0 {
			continue
		}
		if found != nil {
			return fmt.Errorf("%w: multiple uniforms at group 0 binding 0", ErrShaderInterface)
		}
		found = u
	}
	if found == nil {
		return fmt.Errorf("%w: no uniform at group 0 binding 0", ErrShaderInterface)
	}
	if uint64(found.Size) < uniformSize {
		return fmt.Errorf("%w: uniform %q is %d bytes, need %d",
			ErrShaderInterface, found.Name, found.Size, uniformSize)
	}
	return nil
}

// float32Components maps float vertex formats to their component count.
func float32Components(f gputypes.VertexFormat) uint8 {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 1
	case gputypes.VertexFormatFloat32x2:
		return 2
	case gputypes.VertexFormatFloat32x3:
		return 3
	case gputypes.VertexFormatFloat32x4:
		return 4
	}
	return 0
}

// checkQuadShader reflects source and checks it against the quad layouts.
func checkQuadShader(source string) error {
	si, err := ReflectShader(source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrShaderInterface, err)
	}
	return si.Check(vertexEntryPoint, fragmentEntryPoint, VertexLayout(), UniformSize())
}
