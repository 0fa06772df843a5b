// Package emit renders an immutable Circuit into the textual source the
// downstream dataflow host compiles and links. The Circuit defines the IR
// precisely; this package is a mechanical, read-only traversal producing
// one concrete textual shape — the five-part layout spec.md §4.5
// describes. Any other renderer satisfying that same shape is an
// equally valid emitter; this one is simply the one this repo ships.
package emit

import (
	"fmt"
	"strings"

	"github.com/ariyn/dbsp/internal/dbsp/dbspexc"
	"github.com/ariyn/dbsp/internal/dbsp/ir"
	"github.com/ariyn/dbsp/internal/dbsp/op"
	"github.com/ariyn/dbsp/internal/dbsp/types"
)

const preamble = `use dbsp::{
    algebra::{FiniteMap, HasZero, ZSetHashMap},
    circuit::Root,
    operator::{CsvSource, DelayedFeedback},
    Runtime, Stream,
};
use ordered_float::OrderedFloat;

type Weight = isize;
`

// Circuit renders a whole Circuit as a single generator function: a
// function with no arguments that builds the dataflow graph once and
// returns a driver closure taking one argument per Source (in
// registration order) and returning a tuple over the Sink element types
// (in registration order).
func Circuit(c *op.Circuit) (string, error) {
	if err := c.CheckUniqueNames(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n")

	fnName := sanitizeIdent(c.Name)
	sourceArgs := make([]string, len(c.Sources))
	for i, src := range c.Sources {
		sourceArgs[i] = fmt.Sprintf("arg%d: %s", i, renderType(src.Type))
	}
	sinkTypes := make([]string, len(c.Sinks))
	for i, sink := range c.Sinks {
		sinkTypes[i] = renderType(sink.Type)
	}

	fmt.Fprintf(&b, "pub fn %s() -> impl FnMut(%s) -> (%s) {\n",
		fnName, strings.Join(sourceArgs, ", "), strings.Join(sinkTypes, ", "))

	// Part 3: a shared mutable cell per Source/Sink, allocated outside
	// the circuit, readable from the driver after each step.
	for _, src := range c.Sources {
		fmt.Fprintf(&b, "    let %s = std::rc::Rc::new(std::cell::RefCell::new(%s::new()));\n", cellName(src), renderType(src.Type))
	}
	for _, sink := range c.Sinks {
		fmt.Fprintf(&b, "    let %s = std::rc::Rc::new(std::cell::RefCell::new(%s::new()));\n", cellName(sink), renderType(sink.Type))
	}
	b.WriteString("\n")

	// Part 4: a single build call to the host.
	b.WriteString("    let (root, ()) = Root::build(|circuit| {\n")
	for _, src := range c.Sources {
		cell := cellName(src)
		fmt.Fprintf(&b, "        let %s: Stream<_, %s> = circuit.add_source(CsvSource::from_cell(%s.clone()));\n",
			src.Name, renderType(src.Type), cell)
	}
	for _, o := range c.Internal {
		line, err := renderOperator(o)
		if err != nil {
			return "", err
		}
		b.WriteString("        ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, sink := range c.Sinks {
		input := sink.Inputs[0]
		cell := cellName(sink)
		fmt.Fprintf(&b, "        %s.inspect(move |m| { *%s.borrow_mut() = m.clone(); });\n", input.Name, cell)
	}
	b.WriteString("    })\n    .unwrap();\n\n")

	// Part 5: the returned driver closure.
	driverArgs := make([]string, len(c.Sources))
	for i := range c.Sources {
		driverArgs[i] = fmt.Sprintf("arg%d", i)
	}
	fmt.Fprintf(&b, "    move |%s| {\n", strings.Join(driverArgs, ", "))
	for i, src := range c.Sources {
		fmt.Fprintf(&b, "        *%s.borrow_mut() = %s;\n", cellName(src), driverArgs[i])
	}
	b.WriteString("        root.step().unwrap();\n")
	outs := make([]string, len(c.Sinks))
	for i, sink := range c.Sinks {
		outs[i] = fmt.Sprintf("%s.borrow().clone()", cellName(sink))
	}
	fmt.Fprintf(&b, "        (%s)\n", strings.Join(outs, ", "))
	b.WriteString("    }\n")
	b.WriteString("}\n")

	return b.String(), nil
}

func cellName(o *op.Operator) string {
	// A Sink's inspect emission uses the Sink's own output-binding name
	// as its cell handle even though a Sink has no outgoing stream type
	// of its own — this is intentional, and kept regular by routing
	// every endpoint's cell name through this one helper.
	return o.Name + "_cell"
}

// renderOperator renders one internal operator's binding line.
func renderOperator(o *op.Operator) (string, error) {
	if len(o.Inputs) == 0 {
		return "", dbspexc.NewIRInvariant("operator %q (%v) has no inputs to render a binding from", o.Name, o.Kind)
	}
	first := o.Inputs[0].Name
	switch o.Kind {
	case op.KindRelProject:
		return fmt.Sprintf("let %s: Stream<_, %s> = %s.%s(%s);",
			o.Name, renderType(o.Type), first, o.Kind.String(), renderProjectClosure(o.Indexes)), nil
	case op.KindFilter:
		fn := "|_t| true"
		if o.Function != nil {
			fn = renderExpr(o.Function)
		}
		return fmt.Sprintf("let %s: Stream<_, %s> = %s.%s(%s);",
			o.Name, renderType(o.Type), first, o.Kind.String(), fn), nil
	case op.KindSum:
		args := make([]string, len(o.Inputs))
		for i, in := range o.Inputs {
			args[i] = in.Name
		}
		return fmt.Sprintf("let %s: Stream<_, %s> = %s.sum(&[%s]);",
			o.Name, renderType(o.Type), first, strings.Join(args[1:], ", ")), nil
	case op.KindNegate:
		return fmt.Sprintf("let %s: Stream<_, %s> = %s.neg();", o.Name, renderType(o.Type), first), nil
	case op.KindDistinct:
		return fmt.Sprintf("let %s: Stream<_, %s> = %s.distinct();", o.Name, renderType(o.Type), first), nil
	default:
		return "", dbspexc.NewIRInvariant("operator kind %v has no internal emission shape", o.Kind)
	}
}

// renderProjectClosure renders t -> (t.i1, ..., t.ik). A single-index
// projection collapses to its sole element, per the arity-1 tuple
// simplification rule.
func renderProjectClosure(indexes []int) string {
	fields := make([]string, len(indexes))
	for i, idx := range indexes {
		fields[i] = fmt.Sprintf("t.%d", idx)
	}
	if len(fields) == 1 {
		return fmt.Sprintf("move |t| %s.clone()", fields[0])
	}
	return fmt.Sprintf("move |t| (%s)", strings.Join(fields, ", "))
}

// renderExpr renders an Expression tree. Literal text is opaque and
// passed through verbatim.
func renderExpr(e *ir.Expression) string {
	switch e.Kind {
	case ir.ExprField:
		return fmt.Sprintf("t.%d", e.FieldIndex)
	case ir.ExprLiteral:
		return e.Literal
	case ir.ExprUnary:
		return fmt.Sprintf("(%s%s)", e.UOp, renderExpr(e.Operand))
	case ir.ExprBinary:
		if e.BOp == ir.OpDot {
			return fmt.Sprintf("%s.%s", renderExpr(e.Left), renderExpr(e.Right))
		}
		return fmt.Sprintf("(%s %s %s)", renderExpr(e.Left), e.BOp, renderExpr(e.Right))
	case ir.ExprClosure:
		return fmt.Sprintf("move |t| %s", renderExpr(e.Body))
	default:
		return fmt.Sprintf("/* unrenderable expression kind %d */", int(e.Kind))
	}
}

// renderType renders a dataflow Type as the host's Rust-shaped type text.
func renderType(t types.Type) string {
	switch t.Kind {
	case types.Bool:
		return maybeOption("bool", t.Nullable)
	case types.SignedInt:
		return maybeOption(fmt.Sprintf("i%d", t.Width), t.Nullable)
	case types.Float:
		return maybeOption("OrderedFloat<f32>", t.Nullable)
	case types.Double:
		return maybeOption("OrderedFloat<f64>", t.Nullable)
	case types.String:
		return maybeOption("String", t.Nullable)
	case types.Tuple:
		if len(t.Elements) == 1 {
			return renderType(t.Elements[0])
		}
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = renderType(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case types.Struct:
		return t.Name
	case types.Stream:
		return fmt.Sprintf("Stream<_, %s>", renderType(t.Elements[0]))
	case types.User:
		if len(t.Elements) == 0 {
			return maybeOption(t.Name, t.Nullable)
		}
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = renderType(e)
		}
		return maybeOption(fmt.Sprintf("%s<%s>", t.Name, strings.Join(parts, ", ")), t.Nullable)
	case types.ZSet:
		return fmt.Sprintf("ZSetHashMap<%s, %s>", renderType(t.Elements[0]), renderType(t.Elements[1]))
	default:
		return "()"
	}
}

func maybeOption(inner string, nullable bool) string {
	if nullable {
		return "Option<" + inner + ">"
	}
	return inner
}

func sanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "circuit"
	}
	return out
}
