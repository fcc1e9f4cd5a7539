// package graph renders a rack and its connections as a graphviz digraph.
package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pfcm/synth"
)

// Dot writes a digraph with one cluster per module, inputs as ellipses and
// outputs as boxes, and an edge per connection. infos is indexed by module
// id.
func Dot(w io.Writer, infos []synth.Info, conns []synth.Connection) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph synth {")
	fmt.Fprintln(bw, "\trankdir=LR;")
	fmt.Fprintln(bw, "\tnode [fontname=Helvetica];")
	for id, info := range infos {
		fmt.Fprintf(bw, "\tsubgraph cluster_%d {\n", id)
		fmt.Fprintf(bw, "\t\tlabel=%s;\n", strconv.Quote(fmt.Sprintf("%d: %v", id, info.Kind)))
		fmt.Fprintln(bw, "\t\tshape=rectangle;")
		for i, name := range info.Inputs {
			fmt.Fprintf(bw, "\t\t%s [label=%s];\n", input(id, i), strconv.Quote(name))
		}
		for i, name := range info.Outputs {
			fmt.Fprintf(bw, "\t\t%s [label=%s, shape=box];\n", output(id, i), strconv.Quote(name))
		}
		fmt.Fprintln(bw, "\t}")
	}
	for _, c := range conns {
		fmt.Fprintf(bw, "\t%s -> %s;\n", output(c.SrcModule, c.SrcOutput), input(c.DestModule, c.DestInput))
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func input(id, i int) string  { return fmt.Sprintf("m%d_in%d", id, i) }
func output(id, i int) string { return fmt.Sprintf("m%d_out%d", id, i) }

// Controller is what Render needs from a controller.
type Controller interface {
	Modules() []synth.Info
	Connections() []synth.Connection
}

// Render writes the current state of c.
func Render(w io.Writer, c Controller) error {
	return Dot(w, c.Modules(), c.Connections())
}
