package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pfcm/synth"
	"github.com/pfcm/synth/graph"
	"github.com/pfcm/synth/midi/gomidi"
	"github.com/pfcm/synth/rack"
)

func newModulesCommand(root *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the modules in the rack and their ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var infos []synth.Info
			if all {
				for _, k := range synth.Kinds() {
					info, err := kindInfo(k)
					if err != nil {
						return err
					}
					infos = append(infos, info)
				}
			} else {
				cfg, log, err := root.load()
				if err != nil {
					return err
				}
				c, err := newSynth(cfg, log)
				if err != nil {
					return err
				}
				infos = c.Modules()
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tINPUTS\tOUTPUTS")
			for id, info := range infos {
				fmt.Fprintf(tw, "%d\t%v\t%s\t%s\n", id, info.Kind, ports(info.Inputs), ports(info.Outputs))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every kind of module rather than the rack")
	return cmd
}

func kindInfo(k synth.Kind) (synth.Info, error) {
	if k == synth.KindOutput {
		return synth.NewOutput().Info(), nil
	}
	m, err := rack.NewModule(k, rack.Options{})
	if err != nil {
		return synth.Info{}, err
	}
	return m.Info(), nil
}

func ports(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	var b strings.Builder
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d:%s", i, n)
	}
	return b.String()
}

func newGraphCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the rack as a graphviz digraph",
		Long: `Print the rack and its connections in the dot language, for example:

  play graph | dot -Tsvg > rack.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			c, err := newSynth(cfg, log)
			if err != nil {
				return err
			}
			return graph.Render(cmd.OutOrStdout(), c)
		},
	}
}

func newPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List the MIDI input ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer gomidi.Close()
			ps := gomidi.Ports()
			if len(ps) == 0 {
				return gomidi.ErrNoPorts
			}
			for i, p := range ps {
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", i, p)
			}
			return nil
		},
	}
}
