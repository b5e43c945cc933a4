package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <map>",
	Short: "Print image size, metadata and pyramid levels",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	m, err := openMap(args[0])
	if err != nil {
		return err
	}
	opts, err := engineOptions()
	if err != nil {
		return err
	}
	eng, _ := newEngine(opts)
	defer eng.Close()
	p := eng.Pyramid(m.src)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "image:   %dx%d alpha=%v\n", m.src.Width(), m.src.Height(), m.src.HasAlpha())
	if m.meta != nil {
		fmt.Fprintf(out, "meta:    resolution=%g origin=%v\n", m.meta.Resolution, m.meta.Origin)
	}
	fmt.Fprintf(out, "interp:  mode=%v free=%g occupied=%g negate=%v\n",
		m.interp.Mode, m.interp.Free, m.interp.Occupied, m.interp.Negate)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tSIZE\tBYTES")
	for _, l := range p.Levels() {
		name := fmt.Sprint(l.Threshold)
		if l.IsFull() {
			name = "full"
		}
		fmt.Fprintf(tw, "%s\t%dx%d\t%d\n", name, l.Raster.Width(), l.Raster.Height(), l.Raster.ByteSize())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := p.Stats()
	fmt.Fprintf(out, "total:   %d levels, %d bytes (%d derived)\n", s.Levels, s.Bytes, s.DerivedBytes)
	return nil
}
