package evalcmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cardlens/cardlens/internal/eval/dataset"
)

func executeInspect(ctx context.Context, datasetPath string, limit int, out io.Writer) error {
	loader := dataset.NewLoader(datasetPath)

	if limit <= 0 {
		limit = -1
	}
	samples, err := loader.LoadSample(limit)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	fmt.Fprintf(out, "Loaded %d samples from %s\n", len(samples), datasetPath)
	fmt.Fprintln(out, strings.Repeat("=", 80))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEXPECTED\tPOINT\tVIEWPORT\tFRAME")
	for _, s := range samples {
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\nInspection interrupted.")
			return nil
		}
		viewport := "frame"
		if s.ViewportWidth > 0 || s.ViewportHeight > 0 {
			viewport = fmt.Sprintf("%dx%d", s.ViewportWidth, s.ViewportHeight)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d,%d\t%s\t%s\n", s.ID, s.ExpectedName, s.X, s.Y, viewport, s.ResolveFramePath(datasetPath))
	}
	return tw.Flush()
}
