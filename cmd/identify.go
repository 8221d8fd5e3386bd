package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardlens/cardlens/internal/capture"
	"github.com/cardlens/cardlens/internal/evalcmd"
	"github.com/cardlens/cardlens/internal/overlay"
	"github.com/cardlens/cardlens/internal/pipeline"
)

func newIdentifyCmd(loadConfig evalcmd.ConfigLoader) *cobra.Command {
	var x, y int
	var debug bool

	cmd := &cobra.Command{
		Use:   "identify <frame>",
		Short: "Identify the card under a point of a frame image",
		Long: `Captures the region around (x, y) of a PNG or JPEG frame, reads the card name
with the configured OCR provider and resolves it. The final overlay event is
printed as JSON.`,
		Example: `  cardlens identify frame.png --x 640 --y 360
  cardlens identify frame.png --x 640 --y 360 --debug`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(true); err != nil {
				return err
			}
			p, err := pipeline.New(cfg)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open frame: %w", err)
			}
			defer f.Close()
			frame, _, err := image.Decode(f)
			if err != nil {
				return fmt.Errorf("failed to decode frame %s: %w", args[0], err)
			}

			bounds := frame.Bounds()
			machine := p.NewMachine(overlay.WithListener(logTransition))
			ev, _ := machine.RunRegion(cmd.Context(), overlay.RegionRequest{
				Scene: capture.FullFrameScene(frame, capture.Size{Width: bounds.Dx(), Height: bounds.Dy()}),
				Point: image.Pt(x, y),
				Debug: debug,
			})
			return printEvent(cmd.OutOrStdout(), ev)
		},
	}

	cmd.Flags().IntVar(&x, "x", 0, "Pointer x in frame pixels")
	cmd.Flags().IntVar(&y, "y", 0, "Pointer y in frame pixels")
	cmd.Flags().BoolVar(&debug, "debug", false, "Include the capture and OCR details in the output")

	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func newLookupCmd(loadConfig evalcmd.ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:     "lookup <name>",
		Short:   "Resolve a typed card name",
		Example: `  cardlens lookup "lightning bolt"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(false); err != nil {
				return err
			}
			p, err := pipeline.New(cfg)
			if err != nil {
				return err
			}

			machine := p.NewMachine(overlay.WithListener(logTransition))
			ev, _ := machine.RunName(cmd.Context(), args[0])
			return printEvent(cmd.OutOrStdout(), ev)
		},
	}
}

func logTransition(ev overlay.Event) {
	slog.Debug("Overlay transition", "run", ev.RunID, "state", ev.State, "reason", ev.Reason)
}

func printEvent(w io.Writer, ev overlay.Event) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ev)
}
