package cli

import (
	"fmt"
	"log/slog"

	"github.com/keejkrej/nd2-go/nd2"
	"github.com/spf13/cobra"
)

func newInfoCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Display file information and metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			return runInfo(cmd, logger, input)
		},
	}
	cmd.Flags().StringP("input", "i", "", "path to the ND2 file")
	cmd.Flags().Bool("json", false, "output in JSON format")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runInfo(cmd *cobra.Command, logger *slog.Logger, input string) error {
	r, err := nd2.Open(input, nd2.WithLogger(logger))
	if err != nil {
		return err
	}
	defer r.Close()

	v := r.Version()
	attrs, err := r.Attributes()
	if err != nil {
		return err
	}
	textInfo, err := r.TextInfo()
	if err != nil {
		return err
	}
	experiment, err := r.Experiment()
	if err != nil {
		return err
	}

	p := newPrinter(outputFormat(cmd))
	if p.format == "json" {
		return p.json(map[string]any{
			"version":    map[string]uint32{"major": v.Major, "minor": v.Minor},
			"attributes": attrs,
			"text_info":  textInfo,
			"experiment": experiment,
		})
	}

	printInfoHuman(p, v, attrs, textInfo, experiment)
	return nil
}

func printInfoHuman(p *printer, v nd2.Version, attrs *nd2.Attributes, textInfo *nd2.TextInfo, experiment []nd2.ExpLoop) {
	fmt.Println("=== ND2 File Information ===")
	fmt.Println()

	fmt.Printf("Format Version: %d.%d\n", v.Major, v.Minor)
	fmt.Println()

	fmt.Println("=== Image Attributes ===")
	attrPairs := [][2]string{}
	if attrs.WidthPx != nil {
		attrPairs = append(attrPairs, [2]string{"Dimensions", fmt.Sprintf("%d x %d px", *attrs.WidthPx, attrs.HeightPx)})
	} else {
		attrPairs = append(attrPairs, [2]string{"Height", fmt.Sprintf("%d px", attrs.HeightPx)})
	}
	attrPairs = append(attrPairs,
		[2]string{"Channels", fmt.Sprintf("%d", attrs.ComponentCount)},
		[2]string{"Frames", fmt.Sprintf("%d", attrs.SequenceCount)},
		[2]string{"Bit Depth", fmt.Sprintf("%d bits (significant: %d)", attrs.BitsPerComponentInMemory, attrs.BitsPerComponentSignificant)},
		[2]string{"Pixel Type", pixelDataTypeString(attrs.PixelDataType)},
	)
	if attrs.CompressionType != nil {
		attrPairs = append(attrPairs, [2]string{"Compression", compressionTypeString(*attrs.CompressionType)})
	}
	if attrs.TileWidthPx != nil && attrs.TileHeightPx != nil {
		attrPairs = append(attrPairs, [2]string{"Tile Size", fmt.Sprintf("%d x %d px", *attrs.TileWidthPx, *attrs.TileHeightPx)})
	}
	p.kv(attrPairs)
	fmt.Println()

	if textInfo.Description != nil || textInfo.Author != nil || textInfo.Date != nil {
		fmt.Println("=== Text Information ===")
		textPairs := [][2]string{}
		if textInfo.Description != nil {
			textPairs = append(textPairs, [2]string{"Description", *textInfo.Description})
		}
		if textInfo.Author != nil {
			textPairs = append(textPairs, [2]string{"Author", *textInfo.Author})
		}
		if textInfo.Date != nil {
			textPairs = append(textPairs, [2]string{"Date", *textInfo.Date})
		}
		if textInfo.AppVersion != nil {
			textPairs = append(textPairs, [2]string{"App Version", *textInfo.AppVersion})
		}
		p.kv(textPairs)
		fmt.Println()
	}

	if len(experiment) > 0 {
		fmt.Println("=== Experiment ===")
		for i, loop := range experiment {
			printLoopHuman(i, loop)
		}
		fmt.Println()
	}
}

func printLoopHuman(i int, loop nd2.ExpLoop) {
	switch loop.Kind {
	case nd2.LoopTime:
		fmt.Printf("  [%d] Time Loop: %d frames (level %d)\n", i, loop.Count, loop.NestingLevel)
		fmt.Printf("      Period: %.2f ms, Duration: %.2f ms\n", loop.TimeParams.PeriodMs, loop.TimeParams.DurationMs)
	case nd2.LoopZStack:
		fmt.Printf("  [%d] Z-Stack Loop: %d slices (level %d)\n", i, loop.Count, loop.NestingLevel)
		fmt.Printf("      Step: %.3f um, Home: %d\n", loop.ZStackParams.StepUm, loop.ZStackParams.HomeIndex)
	case nd2.LoopXYPos:
		fmt.Printf("  [%d] XY Position Loop: %d positions (level %d)\n", i, loop.Count, loop.NestingLevel)
		fmt.Printf("      Points: %d\n", len(loop.XYPosParams.Points))
	case nd2.LoopNETime:
		fmt.Printf("  [%d] NE Time Loop: %d frames (level %d)\n", i, loop.Count, loop.NestingLevel)
		fmt.Printf("      Periods: %d\n", len(loop.NETimeParams.Periods))
	case nd2.LoopCustom:
		fmt.Printf("  [%d] Custom Loop: %d iterations (level %d)\n", i, loop.Count, loop.NestingLevel)
	}
}

func pixelDataTypeString(t nd2.PixelDataType) string {
	if t == nd2.Float {
		return "Float"
	}
	return "Unsigned"
}

func compressionTypeString(t nd2.CompressionType) string {
	switch t {
	case nd2.CompressionLossless:
		return "Lossless"
	case nd2.CompressionLossy:
		return "Lossy"
	default:
		return "None"
	}
}
