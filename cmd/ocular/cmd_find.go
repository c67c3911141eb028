package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ocular/pkg/vision"
)

var findFlags struct {
	threshold  float64
	multiScale bool
	minScale   float64
	maxScale   float64
	scaleSteps int
	region     string
}

var findCmd = &cobra.Command{
	Use:   "find <image> <template>",
	Short: "Search an image file for a template and print ranked detections",
	Args:  cobra.ExactArgs(2),
	RunE:  runFind,
}

func init() {
	f := findCmd.Flags()
	f.Float64Var(&findFlags.threshold, "threshold", 0.8, "Minimum confidence (0-1)")
	f.BoolVar(&findFlags.multiScale, "multi-scale", false, "Search across a range of template scales")
	f.Float64Var(&findFlags.minScale, "min-scale", 0.8, "Multi-scale lower bound")
	f.Float64Var(&findFlags.maxScale, "max-scale", 1.2, "Multi-scale upper bound")
	f.IntVar(&findFlags.scaleSteps, "scale-steps", 5, "Multi-scale step count")
	f.StringVar(&findFlags.region, "region", "", "Ratio rectangle startX,startY,endX,endY restricting the search")
}

func runFind(cmd *cobra.Command, args []string) error {
	src, err := vision.LoadImage(args[0])
	if err != nil {
		return err
	}

	region := vision.FullRegion()
	if findFlags.region != "" {
		if region, err = vision.ParseRegion(findFlags.region); err != nil {
			return err
		}
	}

	svc := vision.NewService()
	var dets []vision.Detection
	if findFlags.multiScale {
		dets, err = svc.FindTemplateMultiScale(cmd.Context(), src, args[1],
			findFlags.threshold, findFlags.minScale, findFlags.maxScale, findFlags.scaleSteps, region)
	} else {
		dets, err = svc.FindTemplate(cmd.Context(), src, args[1], findFlags.threshold, region)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(dets) == 0 {
		fmt.Fprintln(out, "no match")
		return nil
	}

	best, _ := vision.Best(dets)
	for i, d := range dets {
		marker := " "
		if d == best {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %2d. (%d,%d) %dx%d confidence=%.3f scale=%.2f\n",
			marker, i+1, d.X, d.Y, d.Width, d.Height, d.Confidence, d.Scale)
	}
	return nil
}
