package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	struai "github.com/struai/struai-go"
)

var (
	cropBBox      []float64
	cropUUID      string
	cropImage     string
	cropPageHash  string
	cropCacheDir  string
	cropPad       int
	cropNoClamp   bool
	cropScale     float64
	cropScaleX    float64
	cropScaleY    float64
	cropAutoScale bool
)

var cropCmd = &cobra.Command{
	Use:   "crop <output.png>",
	Short: "Crop a region out of a page raster",
	Long: `Cut a region from a cached page raster and write it as PNG. The region
comes either from an explicit bounding box or from a graph node's stored
box.

Examples:
  struai crop detail.png -p proj_abc123 --bbox 100,200,400,550 --image page.png
  struai crop detail.png -p proj_abc123 --uuid 018f3a... --pad 20
  struai crop detail.png -p proj_abc123 --uuid 018f3a... --auto-scale`,
	Args: cobra.ExactArgs(1),
	RunE: runCrop,
}

func init() {
	cropCmd.Flags().Float64SliceVar(&cropBBox, "bbox", nil, "region as x_min,y_min,x_max,y_max")
	cropCmd.Flags().StringVar(&cropUUID, "uuid", "", "graph node whose stored box is cropped")
	cropCmd.Flags().StringVar(&cropImage, "image", "", "explicit raster path")
	cropCmd.Flags().StringVar(&cropPageHash, "page-hash", "", "page hash for cache lookup")
	cropCmd.Flags().StringVar(&cropCacheDir, "cache-dir", "", "page cache directory override")
	cropCmd.Flags().IntVar(&cropPad, "pad", 0, "pixels of padding on every side")
	cropCmd.Flags().BoolVar(&cropNoClamp, "no-clamp", false, "do not clamp the box to the image bounds")
	cropCmd.Flags().Float64Var(&cropScale, "scale", 0, "uniform drawing-to-pixel scale")
	cropCmd.Flags().Float64Var(&cropScaleX, "scale-x", 0, "horizontal scale")
	cropCmd.Flags().Float64Var(&cropScaleY, "scale-y", 0, "vertical scale")
	cropCmd.Flags().BoolVar(&cropAutoScale, "auto-scale", false, "derive the transform from page extents")

	rootCmd.AddCommand(cropCmd)
}

func runCrop(cmd *cobra.Command, args []string) error {
	p, err := project()
	if err != nil {
		return err
	}

	params := struai.CropParams{
		UUID:      cropUUID,
		Output:    args[0],
		Image:     cropImage,
		PageHash:  cropPageHash,
		CacheDir:  cropCacheDir,
		Pad:       cropPad,
		Scale:     cropScale,
		ScaleX:    cropScaleX,
		ScaleY:    cropScaleY,
		AutoScale: cropAutoScale,
	}
	if cropNoClamp {
		clampOff := false
		params.Clamp = &clampOff
	}
	if len(cropBBox) > 0 {
		if len(cropBBox) != 4 {
			return fmt.Errorf("--bbox needs exactly 4 values, got %d", len(cropBBox))
		}
		box := struai.BBox{cropBBox[0], cropBBox[1], cropBBox[2], cropBBox[3]}
		params.BBox = &box
	}

	result, err := p.DocQuery.Crop(cmd.Context(), params)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%d bytes)\n", result.OutputPath, result.BytesWritten)
	fmt.Printf("  Pixel box: [%d %d %d %d] in %dx%d\n",
		result.PixelBox[0], result.PixelBox[1], result.PixelBox[2], result.PixelBox[3],
		result.ImageWidth, result.ImageHeight)
	fmt.Printf("  Scale: %s (%.4g, %.4g)\n", result.ScaleMode, result.ScaleX, result.ScaleY)
	for _, w := range result.Warnings {
		fmt.Printf("  Warning: %s\n", w.Message)
	}
	return nil
}
