package cmd

import (
	"fmt"
	"os"
	"strings"

	"swachhconnect/categorizer"

	"github.com/fatih/color"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

var categorizeImage string

var categorizeCmd = &cobra.Command{
	Use:   "categorize <caption>",
	Short: "Categorize a report from the terminal",
	Example: `  swachhconnect categorize "overflowing bin near the park" --image bin.jpg
  swachhconnect categorize "huge pothole on 5th street"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var image *categorizer.Image
		if categorizeImage != "" {
			data, err := os.ReadFile(categorizeImage)
			if err != nil {
				return err
			}
			mime := mimetype.Detect(data)
			if !strings.HasPrefix(mime.String(), "image/") {
				return fmt.Errorf("%s is not an image (%s)", categorizeImage, mime.String())
			}
			image = &categorizer.Image{MIMEType: mime.String(), Data: data}
		}

		svc, closeFn, err := newCategorizer(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		category := svc.Categorize(cmd.Context(), args[0], image)
		fmt.Fprintln(cmd.OutOrStdout(), categoryColor(category).Sprint(category))
		return nil
	},
}

func init() {
	categorizeCmd.Flags().StringVarP(&categorizeImage, "image", "i", "", "path to a photo of the issue")
	rootCmd.AddCommand(categorizeCmd)
}

func categoryColor(c categorizer.Category) *color.Color {
	switch c {
	case categorizer.Garbage:
		return color.New(color.FgYellow, color.Bold)
	case categorizer.Drainage:
		return color.New(color.FgBlue, color.Bold)
	case categorizer.Potholes:
		return color.New(color.FgRed, color.Bold)
	case categorizer.Streetlights:
		return color.New(color.FgMagenta, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}
