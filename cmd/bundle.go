package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rogersnm/copista/internal/editor"
	"github.com/rogersnm/copista/internal/markdown"
	"github.com/rogersnm/copista/internal/model"
	"github.com/rogersnm/copista/internal/progress"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Inspect and add bundles",
}

var bundleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the bundles of the current project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), markdown.RenderBundleTable(p.Bundles()))
		return nil
	},
}

var bundleShowCmd = &cobra.Command{
	Use:   "show <n>",
	Short: "Show one bundle by its 1-based position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		open, _ := cmd.Flags().GetBool("open")
		p, err := openProject(cmd)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid bundle number %q", args[0])
		}
		b, err := p.Bundle(n - 1)
		if err != nil {
			return err
		}

		paths := make([]string, len(b.Images))
		for i, img := range b.Images {
			paths[i] = p.ImagePath(img)
		}
		fields := []string{
			markdown.RenderField("Type", string(b.Type)),
			markdown.RenderField("Images", strings.Join(paths, "\n        ")),
		}
		fmt.Fprint(stdout(cmd), markdown.RenderEntityHeader(fmt.Sprintf("Bundle %d", n), fields))
		if open {
			return editor.View(paths...)
		}
		return nil
	},
}

var bundleAddCmd = &cobra.Command{
	Use:   "add <image>...",
	Short: "Copy images into the project as one bundle",
	Args:  cobra.RangeArgs(model.MinBundleImages, model.MaxBundleImages),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd)
		if err != nil {
			return err
		}
		index, err := insertIndex(cmd, p.Len())
		if err != nil {
			return err
		}

		names, err := progress.Run(cmd.Context(), indicator, "Copying images...", func() ([]string, error) {
			return p.CopyImages(args)
		})
		if err != nil {
			return err
		}
		b, err := p.InsertCopied(model.BundleGeneric, names, index)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout(cmd), "Added bundle %d (%s)\n", index+1, strings.Join(b.Images, ", "))
		return nil
	},
}

// insertIndex turns the 1-based --at flag into a 0-based insert position.
// Without the flag it appends.
func insertIndex(cmd *cobra.Command, n int) (int, error) {
	if !cmd.Flags().Changed("at") {
		return n, nil
	}
	at, _ := cmd.Flags().GetInt("at")
	if at < 1 || at > n+1 {
		return 0, fmt.Errorf("--at %d out of range (1-%d)", at, n+1)
	}
	return at - 1, nil
}

func init() {
	bundleShowCmd.Flags().Bool("open", false, "open the images in the image viewer")
	bundleAddCmd.Flags().Int("at", 0, "insert before this 1-based position (default: append)")

	bundleCmd.AddCommand(bundleListCmd)
	bundleCmd.AddCommand(bundleShowCmd)
	bundleCmd.AddCommand(bundleAddCmd)
	rootCmd.AddCommand(bundleCmd)
}
