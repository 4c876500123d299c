package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rogersnm/copista/internal/camera"
	"github.com/rogersnm/copista/internal/capture"
	"github.com/rogersnm/copista/internal/dummy"
	"github.com/rogersnm/copista/internal/hotfolder"
	"github.com/rogersnm/copista/internal/markdown"
	"github.com/rogersnm/copista/internal/model"
	"github.com/rogersnm/copista/internal/project"
)

const incomingSubfolder = "incoming"

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture spreads into the current project",
}

func captureInto(cmd *cobra.Command, p *project.Project, src capture.Source) error {
	index, err := insertIndex(cmd, p.Len())
	if err != nil {
		return err
	}
	b, err := capture.IntoProject(cmd.Context(), p, src, indicator, index)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Added bundle %d (%s)\n", index+1, strings.Join(b.Images, ", "))
	return nil
}

var captureDummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Add a synthetic two-page spread",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd)
		if err != nil {
			return err
		}
		gen := dummy.NewRandom()
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetUint64("seed")
			gen = dummy.New(seed)
		}
		return captureInto(cmd, p, capture.DummySource{Gen: gen})
	},
}

var captureCameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Shoot the left and then the right page with the camera",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd)
		if err != nil {
			return err
		}
		cam, err := connectCamera(cmd.Context(), p.CaptureDir())
		if err != nil {
			return err
		}
		return captureInto(cmd, p, capture.CameraSource{
			Camera:           cam,
			DeleteFromCamera: cfg.Camera.DeleteAfterDownload,
		})
	},
}

var captureWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Import images dropped into a folder as bundles",
	Long: `Watch a folder and append a bundle for every group of --per-bundle images
that appear in it, in arrival order. With --tethered the camera is put in
tethered mode and every shot taken on the body lands in the folder.

Without --dir the project's own staging folder is watched and imported
images are removed from it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		perBundle, _ := cmd.Flags().GetInt("per-bundle")
		tethered, _ := cmd.Flags().GetBool("tethered")
		limit, _ := cmd.Flags().GetInt("limit")
		if perBundle < model.MinBundleImages || perBundle > model.MaxBundleImages {
			return fmt.Errorf("--per-bundle must be %d-%d", model.MinBundleImages, model.MaxBundleImages)
		}

		p, err := openProject(cmd)
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("dir")
		owned := dir == ""
		if owned {
			dir = filepath.Join(p.CaptureDir(), incomingSubfolder)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		var cam *camera.Controller
		if tethered {
			if cam, err = connectCamera(ctx, dir); err != nil {
				return err
			}
		}

		w, err := hotfolder.New(hotfolder.Options{Dir: dir, GroupSize: perBundle, Logger: logger})
		if err != nil {
			return err
		}

		errc := make(chan error, 2)
		go func() { errc <- w.Run(ctx) }()
		if cam != nil {
			go func() {
				if err := cam.Tethered(ctx, w.Dir()); err != nil {
					errc <- err
					cancel()
				}
			}()
		}

		fmt.Fprintf(stdout(cmd), "Watching %s (%d images per bundle). Press Ctrl+C to stop.\n", w.Dir(), perBundle)
		added := 0
		for group := range w.Groups() {
			b, err := p.ImportImages(model.BundleGeneric, group, p.Len())
			if err != nil {
				logger.Error("import failed", zap.Strings("files", group), zap.Error(err))
				fmt.Fprintln(stderr(cmd), markdown.RenderWarning(err.Error()))
				continue
			}
			if owned {
				for _, f := range group {
					os.Remove(f)
				}
			}
			added++
			fmt.Fprintf(stdout(cmd), "Added bundle %d (%s)\n", p.Len(), strings.Join(b.Images, ", "))
			if limit > 0 && added >= limit {
				cancel()
			}
		}
		fmt.Fprintf(stdout(cmd), "Stopped after %d bundles\n", added)
		return <-errc
	},
}

func init() {
	captureDummyCmd.Flags().Int("at", 0, "insert before this 1-based position (default: append)")
	captureDummyCmd.Flags().Uint64("seed", 0, "random seed for a reproducible spread")
	captureCameraCmd.Flags().Int("at", 0, "insert before this 1-based position (default: append)")
	captureWatchCmd.Flags().String("dir", "", "folder to watch (default: the project's staging folder)")
	captureWatchCmd.Flags().Int("per-bundle", hotfolder.DefaultGroupSize, "images per bundle")
	captureWatchCmd.Flags().Bool("tethered", false, "drive the camera in tethered mode into the watched folder")
	captureWatchCmd.Flags().Int("limit", 0, "stop after this many bundles (default: run until interrupted)")

	captureCmd.AddCommand(captureDummyCmd)
	captureCmd.AddCommand(captureCameraCmd)
	captureCmd.AddCommand(captureWatchCmd)
	rootCmd.AddCommand(captureCmd)
}
