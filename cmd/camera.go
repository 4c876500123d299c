package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rogersnm/copista/internal/camera"
	"github.com/rogersnm/copista/internal/markdown"
)

var cameraSettle = camera.DefaultSettle

func newCamera(downloadDir string) *camera.Controller {
	return camera.New(camera.Options{
		Runner:      cameraRunner,
		Binary:      cfg.Camera.Binary,
		Port:        cfg.Camera.Port,
		Target:      camera.Target(cfg.Camera.Target),
		DownloadDir: downloadDir,
		Settle:      cameraSettle,
		Logger:      logger,
	})
}

func connectCamera(ctx context.Context, downloadDir string) (*camera.Controller, error) {
	cam := newCamera(downloadDir)
	if err := cam.Connect(ctx); err != nil {
		return nil, fmt.Errorf("%w (run: copista camera doctor)", err)
	}
	return cam, nil
}

var cameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Control a tethered camera through gphoto2",
}

var cameraDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "List connected cameras",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cams, err := newCamera(".").Detect(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), markdown.RenderCameraTable(cams))
		return nil
	},
}

var cameraDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that a camera can be reached",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := newCamera(".").Diagnose(cmd.Context())
		out := stdout(cmd)

		if d.DetectErr != nil {
			fmt.Fprintln(out, markdown.RenderCheck(false, "auto-detect failed: "+d.DetectErr.Error()))
		} else {
			fmt.Fprintln(out, markdown.RenderCheck(len(d.Cameras) > 0, fmt.Sprintf("%d camera(s) detected", len(d.Cameras))))
			if len(d.Cameras) > 0 {
				fmt.Fprintln(out, markdown.RenderCameraTable(d.Cameras))
			}
		}
		if d.PortsErr != nil {
			fmt.Fprintln(out, markdown.RenderCheck(false, "list ports failed: "+d.PortsErr.Error()))
		} else {
			fmt.Fprintln(out, markdown.RenderCheck(len(d.Ports) > 0, fmt.Sprintf("%d port(s) available", len(d.Ports))))
			if len(d.Ports) > 0 {
				fmt.Fprintln(out, markdown.RenderPortTable(d.Ports))
			}
		}

		if !d.OK() {
			fmt.Fprintln(out)
			fmt.Fprint(out, camera.Troubleshooting)
			return fmt.Errorf("no camera reachable")
		}
		return nil
	},
}

var cameraSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the camera summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cam, err := connectCamera(cmd.Context(), ".")
		if err != nil {
			return err
		}
		s, err := cam.Summary(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(stdout(cmd), s)
		return nil
	},
}

var cameraCaptureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Take one picture and download it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		name, _ := cmd.Flags().GetString("filename")
		del, _ := cmd.Flags().GetBool("delete")

		cam, err := connectCamera(cmd.Context(), dir)
		if err != nil {
			return err
		}
		path, err := cam.Capture(cmd.Context(), name, del)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), path)
		return nil
	},
}

var cameraFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "List files stored on the camera",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cam, err := connectCamera(cmd.Context(), ".")
		if err != nil {
			return err
		}
		files, err := cam.ListFiles(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), markdown.RenderFileTable(files))
		return nil
	},
}

var cameraDownloadCmd = &cobra.Command{
	Use:   "download <n>",
	Short: "Download a file by its number in `camera files`",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		as, _ := cmd.Flags().GetString("as")
		del, _ := cmd.Flags().GetBool("delete")

		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid file number %q", args[0])
		}
		cam, err := connectCamera(cmd.Context(), dir)
		if err != nil {
			return err
		}
		files, err := cam.ListFiles(cmd.Context())
		if err != nil {
			return err
		}
		var target *camera.File
		for i := range files {
			if files[i].Number == n {
				target = &files[i]
				break
			}
		}
		if target == nil {
			return fmt.Errorf("camera has no file #%d", n)
		}
		path, err := cam.Download(cmd.Context(), *target, as, del)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), path)
		return nil
	},
}

var cameraSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change common settings (iso, aperture, ...)",
	Long: `Without --set, print the common photographic settings the camera exposes.
Each --set takes name=value, where name is one of: ` + commonSettingNames() + `.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		cam, err := connectCamera(cmd.Context(), ".")
		if err != nil {
			return err
		}

		if len(sets) == 0 {
			settings, err := cam.CommonSettings(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout(cmd), markdown.RenderSettingsTable(settings))
			return nil
		}

		values := make(map[string]string, len(sets))
		for _, s := range sets {
			name, value, ok := strings.Cut(s, "=")
			if !ok || name == "" {
				return fmt.Errorf("invalid --set %q, want name=value", s)
			}
			values[name] = value
		}
		results, err := cam.SetCommonSettings(cmd.Context(), values)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(results))
		for name := range results {
			names = append(names, name)
		}
		sort.Strings(names)
		failed := 0
		for _, name := range names {
			if err := results[name]; err != nil {
				failed++
				fmt.Fprintln(stdout(cmd), markdown.RenderCheck(false, err.Error()))
				continue
			}
			fmt.Fprintln(stdout(cmd), markdown.RenderCheck(true, name+" = "+values[name]))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d settings not applied", failed, len(names))
		}
		return nil
	},
}

func commonSettingNames() string {
	names := make([]string, len(camera.CommonSettingsTable))
	for i, s := range camera.CommonSettingsTable {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}

var cameraConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write raw camera configuration",
}

var cameraConfigListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cam, err := connectCamera(cmd.Context(), ".")
		if err != nil {
			return err
		}
		keys, err := cam.ConfigKeys(cmd.Context())
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(stdout(cmd), k)
		}
		return nil
	},
}

var cameraConfigGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a configuration value and its choices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cam, err := connectCamera(cmd.Context(), ".")
		if err != nil {
			return err
		}
		entry, err := cam.GetConfig(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(stdout(cmd), markdown.RenderConfigEntry(entry))
		return nil
	},
}

var cameraConfigSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cam, err := connectCamera(cmd.Context(), ".")
		if err != nil {
			return err
		}
		if err := cam.SetConfig(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(stdout(cmd), "%s set to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	cameraCaptureCmd.Flags().String("dir", ".", "download directory")
	cameraCaptureCmd.Flags().String("filename", "", "local file name (default: capture_<timestamp>)")
	cameraCaptureCmd.Flags().Bool("delete", false, "delete the image from the card after download")
	cameraDownloadCmd.Flags().String("dir", ".", "download directory")
	cameraDownloadCmd.Flags().String("as", "", "local file name (default: the camera's name)")
	cameraDownloadCmd.Flags().Bool("delete", false, "delete the file from the camera after download")
	cameraSettingsCmd.Flags().StringArray("set", nil, "name=value to apply (repeatable)")

	cameraConfigCmd.AddCommand(cameraConfigListCmd)
	cameraConfigCmd.AddCommand(cameraConfigGetCmd)
	cameraConfigCmd.AddCommand(cameraConfigSetCmd)

	cameraCmd.AddCommand(cameraDetectCmd)
	cameraCmd.AddCommand(cameraDoctorCmd)
	cameraCmd.AddCommand(cameraSummaryCmd)
	cameraCmd.AddCommand(cameraCaptureCmd)
	cameraCmd.AddCommand(cameraFilesCmd)
	cameraCmd.AddCommand(cameraDownloadCmd)
	cameraCmd.AddCommand(cameraSettingsCmd)
	cameraCmd.AddCommand(cameraConfigCmd)
	rootCmd.AddCommand(cameraCmd)
}
