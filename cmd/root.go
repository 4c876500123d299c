package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	mtp "github.com/modeltoolsprotocol/go-sdk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rogersnm/copista/internal/camera"
	"github.com/rogersnm/copista/internal/config"
	"github.com/rogersnm/copista/internal/logging"
	"github.com/rogersnm/copista/internal/markdown"
	"github.com/rogersnm/copista/internal/progress"
	"github.com/rogersnm/copista/internal/project"
)

var (
	version  = "dev"
	dataDir  string
	logLevel string

	cfg       *config.Config
	logger    *zap.Logger
	mgr       *project.Manager
	indicator progress.Indicator

	// cameraRunner replaces the gphoto2 subprocess when set.
	cameraRunner camera.Runner
)

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".copista")
	}
	return filepath.Join(home, ".copista")
}

var rootCmd = &cobra.Command{
	Use:   "copista",
	Short: "Digitize books into projects of page bundles",
	Long: `Copista organises book digitization work into projects. A project is a
directory holding an ordered list of bundles, each bundle being the one to
three images of a single capture (typically the two pages of an open book).

Bundles can be added from existing image files, from a tethered camera
driven through gphoto2, or from a synthetic page generator.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file if present (ignore errors)
		_ = godotenv.Load()

		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		var err error
		cfg, err = config.Load(dataDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg.ApplyEnv()
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		mgr = project.NewManager(cfg, logger)
		if indicator == nil {
			indicator = progress.Default()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync(logger)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "data directory path")
	rootCmd.PersistentFlags().StringP("project", "p", "", "project directory (default: enclosing project, then the last one used)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	mtpOpts := &mtp.DescribeOptions{
		Commands: map[string]*mtp.CommandAnnotation{
			"project create": {
				Stdin: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "Project description",
				},
				Examples: []mtp.Example{
					{Description: "Create a project in the base folder", Command: "copista project create \"Libro de bautismos 1790\""},
					{Description: "Create from a markdown brief", Command: "copista project create --from brief.md --parent ~/scans"},
				},
			},
			"project describe": {
				Stdin: &mtp.IODescriptor{
					ContentType: "text/markdown",
					Description: "New project description",
				},
				Examples: []mtp.Example{
					{Description: "Set the description", Command: "copista project describe --set \"Two volumes bound together\""},
					{Description: "Clear the description", Command: "copista project describe --clear"},
				},
			},
			"project list": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "Table of projects with directory name, title and bundle count",
				},
			},
			"bundle add": {
				Examples: []mtp.Example{
					{Description: "Append a two-page spread", Command: "copista bundle add left.jpg right.jpg"},
					{Description: "Insert a cover before the first bundle", Command: "copista bundle add cover.jpg --at 1"},
				},
			},
			"bundle list": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "Table of bundles with 1-based position, type and image names",
				},
			},
			"capture dummy": {
				Examples: []mtp.Example{
					{Description: "Add a synthetic spread with a fixed seed", Command: "copista capture dummy --seed 42"},
				},
			},
			"capture watch": {
				Examples: []mtp.Example{
					{Description: "Import every two images dropped into a folder", Command: "copista capture watch --dir ~/Pictures/incoming"},
					{Description: "Shoot from the camera body and import each spread", Command: "copista capture watch --tethered"},
				},
			},
			"camera doctor": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "Detected cameras, available ports and troubleshooting steps",
				},
			},
			"camera config set": {
				Examples: []mtp.Example{
					{Description: "Set ISO using a dotted key", Command: "copista camera config set imgsettings.iso 400"},
				},
			},
		},
	}

	mtp.WithDescribe(rootCmd, mtpOpts)
}

func Execute() error {
	return fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	)
}

func stdout(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
func stderr(cmd *cobra.Command) io.Writer { return cmd.ErrOrStderr() }

func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change Copista settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		fmt.Fprintln(stdout(cmd), markdown.RenderField("Data", dataDir))
		fmt.Fprint(stdout(cmd), string(data))
		return nil
	},
}

var configSetBaseCmd = &cobra.Command{
	Use:   "set-base <dir>",
	Short: "Set the folder new projects are created in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		cfg.BaseProjectsFolder = dir
		if err := config.Save(dataDir, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(stdout(cmd), "Base projects folder set to %s\n", dir)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetBaseCmd)
	rootCmd.AddCommand(configCmd)
}

var errNoProject = errors.New("no project selected (pass --project, run inside a project directory, or open one with: copista project open <dir>)")

// resolveProject returns the project directory from the flag, the
// enclosing project of the working directory, or the last one used.
func resolveProject(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("project")
	if p != "" {
		return p, nil
	}
	if cwd, err := os.Getwd(); err == nil {
		if root := project.FindRoot(cwd); root != "" {
			return root, nil
		}
	}
	if cfg != nil && cfg.LastProject != "" {
		return cfg.LastProject, nil
	}
	return "", errNoProject
}

// openProject loads the resolved project and makes it current, printing
// any load warnings.
func openProject(cmd *cobra.Command) (*project.Project, error) {
	dir, err := resolveProject(cmd)
	if err != nil {
		return nil, err
	}
	p, warnings, err := mgr.Load(dir)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintln(stderr(cmd), markdown.RenderWarning(w.String()))
	}
	return p, nil
}

// rememberProject stores p as the project used when none is given.
func rememberProject(p *project.Project) error {
	cfg.LastProject = p.Dir()
	if err := config.Save(dataDir, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}
