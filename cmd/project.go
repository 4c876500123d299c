package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rogersnm/copista/internal/config"
	"github.com/rogersnm/copista/internal/editor"
	"github.com/rogersnm/copista/internal/markdown"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new project",
	Long: `Create a project directory named after the title. Without --parent the
project is created in the base projects folder. The description can be given
with --description, piped on stdin, or taken from the body of a --from brief.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")
		desc, _ := cmd.Flags().GetString("description")
		from, _ := cmd.Flags().GetString("from")

		var title string
		if len(args) == 1 {
			title = args[0]
		}
		if from != "" {
			data, err := os.ReadFile(from)
			if err != nil {
				return fmt.Errorf("reading brief: %w", err)
			}
			brief, body, err := markdown.ParseBrief(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("%s: %w", from, err)
			}
			if title == "" {
				title = brief.Title
			}
			if desc == "" {
				desc = body
			}
		}
		if desc == "" {
			desc = strings.TrimSpace(readStdin())
		}
		if title == "" {
			if !interactive() {
				return fmt.Errorf("a project title is required")
			}
			if err := huh.NewInput().Title("Project title").Value(&title).Run(); err != nil {
				return err
			}
		}

		p, err := mgr.Create(title, parent)
		if err != nil {
			return err
		}
		if desc != "" {
			if err := p.SetDescription(&desc); err != nil {
				return err
			}
		}
		if err := rememberProject(p); err != nil {
			return err
		}
		fmt.Fprintf(stdout(cmd), "Created project %s in %s\n", p.Title(), p.Dir())
		return nil
	},
}

var projectOpenCmd = &cobra.Command{
	Use:   "open <dir>",
	Short: "Open a project and make it the current one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, warnings, err := mgr.Load(args[0])
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintln(stderr(cmd), markdown.RenderWarning(w.String()))
		}
		if err := rememberProject(p); err != nil {
			return err
		}
		fmt.Fprintf(stdout(cmd), "Opened %s (%d bundles)\n", p.Title(), p.Len())
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show project details",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		p, err := openProject(cmd)
		if err != nil {
			return err
		}
		if raw {
			for _, path := range []string{p.MetadataPath(), p.BundlesPath()} {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				fmt.Fprint(stdout(cmd), string(data))
			}
			return nil
		}

		fields := []string{
			markdown.RenderField("Directory", p.Dir()),
			markdown.RenderField("Bundles", fmt.Sprintf("%d", p.Len())),
		}
		fmt.Fprint(stdout(cmd), markdown.RenderEntityHeader(p.Title(), fields))
		meta := p.Metadata()
		if body := meta.DescriptionText(); body != "" {
			rendered, err := markdown.RenderMarkdown(body)
			if err != nil {
				fmt.Fprintln(stdout(cmd), body)
			} else {
				fmt.Fprint(stdout(cmd), rendered)
			}
		}
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects in a folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")
		projects, err := mgr.List(parent)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), markdown.RenderProjectTable(projects))
		return nil
	},
}

var projectDescribeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Set, clear or edit the project description",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, _ := cmd.Flags().GetString("set")
		clearDesc, _ := cmd.Flags().GetBool("clear")
		edit, _ := cmd.Flags().GetBool("edit")

		p, err := openProject(cmd)
		if err != nil {
			return err
		}

		switch {
		case clearDesc:
			if err := p.SetDescription(nil); err != nil {
				return err
			}
			fmt.Fprintln(stdout(cmd), "Description cleared")
			return nil
		case edit:
			initial, err := markdown.MarshalBrief(p.Metadata())
			if err != nil {
				return err
			}
			edited, err := editor.Edit(initial, "copista-*.md")
			if err != nil {
				return err
			}
			brief, body, err := markdown.ParseBrief(bytes.NewReader(edited))
			if err != nil {
				return err
			}
			if brief.Title != p.Title() {
				fmt.Fprintln(stderr(cmd), markdown.RenderWarning("title changes are ignored; only the description is saved"))
			}
			set = body
		case set == "":
			set = strings.TrimSpace(readStdin())
			if set == "" {
				return fmt.Errorf("no description given (use --set, --clear, --edit or stdin)")
			}
		}

		var desc *string
		if set != "" {
			desc = &set
		}
		if err := p.SetDescription(desc); err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), "Description updated")
		return nil
	},
}

var projectCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Save and close the current project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		p, err := openProject(cmd)
		if err != nil {
			return err
		}
		if !force && interactive() {
			var confirm bool
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Close %s and forget it as the current project?", p.Title())).
				Value(&confirm).
				Run()
			if err != nil {
				return err
			}
			if !confirm {
				return nil
			}
		}
		if err := mgr.Close(); err != nil {
			return err
		}
		if cfg.LastProject == p.Dir() {
			cfg.LastProject = ""
			if err := config.Save(dataDir, cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
		}
		fmt.Fprintf(stdout(cmd), "Closed %s\n", p.Title())
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().String("parent", "", "folder to create the project in (default: base projects folder)")
	projectCreateCmd.Flags().String("description", "", "project description")
	projectCreateCmd.Flags().String("from", "", "markdown brief with a title in its frontmatter")
	projectListCmd.Flags().String("parent", "", "folder to list (default: base projects folder)")
	projectShowCmd.Flags().Bool("raw", false, "print the project files as stored")
	projectDescribeCmd.Flags().String("set", "", "new description")
	projectDescribeCmd.Flags().Bool("clear", false, "remove the description")
	projectDescribeCmd.Flags().Bool("edit", false, "edit the description in $EDITOR")
	projectDescribeCmd.MarkFlagsMutuallyExclusive("set", "clear", "edit")
	projectCloseCmd.Flags().BoolP("force", "f", false, "skip confirmation")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectOpenCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectDescribeCmd)
	projectCmd.AddCommand(projectCloseCmd)
	rootCmd.AddCommand(projectCmd)
}

// readStdin returns piped input, or "" when stdin is a terminal or empty.
func readStdin() string {
	info, err := os.Stdin.Stat()
	if err != nil {
		return ""
	}
	if info.Mode()&os.ModeNamedPipe == 0 && info.Size() == 0 {
		return ""
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ""
	}
	return string(data)
}
