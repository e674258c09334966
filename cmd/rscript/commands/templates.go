package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/rscript/internal/ui/style"
)

func (c *CLI) newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect the templates scripts are rendered with",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(c.newTemplatesListCmd())
	cmd.AddCommand(c.newTemplatesDumpCmd())
	cmd.AddCommand(c.newTemplatesPathCmd())
	return cmd
}

func (c *CLI) newTemplatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List builtin and user templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tmpls, err := c.app.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			r := c.renderer(out)
			muted := style.Muted.Renderer(r)
			for _, t := range tmpls {
				origin := t.Path
				if t.Builtin {
					origin = "builtin"
				}
				_, _ = fmt.Fprintf(out, "%s %s\n", t.Name, muted.Render("("+origin+")"))
			}
			return nil
		},
	}
}

func (c *CLI) newTemplatesDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <name>",
		Short: "Print the text of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.app.DumpTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprint(out, text)
			if !strings.HasSuffix(text, "\n") {
				_, _ = fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func (c *CLI) newTemplatesPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the directory user templates are read from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := c.app.TemplatePath()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
