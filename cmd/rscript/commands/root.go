// Package commands implements the CLI commands for rscript.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/rscript/internal/adapters/detector"
	"go.trai.ch/rscript/internal/app"
	"go.trai.ch/rscript/internal/build"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/core/ports"
	"go.trai.ch/zerr"
)

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, inv domain.Invocation, opts app.RunOptions) (int, error)
	ListTemplates(ctx context.Context) ([]domain.Template, error)
	DumpTemplate(ctx context.Context, name string) (string, error)
	TemplatePath() (string, error)
	Migrate(ctx context.Context, dryRun bool) (domain.MigrationReport, error)
	Clean(ctx context.Context, opts domain.CleanOptions) (domain.CleanReport, error)
	ListCache(ctx context.Context) ([]domain.CacheEntry, error)
}

// CLI represents the command line interface for rscript.
type CLI struct {
	app      Application
	logger   ports.Logger
	rootCmd  *cobra.Command
	exitCode int

	verbose bool
	jsonLog bool
	color   string
	// colorOut is the stream color detection probes.
	colorOut io.Writer
	getwd    func() (string, error)
}

// New creates a new CLI instance with the given app.
func New(a Application, logger ports.Logger) *CLI {
	c := &CLI{
		app:      a,
		logger:   logger,
		colorOut: os.Stderr,
		getwd:    os.Getwd,
	}

	rf := &runFlags{}
	rootCmd := &cobra.Command{
		Use:   "rscript [flags] <script> [args...]",
		Short: "Compile and run Rust scripts with cached builds",
		Long: "rscript compiles a Rust script, expression, or line filter into a cached " +
			"package and runs it. Dependencies may be embedded in the script.",
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           build.Version,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !exprGiven(cmd) && !loopGiven(cmd) {
				_ = cmd.Help()
				return nil
			}
			return c.run(cmd, rf, args)
		},
	}
	rootCmd.Flags().SetInterspersed(false)
	rf.register(rootCmd)

	// Defined before the version flag so -v stays with --verbose.
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Show debug output")
	rootCmd.PersistentFlags().BoolVar(&c.jsonLog, "json-log", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&c.color, "color", string(detector.ColorAuto),
		"Colorize build output: auto, always, or never")

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newTemplatesCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.exitCode = 0
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// ExitCode returns the exit code of the last program run by Execute.
func (c *CLI) ExitCode() int {
	return c.exitCode
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) setup(_ *cobra.Command, _ []string) error {
	switch detector.ColorMode(c.color) {
	case detector.ColorAuto, detector.ColorAlways, detector.ColorNever:
	default:
		return zerr.With(zerr.Wrap(domain.ErrInvalidInvocation, "invalid --color value"), "color", c.color)
	}
	c.logger.SetVerbose(c.verbose)
	c.logger.SetJSON(c.jsonLog)
	return nil
}

func (c *CLI) useColor() bool {
	return detector.ResolveColor(detector.DetectColor(c.colorOut), c.color)
}
