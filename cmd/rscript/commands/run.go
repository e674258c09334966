package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/rscript/internal/app"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/zerr"
)

// runFlags holds the flags shared by the root and run commands.
type runFlags struct {
	expr       string
	loop       string
	count      bool
	deps       []string
	depExterns []string
	externs    []string
	template   string
	debug      bool
	test       bool
	bench      bool
	features   []string
	force      bool
	genPkgOnly bool
	buildOnly  bool
}

func (rf *runFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&rf.expr, "expr", "e", "", "Evaluate an expression and print its value")
	f.StringVarP(&rf.loop, "loop", "l", "", "Apply a closure to every line of standard input")
	f.BoolVar(&rf.count, "count", false, "Pass the line number to the --loop closure")
	f.StringArrayVarP(&rf.deps, "dep", "d", nil, "Add a dependency as name[=version]")
	f.StringArrayVarP(&rf.depExterns, "dep-extern", "D", nil, "Add a dependency and import it with #[macro_use]")
	f.StringArrayVarP(&rf.externs, "extern", "x", nil, "Import a crate with #[macro_use] as name[=alias]")
	f.StringVarP(&rf.template, "template", "t", "", "Render the script with the named template")
	f.BoolVar(&rf.debug, "debug", false, "Build with the debug profile")
	f.BoolVar(&rf.test, "test", false, "Build and run the script's tests")
	f.BoolVar(&rf.bench, "bench", false, "Build and run the script's benchmarks")
	f.StringSliceVar(&rf.features, "features", nil, "Cargo features to enable")
	f.BoolVarP(&rf.force, "force", "f", false, "Rebuild even when a cached artifact exists")
	f.BoolVar(&rf.genPkgOnly, "gen-pkg-only", false, "Write the package and print its directory without building")
	f.BoolVar(&rf.buildOnly, "build-only", false, "Build the artifact without running it")

	cmd.MarkFlagsMutuallyExclusive("debug", "test", "bench")
	cmd.MarkFlagsMutuallyExclusive("expr", "loop")
	cmd.MarkFlagsMutuallyExclusive("gen-pkg-only", "build-only")
}

func exprGiven(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("expr")
}

func loopGiven(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("loop")
}

func (rf *runFlags) mode() domain.BuildMode {
	switch {
	case rf.debug:
		return domain.ModeDebug
	case rf.test:
		return domain.ModeTest
	case rf.bench:
		return domain.ModeBench
	default:
		return domain.ModeRelease
	}
}

func (c *CLI) newRunCmd() *cobra.Command {
	rf := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [flags] <script> [args...]",
		Short: "Compile and run a script",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !exprGiven(cmd) && !loopGiven(cmd) {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			return c.run(cmd, rf, args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	rf.register(cmd)
	return cmd
}

// run builds the invocation from the flags and positional arguments. With a
// script the first argument names it; otherwise every argument goes to the program.
func (c *CLI) run(cmd *cobra.Command, rf *runFlags, args []string) error {
	wd, err := c.getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to determine working directory")
	}

	inv := domain.Invocation{
		Expr:       rf.expr,
		HasExpr:    exprGiven(cmd),
		Loop:       rf.loop,
		HasLoop:    loopGiven(cmd),
		Count:      rf.count,
		Deps:       rf.deps,
		DepExterns: rf.depExterns,
		Externs:    rf.externs,
		Template:   rf.template,
		Mode:       rf.mode(),
		Features:   rf.features,
		WorkDir:    wd,
		Args:       args,
	}
	if !inv.HasExpr && !inv.HasLoop {
		inv.Script = args[0]
		inv.Args = args[1:]
	}

	code, err := c.app.Run(cmd.Context(), inv, app.RunOptions{
		Force:      rf.force,
		GenPkgOnly: rf.genPkgOnly,
		BuildOnly:  rf.buildOnly,
		Color:      c.useColor(),
	})
	if err != nil {
		return err
	}
	c.exitCode = code
	return nil
}
