package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/odvcencio/revplan/pkg/analyze"
	"github.com/odvcencio/revplan/pkg/config"
	"github.com/odvcencio/revplan/pkg/reftable"
	"github.com/odvcencio/revplan/pkg/render"
	"github.com/odvcencio/revplan/pkg/resolved"
	"github.com/odvcencio/revplan/pkg/revset"
)

// builtinCollapsed are collapsed unless --no-collapse-builtin is given.
var builtinCollapsed = []string{"trunk()", "builtin_immutable_heads()"}

// frontendOptions are the flags that shape how revset text is compiled.
type frontendOptions struct {
	collapse          []string
	define            []string
	noCollapseBuiltin bool
	noConfig          bool
	noOptimize        bool
	repository        string
}

func (o *frontendOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVar(&o.collapse, "collapse", nil, "Collapse the named revset alias into a single reference (repeatable)")
	f.StringArrayVarP(&o.define, "define", "d", nil, "Define a revset alias as NAME=BODY (repeatable)")
	f.BoolVarP(&o.noCollapseBuiltin, "no-collapse-builtin", "B", false, "Expand trunk() and builtin_immutable_heads()")
	f.BoolVarP(&o.noConfig, "no-config", "C", false, "Ignore user and repository configuration")
	f.BoolVarP(&o.noOptimize, "no-optimize", "O", false, "Disable revset optimizations")
	f.StringVarP(&o.repository, "repository", "R", "", "Workspace to load configuration from")
}

// workspace returns the workspace root and the working directory. Without
// -R the workspace is discovered upward from the working directory and
// falls back to it.
func (o *frontendOptions) workspace(logger log.Logger) (string, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", fmt.Errorf("working directory: %w", err)
	}
	if o.repository != "" {
		ws, err := filepath.Abs(o.repository)
		if err != nil {
			return "", "", fmt.Errorf("repository: %w", err)
		}
		return ws, cwd, nil
	}
	ws, err := config.FindWorkspace(cwd)
	switch {
	case err == nil:
		return ws, cwd, nil
	case errors.Is(err, config.ErrNoWorkspace):
		level.Debug(logger).Log("msg", "no workspace found", "cwd", cwd)
		return cwd, cwd, nil
	default:
		return "", "", err
	}
}

// aliases builds the alias map for input: configured aliases, then builtin
// collapses, then --define, then --collapse. An alias is never collapsed
// when it is the whole input.
func (o *frontendOptions) aliases(cfg *config.Config, input string, logger log.Logger) (*revset.AliasMap, error) {
	m := cfg.AliasMap(logger)
	collapse := func(decl string) error {
		if input == decl {
			return nil
		}
		if err := m.Collapse(decl); err != nil {
			return fmt.Errorf("collapse %q: %w", decl, err)
		}
		level.Debug(logger).Log("msg", "collapsed alias", "alias", decl)
		return nil
	}

	if !o.noCollapseBuiltin {
		for _, decl := range builtinCollapsed {
			if err := collapse(decl); err != nil {
				return nil, err
			}
		}
	}
	for _, def := range o.define {
		name, body, ok := strings.Cut(def, "=")
		if !ok {
			return nil, fmt.Errorf("expected a '=' in revset definition %q", def)
		}
		if err := m.Insert(strings.TrimSpace(name), strings.TrimSpace(body)); err != nil {
			return nil, fmt.Errorf("define: %w", err)
		}
	}
	for _, decl := range o.collapse {
		if err := collapse(decl); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// compilation is the output of the front end for one input.
type compilation struct {
	expr  resolved.Expression
	table *reftable.Table
	cfg   *config.Config
}

func (o *frontendOptions) compile(input string, logger log.Logger) (*compilation, error) {
	return o.compileWith(input, !o.noOptimize, logger)
}

func (o *frontendOptions) compileWith(input string, optimize bool, logger log.Logger) (*compilation, error) {
	ws, cwd, err := o.workspace(logger)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.Options{WorkspaceDir: ws, NoUserConfig: o.noConfig, Logger: logger})
	if err != nil {
		return nil, err
	}
	aliases, err := o.aliases(cfg, input, logger)
	if err != nil {
		return nil, err
	}

	ctx := &revset.ParseContext{
		Aliases:   aliases,
		UserEmail: cfg.Email(),
		Now:       cfg.CommitTimestamp,
		Workspace: revset.Workspace{Root: ws, Cwd: cwd},
	}
	table := reftable.New()
	expr, err := revset.Compile(input, ctx, table, optimize)
	if err != nil {
		return nil, err
	}
	level.Debug(logger).Log("msg", "compiled revset", "references", table.Len(), "optimized", optimize)
	return &compilation{expr: expr, table: table, cfg: cfg}, nil
}

// renderOptions are the flags that shape how a plan is printed.
type renderOptions struct {
	context   string
	noAnalyze bool
	color     string
}

func (o *renderOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.context, "context", "c", "lazy", "Context the revset is evaluated in (eager, lazy or predicate)")
	f.BoolVarP(&o.noAnalyze, "no-analyze", "A", false, "Don't mark expensive operations or color by context")
	f.StringVar(&o.color, "color", "", "When to colorize output (auto, always or never)")
}

func (o *renderOptions) options() (analyze.Context, render.Options, error) {
	ctx, err := analyze.ParseContext(o.context)
	if err != nil {
		return 0, render.Options{}, err
	}
	return ctx, render.Options{Analyze: !o.noAnalyze}, nil
}

// print renders tree to cmd's output. --color wins over ui.color; cfg may
// be nil.
func (o *renderOptions) print(cmd *cobra.Command, tree analyze.Tree, cfg *config.Config) error {
	ctx, opts, err := o.options()
	if err != nil {
		return err
	}
	mode := render.ColorAuto
	switch {
	case o.color != "":
		if mode, err = render.ParseColorMode(o.color); err != nil {
			return err
		}
	case cfg != nil:
		mode = cfg.ColorMode()
	}
	out := cmd.OutOrStdout()
	opts.Color = mode.Enabled(out)
	return render.Print(out, tree, ctx, opts)
}
