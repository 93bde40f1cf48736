package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/deepnoodle-ai/cilsil/diag"
	"github.com/deepnoodle-ai/cilsil/sil"
	"github.com/deepnoodle-ai/cilsil/translate"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var translateCmd = &cobra.Command{
	Use:   "translate <module.json>",
	Short: "Translate the methods of a decoded module",
	Long: `Translate every method of a decoded module and print the resulting
control-flow graphs. Methods that cannot be translated are listed with the
number of instructions left untranslated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runTranslate(ctx, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	f := translateCmd.Flags()
	f.Int("parallelism", runtime.GOMAXPROCS(0), "number of methods translated at once")
	f.Int("max-stack-depth", translate.DefaultMaxStackDepth, "operand stack bound per method")
	f.Int("max-offset-visits", translate.DefaultMaxOffsetVisits, "join point visit bound per method")
	f.String("method", "", "print only the named method")
	f.Bool("fail-on-unfinished", false, "exit with an error when any method is unfinished")
	for _, name := range []string{"parallelism", "max-stack-depth", "max-offset-visits", "method", "fail-on-unfinished"} {
		if err := viper.BindPFlag(name, f.Lookup(name)); err != nil {
			fatal(err)
		}
	}
}

// translation is the JSON rendering of a translate run.
type translation struct {
	Report *diag.Report      `json:"report"`
	Procs  map[string]string `json:"procs"`
}

func runTranslate(ctx context.Context, path string, stdout, stderr io.Writer) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	logger, err := newLogger(stderr)
	if err != nil {
		return err
	}
	module, err := loadModule(path)
	if err != nil {
		return err
	}

	cfg, report, err := translate.TranslateModule(ctx, module,
		translate.WithLogger(logger),
		translate.WithObserver(stageLogger{logger: logger}),
		translate.WithParallelism(viper.GetInt("parallelism")),
		translate.WithMaxStackDepth(viper.GetInt("max-stack-depth")),
		translate.WithMaxOffsetVisits(viper.GetInt("max-offset-visits")),
	)
	if ctx.Err() != nil {
		return err
	}

	procs := cfg.Procs()
	if name := viper.GetString("method"); name != "" {
		pd, ok := cfg.Proc(name)
		switch {
		case ok:
			procs = []*sil.ProcDesc{pd}
		case failed(report, name):
			procs = nil
		default:
			return methodNotFound(name, module)
		}
	}

	switch format {
	case "json":
		out := translation{Report: report, Procs: map[string]string{}}
		for _, pd := range procs {
			out.Procs[pd.Name()] = sil.Format(pd)
		}
		if err := writeJSON(stdout, out); err != nil {
			return err
		}
	default:
		for i, pd := range procs {
			if i != 0 {
				fmt.Fprintln(stdout)
			}
			fmt.Fprint(stdout, sil.Format(pd))
		}
		printReport(stderr, report)
	}

	if viper.GetBool("fail-on-unfinished") && len(report.Unfinished) > 0 {
		return fmt.Errorf("%d method(s) unfinished", len(report.Unfinished))
	}
	return nil
}

func printReport(w io.Writer, report *diag.Report) {
	fmt.Fprintf(w, "translated %d method(s), %d failed\n", report.Translated, len(report.Failed))
	for _, f := range report.Failed {
		line := fmt.Sprintf("  %s: %s", f.Method, f.Error)
		if remaining, ok := report.UnfinishedMethod(f.Method); ok {
			line += fmt.Sprintf(" (%d instruction(s) left)", remaining)
		}
		fmt.Fprintln(w, yellow("%s", line))
	}
}

func failed(report *diag.Report, name string) bool {
	for _, f := range report.Failed {
		if f.Method == name {
			return true
		}
	}
	return false
}

// stageLogger logs finally block stage transitions at trace level.
type stageLogger struct {
	translate.NoOpObserver
	logger zerolog.Logger
}

func (s stageLogger) OnFinallyStage(e translate.FinallyEvent) {
	s.logger.Trace().
		Str("method", e.Method).
		Stringer("handler", e.Handler).
		Stringer("stage", e.Stage).
		Bool("reused", e.Reused).
		Msg("finally stage")
}
