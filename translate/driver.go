package translate

import (
	"context"
	"sync"

	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/diag"
	"github.com/deepnoodle-ai/cilsil/sil"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// TranslateModule translates every method of module, running up to the
// configured parallelism at once. Successfully translated methods are
// registered in the returned Cfg; the others are listed in the report and
// their errors are aggregated into the returned error. A failing method
// never affects another.
//
// Cancelling ctx stops new methods from being scheduled; the context error
// is then part of the returned error.
func TranslateModule(ctx context.Context, module *bytecode.Module, opts ...Option) (*sil.Cfg, *diag.Report, error) {
	cfg := newConfig(opts)
	recorder := diag.NewRecorder(cfg.logger)
	if cfg.recorder != nil {
		cfg.recorder = teeRecorder{recorder, cfg.recorder}
	} else {
		cfg.recorder = recorder
	}
	logger := cfg.logger.With().Str("module", module.Name()).Logger()
	logger.Info().
		Int("methods", module.MethodCount()).
		Str("run_id", recorder.RunID().String()).
		Msg("translating module")

	out := sil.NewCfg()
	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.parallelism)
	for _, method := range module.Methods() {
		if err := gctx.Err(); err != nil {
			mu.Lock()
			result = multierror.Append(result, err)
			mu.Unlock()
			break
		}
		method := method
		g.Go(func() error {
			pd, err := translateMethod(method, cfg)
			if err == nil {
				err = out.Register(pd)
			}
			if err != nil {
				recorder.RecordFailed(method.FullName(), err)
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
				return nil
			}
			recorder.RecordTranslated(method.FullName())
			return nil
		})
	}
	_ = g.Wait()

	report := recorder.Report()
	logger.Info().
		Int("translated", report.Translated).
		Int("failed", len(report.Failed)).
		Int("unfinished", len(report.Unfinished)).
		Msg("module translated")
	return out, report, result.ErrorOrNil()
}

// teeRecorder forwards unfinished methods to the run's recorder and to the
// one supplied with WithRecorder.
type teeRecorder []UnfinishedRecorder

func (t teeRecorder) RecordUnfinishedMethod(name string, remaining int) {
	for _, r := range t {
		r.RecordUnfinishedMethod(name, remaining)
	}
}
