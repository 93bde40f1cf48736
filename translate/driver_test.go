package translate

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/diag"
	"github.com/deepnoodle-ai/cilsil/errz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func demoModule(t *testing.T) *bytecode.Module {
	return bytecode.NewModule("Demo.dll", singleFinally(t), brokenFinally(t), sharedFinally(t))
}

func TestTranslateModule(t *testing.T) {
	extra := diag.NewRecorder(zerolog.Nop())
	var logs bytes.Buffer
	cfg, report, err := TranslateModule(context.Background(), demoModule(t),
		WithParallelism(2),
		WithRecorder(extra),
		WithLogger(zerolog.New(zerolog.SyncWriter(&logs))),
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Demo.C::Broken()")
	require.True(t, errz.Is(err, errz.ErrUnfinishedMethod))

	require.Equal(t, 2, cfg.Len())
	_, ok := cfg.Proc("Demo.C::Single()")
	require.True(t, ok)
	_, ok = cfg.Proc("Demo.C::Broken()")
	require.False(t, ok)

	require.Equal(t, 2, report.Translated)
	require.Len(t, report.Failed, 1)
	require.Equal(t, "Demo.C::Broken()", report.Failed[0].Method)
	remaining, ok := report.UnfinishedMethod("Demo.C::Broken()")
	require.True(t, ok)
	require.Equal(t, 3, remaining)

	remaining, ok = extra.Report().UnfinishedMethod("Demo.C::Broken()")
	require.True(t, ok)
	require.Equal(t, 3, remaining)

	require.Contains(t, logs.String(), `"message":"module translated"`)
	require.Contains(t, logs.String(), `"module":"Demo.dll"`)
}

func TestTranslateModuleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg, report, err := TranslateModule(ctx, demoModule(t))
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, 0, cfg.Len())
	require.Equal(t, 0, report.Translated)
}
