package diag

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRecorderReport(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(zerolog.New(&buf))
	require.NotEqual(t, uuid.Nil, r.RunID())

	r.RecordTranslated("Demo.C::A()")
	r.RecordUnfinishedMethod("Demo.C::Z()", 4)
	r.RecordFailed("Demo.C::Z()", errors.New("unsupported instruction"))
	r.RecordUnfinishedMethod("Demo.C::B()", 1)

	report := r.Report()
	require.Equal(t, r.RunID(), report.RunID)
	require.Equal(t, 1, report.Translated)
	require.Equal(t, []Failure{{Method: "Demo.C::Z()", Error: "unsupported instruction"}}, report.Failed)
	require.Equal(t, []Unfinished{
		{Method: "Demo.C::B()", Remaining: 1},
		{Method: "Demo.C::Z()", Remaining: 4},
	}, report.Unfinished)

	remaining, ok := report.UnfinishedMethod("Demo.C::Z()")
	require.True(t, ok)
	require.Equal(t, 4, remaining)
	_, ok = report.UnfinishedMethod("Demo.C::A()")
	require.False(t, ok)

	require.Contains(t, buf.String(), `"message":"unfinished method"`)
	require.Contains(t, buf.String(), `"remaining":4`)
	require.Contains(t, buf.String(), r.RunID().String())
}

func TestRecorderConcurrent(t *testing.T) {
	r := NewRecorder(zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				r.RecordTranslated(fmt.Sprintf("M%d", i))
			} else {
				r.RecordUnfinishedMethod(fmt.Sprintf("M%d", i), i)
			}
		}(i)
	}
	wg.Wait()
	report := r.Report()
	require.Equal(t, 16, report.Translated)
	require.Len(t, report.Unfinished, 16)
}

func TestRunIDsDiffer(t *testing.T) {
	a := NewRecorder(zerolog.Nop())
	b := NewRecorder(zerolog.Nop())
	require.NotEqual(t, a.RunID(), b.RunID())
}
