package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const demoModule = `{
  "name": "Demo.dll",
  "methods": [
    {
      "name": "Demo.C::Single()",
      "return_type": "System.Int32",
      "is_static": true,
      "locals": ["System.Int32"],
      "instructions": [
        {"offset": 0, "opcode": "ldc.i4.1"},
        {"offset": 1, "opcode": "stloc.0"},
        {"offset": 5, "opcode": "leave", "operand": 10},
        {"offset": 10, "opcode": "ldc.i4.2"},
        {"offset": 11, "opcode": "stloc.0"},
        {"offset": 15, "opcode": "endfinally"},
        {"offset": 16, "opcode": "ldloc.0"},
        {"offset": 17, "opcode": "ret"}
      ],
      "handlers": [
        {"kind": "finally", "try_start": 0, "try_end": 10, "handler_start": 10, "handler_end": 16}
      ]
    },
    {
      "name": "Demo.C::Broken()",
      "is_static": true,
      "instructions": [
        {"offset": 0, "opcode": "nop"},
        {"offset": 1, "opcode": "leave.s", "operand": 9},
        {"offset": 3, "opcode": "call", "operand": "System.Void Demo.C::Log()"},
        {"offset": 8, "opcode": "endfinally"},
        {"offset": 9, "opcode": "ret"}
      ],
      "handlers": [
        {"kind": "finally", "try_start": 0, "try_end": 3, "handler_start": 3, "handler_end": 9}
      ]
    }
  ]
}`

func writeModule(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.json")
	require.NoError(t, os.WriteFile(path, []byte(demoModule), 0o644))
	return path
}

// setConfig overrides viper keys for the duration of the test.
func setConfig(t *testing.T, values map[string]any) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	viper.Set("no-color", true)
	for k, v := range values {
		viper.Set(k, v)
	}
	t.Cleanup(func() {
		color.NoColor = noColor
		viper.Set("no-color", false)
		for k := range values {
			viper.Set(k, nil)
		}
	})
}

func TestTranslateText(t *testing.T) {
	setConfig(t, map[string]any{"output": "text", "parallelism": 1})
	var stdout, stderr bytes.Buffer
	require.NoError(t, runTranslate(context.Background(), writeModule(t), &stdout, &stderr))

	require.Contains(t, stdout.String(), "Demo.C::Single(): int")
	require.Contains(t, stdout.String(), "(return_exception)")
	require.NotContains(t, stdout.String(), "Demo.C::Broken()")
	require.Contains(t, stderr.String(), "translated 1 method(s), 1 failed")
	require.Contains(t, stderr.String(), "(3 instruction(s) left)")
}

func TestTranslateJSON(t *testing.T) {
	setConfig(t, map[string]any{"output": "json"})
	var stdout, stderr bytes.Buffer
	require.NoError(t, runTranslate(context.Background(), writeModule(t), &stdout, &stderr))

	var out struct {
		Report struct {
			Translated int `json:"translated"`
			Unfinished []struct {
				Method    string `json:"method"`
				Remaining int    `json:"remaining"`
			} `json:"unfinished"`
		} `json:"report"`
		Procs map[string]string `json:"procs"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Equal(t, 1, out.Report.Translated)
	require.Len(t, out.Report.Unfinished, 1)
	require.Equal(t, "Demo.C::Broken()", out.Report.Unfinished[0].Method)
	require.Equal(t, 3, out.Report.Unfinished[0].Remaining)
	require.Contains(t, out.Procs, "Demo.C::Single()")
}

func TestTranslateMethodFilter(t *testing.T) {
	setConfig(t, map[string]any{"method": "Demo.C::Missing()"})
	var stdout, stderr bytes.Buffer
	err := runTranslate(context.Background(), writeModule(t), &stdout, &stderr)
	require.EqualError(t, err, `method "Demo.C::Missing()" not found`)
}

func TestDisSuggestsMethod(t *testing.T) {
	setConfig(t, map[string]any{"dis-func": "Demo.C::Singel()"})
	var stdout bytes.Buffer
	err := runDis(writeModule(t), &stdout)
	require.EqualError(t, err, `method "Demo.C::Singel()" not found; did you mean Demo.C::Single()?`)
}

func TestTranslateFailOnUnfinished(t *testing.T) {
	setConfig(t, map[string]any{"fail-on-unfinished": true})
	var stdout, stderr bytes.Buffer
	err := runTranslate(context.Background(), writeModule(t), &stdout, &stderr)
	require.EqualError(t, err, "1 method(s) unfinished")
}

func TestTranslateBadOutputFormat(t *testing.T) {
	setConfig(t, map[string]any{"output": "yaml"})
	var stdout, stderr bytes.Buffer
	err := runTranslate(context.Background(), writeModule(t), &stdout, &stderr)
	require.EqualError(t, err, "unknown output format: yaml")
}

func TestDis(t *testing.T) {
	setConfig(t, map[string]any{"dis-func": "Demo.C::Single()"})
	var stdout bytes.Buffer
	require.NoError(t, runDis(writeModule(t), &stdout))
	require.Contains(t, stdout.String(), "Demo.C::Single()\n")
	require.Contains(t, stdout.String(), "#0 finally try IL_0000-IL_000a handler IL_000a-IL_0010")
	require.Contains(t, stdout.String(), "+finally#0")
	require.NotContains(t, stdout.String(), "Demo.C::Broken()")
}

func TestDisStats(t *testing.T) {
	setConfig(t, map[string]any{"dis-stats": true, "output": "json"})
	var stdout bytes.Buffer
	require.NoError(t, runDis(writeModule(t), &stdout))

	var stats map[string]int
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &stats))
	require.Equal(t, 2, stats["MethodCount"])
	require.Equal(t, 13, stats["InstructionCount"])
	require.Equal(t, 2, stats["FinallyCount"])
}
