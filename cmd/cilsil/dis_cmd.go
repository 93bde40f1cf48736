package main

import (
	"fmt"
	"io"

	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/dis"
	"github.com/deepnoodle-ai/cilsil/internal/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var disCmd = &cobra.Command{
	Use:   "dis <module.json>",
	Short: "Disassemble a decoded module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDis(args[0], cmd.OutOrStdout())
	},
}

func init() {
	f := disCmd.Flags()
	f.String("func", "", "method to disassemble")
	f.Bool("stats", false, "print module statistics instead of listings")
	for _, name := range []string{"func", "stats"} {
		if err := viper.BindPFlag("dis-"+name, f.Lookup(name)); err != nil {
			fatal(err)
		}
	}
}

// listing is the JSON rendering of one disassembled method.
type listing struct {
	Method       string            `json:"method"`
	Handlers     []string          `json:"handlers,omitempty"`
	Instructions []dis.Instruction `json:"instructions"`
}

func runDis(path string, stdout io.Writer) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	module, err := loadModule(path)
	if err != nil {
		return err
	}
	if viper.GetBool("dis-stats") {
		return printStats(stdout, format, module.Stats())
	}

	methods := module.Methods()
	if name := viper.GetString("dis-func"); name != "" {
		method, ok := module.Method(name)
		if !ok {
			return methodNotFound(name, module)
		}
		methods = []*bytecode.Method{method}
	}

	bold := color.New(color.Bold)
	var listings []listing
	for i, method := range methods {
		instructions, err := dis.Disassemble(method)
		if err != nil {
			return err
		}
		if format == "json" {
			l := listing{Method: method.FullName(), Instructions: instructions}
			for h := 0; h < method.HandlerCount(); h++ {
				l.Handlers = append(l.Handlers, method.HandlerAt(h).String())
			}
			listings = append(listings, l)
			continue
		}
		if i != 0 {
			fmt.Fprintln(stdout)
		}
		bold.Fprintln(stdout, method.FullName())
		for h := 0; h < method.HandlerCount(); h++ {
			fmt.Fprintf(stdout, "  #%d %s\n", h, method.HandlerAt(h))
		}
		dis.Print(instructions, stdout)
	}
	if format == "json" {
		return writeJSON(stdout, listings)
	}
	return nil
}

func printStats(w io.Writer, format string, stats bytecode.Stats) error {
	if format == "json" {
		return writeJSON(w, stats)
	}
	t := table.NewTable(w).
		WithHeader([]string{"Metric", "Count"}).
		WithColumnAlignment([]table.Alignment{table.AlignLeft, table.AlignRight})
	t.Append([]string{"methods", fmt.Sprint(stats.MethodCount)})
	t.Append([]string{"instructions", fmt.Sprint(stats.InstructionCount)})
	t.Append([]string{"handlers", fmt.Sprint(stats.HandlerCount)})
	t.Append([]string{"finally handlers", fmt.Sprint(stats.FinallyCount)})
	t.Render()
	return nil
}
