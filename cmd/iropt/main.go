/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// iropt runs the CSE pipeline and the inliner over a module in the textual or the binary IR
// format, and writes the optimized module together with a "<output>.stats" file.
package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/urfave/cli.v1"

	"github.com/cloudwego/iropt"
	"github.com/cloudwego/iropt/internal/log"
	"github.com/cloudwego/iropt/internal/stats"
	"github.com/cloudwego/iropt/ir"
)

var (
	noCSEFlag = cli.BoolFlag{
		Name:  "no-cse",
		Usage: "Do not run the CSE pipeline, neither before nor after inlining",
	}
	noPreOptFlag = cli.BoolFlag{
		Name:  "no-preopt",
		Usage: "Do not perform pre-inlining optimizations",
	}
	noPostOptFlag = cli.BoolFlag{
		Name:  "no-postopt",
		Usage: "Do not perform post-inlining optimizations",
	}
	noInlineFlag = cli.BoolFlag{
		Name:  "no-inline",
		Usage: "Do not perform inlining",
	}
	inlineHeuristicFlag = cli.BoolFlag{
		Name:  "inline-heuristic",
		Usage: "Only inline callees within the size limit",
	}
	inlineConstArgFlag = cli.BoolFlag{
		Name:  "inline-require-const-arg",
		Usage: "Require an inlined call to have at least one constant argument (with --inline-heuristic)",
	}
	inlineSizeLimitFlag = cli.IntFlag{
		Name:  "inline-function-size-limit",
		Usage: "Biggest size of function to inline, 0 for no limit",
		Value: 200,
	}
	inlineGrowthFactorFlag = cli.Float64Flag{
		Name:  "inline-growth-factor",
		Usage: "Largest allowed program size increase factor (e.g. 1.5), 0 for no limit",
		Value: 20,
	}
	noCheckFlag = cli.BoolFlag{
		Name:  "no-check",
		Usage: "Do not check for valid IR",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "Print the statistics table to stderr",
	}
	dumpStatsFlag = cli.BoolFlag{
		Name:  "dump-stats",
		Usage: "Dump the raw optimizer results to stderr",
	}
	formatFlag = cli.StringFlag{
		Name:  "format",
		Usage: "Output format (text or bitcode), guessed from the output file by default",
	}
	dotFlag = cli.StringFlag{
		Name:  "dot",
		Usage: "Directory to write a Graphviz CFG of every optimized function to",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "loglevel",
		Usage: "Logging level (crit, error, warn, info, debug)",
		Value: "info",
	}
)

var optimizeFlags = []cli.Flag{
	configFileFlag,
	noCSEFlag,
	noPreOptFlag,
	noPostOptFlag,
	noInlineFlag,
	inlineHeuristicFlag,
	inlineConstArgFlag,
	inlineSizeLimitFlag,
	inlineGrowthFactorFlag,
	noCheckFlag,
	verboseFlag,
	dumpStatsFlag,
	formatFlag,
	dotFlag,
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "iropt"
	app.Usage = "CSE pipeline and inliner for SSA IR modules"
	app.ArgsUsage = "<input> <output>"
	app.Flags = append([]cli.Flag{logLevelFlag}, optimizeFlags...)
	app.Commands = []cli.Command{
		genCommand,
		dumpConfigCommand,
	}
	app.Before = setupLogging
	app.Action = optimize
	return app
}

func setupLogging(ctx *cli.Context) error {
	lvl, err := log.LvlFromString(ctx.GlobalString(logLevelFlag.Name))
	if err != nil {
		return err
	}
	log.Root().SetHandler(log.TerminalHandler(lvl))
	return nil
}

func collect(m *ir.Module, res iropt.Result) *stats.Stats {
	st := stats.New()
	st.Set(stats.InstrBeforeOpt, float64(res.InstrBeforeOpt))
	st.Set(stats.InstrPreInline, float64(res.InstrPreInline))
	st.Set(stats.InstrAfterInline, float64(res.InstrAfterInline))
	st.Set(stats.InstrPostOpt, float64(res.InstrPostOpt))
	st.RecordOpt(res.PreOpt)
	st.RecordOpt(res.PostOpt)
	st.RecordInline(res.Inline)
	st.RecordSummary(stats.Summarize(m))
	return st
}

// optimize is the main entry point: iropt [flags] <input> <output>.
func optimize(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.NewExitError("usage: iropt [flags] <input> <output>", 2)
	}

	/* configuration */
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	options, err := cfg.options()
	if err != nil {
		return err
	}

	/* read the module */
	in, out := ctx.Args().Get(0), ctx.Args().Get(1)
	m, inFmt, err := loadModule(in)
	if err != nil {
		return err
	}
	outFmt, err := outputFormat(cfg.Output.Format, out, inFmt)
	if err != nil {
		return err
	}

	/* statistics are written even if the result does not verify */
	res, verr := iropt.Optimize(m, options...)
	st := collect(m, res)
	if err = st.SaveCSV(out); err != nil {
		return err
	}
	if cfg.Output.Verbose {
		st.WriteTable(os.Stderr)
	}
	if ctx.Bool(dumpStatsFlag.Name) {
		spew.Fdump(os.Stderr, res)
	}
	if verr != nil {
		log.Error("Optimized module is invalid", "input", in, "err", verr)
		return verr
	}

	/* write the result */
	if err = saveModule(out, outFmt, m); err != nil {
		return err
	}
	if cfg.Output.Dot != "" {
		if err = writeDots(cfg.Output.Dot, m); err != nil {
			return err
		}
	}
	log.Info("Optimized module",
		"input", in,
		"output", out,
		"format", outFmt,
		"before", res.InstrBeforeOpt,
		"after", res.InstrPostOpt,
		"inlined", res.Inline.Inlined,
	)
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
