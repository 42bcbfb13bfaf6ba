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

package main

import (
	"gopkg.in/urfave/cli.v1"

	"github.com/cloudwego/iropt/internal/irgen"
	"github.com/cloudwego/iropt/internal/log"
)

var (
	seedFlag = cli.Int64Flag{
		Name:  "seed",
		Usage: "Random seed, the same seed always generates the same module",
		Value: 1,
	}
	funcsFlag = cli.IntFlag{
		Name:  "funcs",
		Usage: "Number of defined functions",
		Value: irgen.DefaultConfig.Funcs,
	}
	diamondsFlag = cli.IntFlag{
		Name:  "diamonds",
		Usage: "Number of if-else diamonds per function",
		Value: irgen.DefaultConfig.Diamonds,
	}
	instrsFlag = cli.IntFlag{
		Name:  "instrs",
		Usage: "Number of random instructions per block",
		Value: irgen.DefaultConfig.Instrs,
	}
	noCallsFlag = cli.BoolFlag{
		Name:  "no-calls",
		Usage: "Do not generate calls",
	}

	genCommand = cli.Command{
		Action:    generate,
		Name:      "gen",
		Usage:     "Generate a random module",
		ArgsUsage: "<output>",
		Flags: []cli.Flag{
			seedFlag,
			funcsFlag,
			diamondsFlag,
			instrsFlag,
			noCallsFlag,
			formatFlag,
		},
		Description: `The gen command writes a random but valid module, useful as input for iropt.`,
	}
)

func generate(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("usage: iropt gen [flags] <output>", 2)
	}

	/* pick the format before doing any work */
	out := ctx.Args().First()
	format, err := outputFormat(ctx.String(formatFlag.Name), out, formatText)
	if err != nil {
		return err
	}

	/* generate and save */
	m := irgen.Generate(ctx.Int64(seedFlag.Name), irgen.Config{
		Funcs:    ctx.Int(funcsFlag.Name),
		Diamonds: ctx.Int(diamondsFlag.Name),
		Instrs:   ctx.Int(instrsFlag.Name),
		Calls:    !ctx.Bool(noCallsFlag.Name),
	})
	if err = saveModule(out, format, m); err != nil {
		return err
	}
	log.Info("Generated module", "output", out, "format", format, "instructions", m.NumInstructions())
	return nil
}
