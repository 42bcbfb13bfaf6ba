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
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/cloudwego/iropt"
	"github.com/cloudwego/iropt/internal/log"
	"github.com/cloudwego/iropt/internal/opts"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "",
		Flags:       optimizeFlags,
		Description: `The dumpconfig command shows the configuration after applying the config file and the flags.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

// TOML keys use the same names as the Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

type pipelineConfig struct {
	NoPreOpt    bool
	NoPostOpt   bool
	NoDCE       bool
	NoSimplify  bool
	NoCSE       bool
	NoLoadElim  bool
	NoStoreElim bool
}

type inlineConfig struct {
	Disabled        bool
	Heuristic       bool
	RequireConstArg bool
	SizeLimit       int
	GrowthFactor    float64
}

type outputConfig struct {
	NoCheck bool
	Verbose bool
	Format  string `toml:",omitempty"`
	Dot     string `toml:",omitempty"`
}

type iroptConfig struct {
	Pipeline pipelineConfig
	Inline   inlineConfig
	Output   outputConfig
}

func defaultConfig() iroptConfig {
	o := opts.GetDefaultOptions()
	return iroptConfig{
		Inline: inlineConfig{
			Heuristic:       o.InlineHeuristic,
			RequireConstArg: o.InlineRequireConstArg,
			SizeLimit:       o.InlineSizeLimit,
			GrowthFactor:    o.InlineGrowthFactor,
		},
	}
}

func loadConfig(file string, cfg *iroptConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the defaults, then the config file, then applies the flags.
func makeConfig(ctx *cli.Context) (iroptConfig, error) {
	cfg := defaultConfig()
	file := ctx.String(configFileFlag.Name)
	if file == "" {
		file = ctx.GlobalString(configFileFlag.Name)
	}
	if file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	applyFlags(ctx, &cfg)
	return cfg, nil
}

func applyFlags(ctx *cli.Context, cfg *iroptConfig) {
	if ctx.Bool(noCSEFlag.Name) {
		cfg.Pipeline.NoPreOpt = true
		cfg.Pipeline.NoPostOpt = true
	}
	if ctx.Bool(noPreOptFlag.Name) {
		cfg.Pipeline.NoPreOpt = true
	}
	if ctx.Bool(noPostOptFlag.Name) {
		cfg.Pipeline.NoPostOpt = true
	}
	if ctx.Bool(noInlineFlag.Name) {
		cfg.Inline.Disabled = true
	}
	if ctx.Bool(inlineHeuristicFlag.Name) {
		cfg.Inline.Heuristic = true
	}
	if ctx.Bool(inlineConstArgFlag.Name) {
		cfg.Inline.RequireConstArg = true
	}
	if ctx.IsSet(inlineSizeLimitFlag.Name) {
		cfg.Inline.SizeLimit = ctx.Int(inlineSizeLimitFlag.Name)
	}
	if ctx.IsSet(inlineGrowthFactorFlag.Name) {
		cfg.Inline.GrowthFactor = ctx.Float64(inlineGrowthFactorFlag.Name)
	}
	if ctx.Bool(noCheckFlag.Name) {
		cfg.Output.NoCheck = true
	}
	if ctx.Bool(verboseFlag.Name) {
		cfg.Output.Verbose = true
	}
	if ctx.IsSet(formatFlag.Name) {
		cfg.Output.Format = ctx.String(formatFlag.Name)
	}
	if ctx.IsSet(dotFlag.Name) {
		cfg.Output.Dot = ctx.String(dotFlag.Name)
	}
}

// options converts the configuration into optimizer options.
func (cfg *iroptConfig) options() ([]iropt.Option, error) {
	if cfg.Inline.SizeLimit < 0 {
		return nil, fmt.Errorf("invalid inline size limit: %d", cfg.Inline.SizeLimit)
	}
	if g := cfg.Inline.GrowthFactor; g < 0 || math.IsNaN(g) || math.IsInf(g, 0) {
		return nil, fmt.Errorf("invalid inline growth factor: %g", g)
	}

	/* inliner settings */
	ret := []iropt.Option{
		iropt.WithHeuristic(cfg.Inline.Heuristic),
		iropt.WithConstArg(cfg.Inline.RequireConstArg),
		iropt.WithSizeLimit(cfg.Inline.SizeLimit),
		iropt.WithGrowthFactor(cfg.Inline.GrowthFactor),
	}

	/* disabled stages */
	for _, v := range []struct {
		off   bool
		stage iropt.Stage
	}{
		{cfg.Pipeline.NoDCE, iropt.StageDCE},
		{cfg.Pipeline.NoSimplify, iropt.StageSimplify},
		{cfg.Pipeline.NoCSE, iropt.StageCSE},
		{cfg.Pipeline.NoLoadElim, iropt.StageLoadElim},
		{cfg.Pipeline.NoStoreElim, iropt.StageStoreElim},
		{cfg.Pipeline.NoPreOpt, iropt.StagePreOpt},
		{cfg.Inline.Disabled, iropt.StageInline},
		{cfg.Pipeline.NoPostOpt, iropt.StagePostOpt},
		{cfg.Output.NoCheck, iropt.StageCheck},
	} {
		if v.off {
			ret = append(ret, iropt.WithoutStage(v.stage))
		}
	}
	return ret, nil
}

func writeConfig(w io.Writer, cfg *iroptConfig) error {
	return tomlSettings.NewEncoder(w).Encode(cfg)
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	if err = writeConfig(os.Stdout, &cfg); err != nil {
		log.Error("Cannot write the configuration", "err", err)
	}
	return err
}
