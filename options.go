/*
 * Copyright 2022 CloudWeGo Authors
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

package iropt

import (
	"fmt"
	"math"

	"github.com/cloudwego/iropt/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// Stage names a step of Optimize that can be turned off with WithoutStage.
type Stage int

const (
	StageDCE Stage = iota
	StageSimplify
	StageCSE
	StageLoadElim
	StageStoreElim
	StagePreOpt
	StageInline
	StagePostOpt
	StageCheck
)

var stageNames = [...]string{
	StageDCE:       "dce",
	StageSimplify:  "simplify",
	StageCSE:       "cse",
	StageLoadElim:  "load-elim",
	StageStoreElim: "store-elim",
	StagePreOpt:    "preopt",
	StageInline:    "inline",
	StagePostOpt:   "postopt",
	StageCheck:     "check",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	} else {
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ParseStage maps a stage name as printed by Stage.String back to the Stage.
func ParseStage(name string) (Stage, error) {
	for i, v := range stageNames {
		if v == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("iropt: unknown stage: %q", name)
}

// WithSizeLimit sets the largest callee, in instructions, that the inlining heuristic
// accepts.
//
// Set this option to "0" disables the limit.
//
// The default value of this option is "200", and can also be configured with the
// `IROPT_INLINE_SIZE_LIMIT` environment variable.
func WithSizeLimit(size int) Option {
	if size < 0 {
		panic(fmt.Sprintf("iropt: invalid inline size limit: %d", size))
	} else {
		return func(o *opts.Options) { o.InlineSizeLimit = size }
	}
}

// WithGrowthFactor bounds the size of the module after inlining to factor times its size
// before inlining. The factor is a ratio, 1.5 allows the module to grow by half.
//
// Set this option to "0" disables the bound, the inliner then relies on the inline history
// of each call site to terminate.
//
// The default value of this option is "20", and can also be configured with the
// `IROPT_INLINE_GROWTH_FACTOR` environment variable.
func WithGrowthFactor(factor float64) Option {
	if factor < 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		panic(fmt.Sprintf("iropt: invalid inline growth factor: %g", factor))
	} else {
		return func(o *opts.Options) { o.InlineGrowthFactor = factor }
	}
}

// WithHeuristic switches the inliner from inlining every direct call to inlining only the
// calls that pass the size limit (and the constant argument rule, see WithConstArg).
func WithHeuristic(enabled bool) Option {
	return func(o *opts.Options) { o.InlineHeuristic = enabled }
}

// WithConstArg requires heuristically inlined call sites to pass at least one constant
// argument. It has no effect unless the heuristic is enabled.
func WithConstArg(required bool) Option {
	return func(o *opts.Options) { o.InlineRequireConstArg = required }
}

// WithoutStage disables a single stage. The pipeline stages (StageDCE to StageStoreElim)
// are disabled in both the pre- and the post-inlining runs.
func WithoutStage(stage Stage) Option {
	switch stage {
	case StageDCE:
		return func(o *opts.Options) { o.NoDCE = true }
	case StageSimplify:
		return func(o *opts.Options) { o.NoSimplify = true }
	case StageCSE:
		return func(o *opts.Options) { o.NoCSE = true }
	case StageLoadElim:
		return func(o *opts.Options) { o.NoLoadElim = true }
	case StageStoreElim:
		return func(o *opts.Options) { o.NoStoreElim = true }
	case StagePreOpt:
		return func(o *opts.Options) { o.NoPreOpt = true }
	case StageInline:
		return func(o *opts.Options) { o.NoInline = true }
	case StagePostOpt:
		return func(o *opts.Options) { o.NoPostOpt = true }
	case StageCheck:
		return func(o *opts.Options) { o.NoCheck = true }
	default:
		panic(fmt.Sprintf("iropt: invalid stage: %d", int(stage)))
	}
}

// SetSizeLimit sets the default inline size limit for all runs from now on, and returns the
// old value.
func SetSizeLimit(size int) int {
	size, opts.InlineSizeLimit = opts.InlineSizeLimit, size
	return size
}

// SetGrowthFactor sets the default inline growth factor for all runs from now on, and
// returns the old value.
func SetGrowthFactor(factor float64) float64 {
	factor, opts.InlineGrowthFactor = opts.InlineGrowthFactor, factor
	return factor
}
