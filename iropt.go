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

// Package iropt runs a dominance-scoped CSE pipeline and a worklist inliner over modules of
// the SSA IR defined in package ir.
package iropt

import (
	"github.com/cloudwego/iropt/internal/inline"
	"github.com/cloudwego/iropt/internal/log"
	"github.com/cloudwego/iropt/internal/opt"
	"github.com/cloudwego/iropt/internal/opts"
	"github.com/cloudwego/iropt/ir"
)

// OptStats counts the rewrites of one CSE pipeline run.
type OptStats = opt.Stats

// InlineStats counts the decisions of one inlining run.
type InlineStats = inline.Stats

// Result describes what Optimize did to a module.
type Result struct {
	PreOpt           OptStats
	Inline           InlineStats
	PostOpt          OptStats
	InstrBeforeOpt   int
	InstrPreInline   int
	InstrAfterInline int
	InstrPostOpt     int
}

// Optimize runs the pre-inlining pipeline, the inliner and the post-inlining pipeline over m,
// in that order, then verifies the result. The module is modified in place.
//
// Stages disabled with WithoutStage are skipped, the instruction counts are recorded
// regardless. The returned error is non-nil only if verification fails, in which case it is
// a VerifyErrors.
func Optimize(m *ir.Module, options ...Option) (Result, error) {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}
	return optimize(m, o)
}

func optimize(m *ir.Module, o opts.Options) (ret Result, err error) {
	ret.InstrBeforeOpt = m.NumInstructions()

	/* pre-inlining cleanup */
	if !o.NoPreOpt {
		ret.PreOpt = opt.Run(m, o)
		log.Debug("pre-inlining optimization done", "module", m.Name, "changes", ret.PreOpt.Total())
	}

	/* inlining */
	ret.InstrPreInline = m.NumInstructions()
	if !o.NoInline {
		ret.Inline = inline.Run(m, o)
		log.Debug("inlining done", "module", m.Name, "inlined", ret.Inline.Inlined, "ratio", ret.Inline.SizeRatio)
	}

	/* post-inlining cleanup */
	ret.InstrAfterInline = m.NumInstructions()
	if !o.NoPostOpt {
		ret.PostOpt = opt.Run(m, o)
		log.Debug("post-inlining optimization done", "module", m.Name, "changes", ret.PostOpt.Total())
	}

	/* final check */
	ret.InstrPostOpt = m.NumInstructions()
	if !o.NoCheck {
		err = ir.VerifyModule(m)
	}
	return
}
