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

package opts

// Options controls the optimization pipeline and the inliner.
type Options struct {
	InlineHeuristic       bool
	InlineRequireConstArg bool
	InlineSizeLimit       int
	InlineGrowthFactor    float64
	NoDCE                 bool
	NoSimplify            bool
	NoCSE                 bool
	NoLoadElim            bool
	NoStoreElim           bool
	NoPreOpt              bool
	NoInline              bool
	NoPostOpt             bool
	NoCheck               bool
}

// CanInline reports whether a callee of the given size passes the size heuristic. A zero
// size limit disables the check.
func (self *Options) CanInline(size int) bool {
	return !self.InlineHeuristic || self.InlineSizeLimit == 0 || size <= self.InlineSizeLimit
}

// CanGrow reports whether the module may grow from initial to size instructions, that is
// whether size is at most InlineGrowthFactor times initial. A zero growth factor disables
// the check.
func (self *Options) CanGrow(initial int, size int) bool {
	return self.InlineGrowthFactor == 0 || float64(size) <= self.InlineGrowthFactor*float64(initial)
}

// NeedConstArg reports whether a call site needs a constant argument to be inlined.
func (self *Options) NeedConstArg() bool {
	return self.InlineHeuristic && self.InlineRequireConstArg
}

func GetDefaultOptions() Options {
	return Options{
		InlineHeuristic:       InlineHeuristic,
		InlineRequireConstArg: InlineRequireConstArg,
		InlineSizeLimit:       InlineSizeLimit,
		InlineGrowthFactor:    InlineGrowthFactor,
	}
}
