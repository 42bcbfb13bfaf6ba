/*
 * Copyright 2022 ByteDance Inc.
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

// Package inline expands direct calls with the body of the callee. Call sites are taken
// from a worklist, and the call sites copied along with a callee body are appended to it,
// so chains of calls are flattened transitively.
package inline

import (
    `github.com/cloudwego/iropt/internal/log`
    `github.com/cloudwego/iropt/internal/opts`
    `github.com/cloudwego/iropt/ir`
    `github.com/oleiade/lane`
)

// Stats describes one run of the inliner.
type Stats struct {
    Inlined           int
    ConstArg          int
    RejectedConstArg  int
    RejectedSize      int
    RejectedViability int
    RejectedGrowth    int
    InstrBefore       int
    InstrAfter        int
    SizeRatio         float64
}

type _Site struct {
    call *ir.Instr
    hist []*ir.Function
}

// Inliner holds the state of one inlining run over a module.
type Inliner struct {
    o    opts.Options
    m    *ir.Module
    q    *lane.Queue
    st   Stats
    size int
    done map[int]bool
}

// New creates an inliner for m.
func New(m *ir.Module, o opts.Options) *Inliner {
    return &Inliner {
        o    : o,
        m    : m,
        q    : lane.NewQueue(),
        done : make(map[int]bool),
    }
}

// Run inlines the call sites of m according to o and returns the statistics.
func Run(m *ir.Module, o opts.Options) Stats {
    return New(m, o).Run()
}

// Run drains the worklist. Every call site is considered at most once.
func (self *Inliner) Run() Stats {
    self.size = self.m.NumInstructions()
    self.st.InstrBefore = self.size

    /* every existing call site is a candidate */
    for _, fn := range self.m.Funcs {
        for _, bb := range fn.Blocks {
            for _, p := range bb.Ins {
                if p.IsCall() {
                    self.q.Enqueue(_Site { call: p })
                }
            }
        }
    }

    /* process until nothing is left */
    for !self.q.Empty() {
        self.visit(self.q.Dequeue().(_Site))
    }

    /* final statistics */
    self.st.InstrAfter = self.m.NumInstructions()
    self.st.SizeRatio = ratio(self.st.InstrAfter, self.st.InstrBefore)
    return self.st
}

func ratio(after int, before int) float64 {
    if before == 0 {
        return 1
    } else {
        return float64(after) / float64(before)
    }
}

func (self *Inliner) visit(site _Site) {
    p := site.call
    if p.Detached() || self.done[p.Id] {
        return
    }

    /* never look at the same site twice */
    self.done[p.Id] = true
    callee := p.Callee()

    /* indirect calls and external functions are not candidates */
    if callee == nil || callee.IsDeclaration() {
        return
    }

    /* admission */
    if !self.admit(p, callee) {
        return
    }

    /* the callee must be structurally inlinable here */
    if reason := viable(p, callee, site.hist); reason != "" {
        self.st.RejectedViability++
        log.Debug("inline rejected", "caller", p.Block.Func.Name, "callee", callee.Name, "reason", reason)
        return
    }

    /* the module must not outgrow the limit */
    if n := self.size + cost(p, callee); !self.o.CanGrow(self.st.InstrBefore, n) {
        self.st.RejectedGrowth++
        log.Debug("inline rejected", "caller", p.Block.Func.Name, "callee", callee.Name, "reason", "growth", "size", n)
        return
    }

    /* all checks passed */
    caller := p.Block.Func
    sites := expand(p, callee)
    self.st.Inlined++
    self.size = self.m.NumInstructions()
    log.Debug("inlined", "caller", caller.Name, "callee", callee.Name, "new_sites", len(sites), "size", self.size)

    /* the copied call sites remember how they got here */
    hist := make([]*ir.Function, len(site.hist), len(site.hist) + 1)
    copy(hist, site.hist)
    hist = append(hist, callee)

    /* queue the call sites that came with the body */
    for _, c := range sites {
        if !self.done[c.Id] {
            self.q.Enqueue(_Site { call: c, hist: hist })
        }
    }
}

func (self *Inliner) admit(p *ir.Instr, callee *ir.Function) bool {
    if !self.o.CanInline(callee.NumInstructions()) {
        self.st.RejectedSize++
        return false
    }

    /* the constant argument requirement only counts actual arguments */
    if !self.o.NeedConstArg() {
        return true
    } else if hasConstArg(p) {
        self.st.ConstArg++
        return true
    } else {
        self.st.RejectedConstArg++
        return false
    }
}

func hasConstArg(p *ir.Instr) bool {
    for _, v := range p.Args() {
        if ir.IsConst(v) {
            return true
        }
    }
    return false
}
