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

package opt

import (
    `github.com/cloudwego/iropt/internal/log`
    `github.com/cloudwego/iropt/internal/opts`
    `github.com/cloudwego/iropt/ir`
)

// Stats counts the work done by one run of the pipeline.
type Stats struct {
    Dead          int
    Simplified    int
    CSEMerged     int
    LoadsElim     int
    StoresElim    int
    Store2LoadFwd int
}

// Add accumulates other into the receiver.
func (self *Stats) Add(other Stats) {
    self.Dead          += other.Dead
    self.Simplified    += other.Simplified
    self.CSEMerged     += other.CSEMerged
    self.LoadsElim     += other.LoadsElim
    self.StoresElim    += other.StoresElim
    self.Store2LoadFwd += other.Store2LoadFwd
}

// Total returns the number of rewrites of every kind.
func (self Stats) Total() int {
    return self.Dead + self.Simplified + self.CSEMerged + self.LoadsElim + self.StoresElim + self.Store2LoadFwd
}

type Pass interface {
    Apply(fn *ir.Function, dt *ir.DominatorTree, st *Stats)
}

type PassDescriptor struct {
    Pass     Pass
    Name     string
    Disabled func(o *opts.Options) bool
}

func noDCE(o *opts.Options) bool       { return o.NoDCE }
func noSimplify(o *opts.Options) bool  { return o.NoSimplify }
func noCSE(o *opts.Options) bool       { return o.NoCSE }
func noLoadElim(o *opts.Options) bool  { return o.NoLoadElim }
func noStoreElim(o *opts.Options) bool { return o.NoStoreElim }

var Passes = [...]PassDescriptor {
    { Name: "Dead Code Elimination"             , Pass: new(DCE)       , Disabled: noDCE },
    { Name: "Early Simplification"              , Pass: new(Simplify)  , Disabled: noSimplify },
    { Name: "Common Sub-expression Elimination" , Pass: new(CSE)       , Disabled: noCSE },
    { Name: "Redundant Load Elimination"        , Pass: new(LoadElim)  , Disabled: noLoadElim },
    { Name: "Intermediate Simplification"       , Pass: new(Simplify)  , Disabled: noSimplify },
    { Name: "Store Forwarding"                  , Pass: new(StoreElim) , Disabled: noStoreElim },
    { Name: "Late Simplification"               , Pass: new(Simplify)  , Disabled: noSimplify },
}

// RunFunc runs the pipeline once over fn. Declarations are left untouched.
func RunFunc(fn *ir.Function, o opts.Options) (st Stats) {
    if fn.IsDeclaration() {
        return
    }

    /* none of the passes change the CFG, the tree stays valid throughout */
    dt := ir.BuildDominatorTree(fn)
    for _, p := range Passes {
        if p.Disabled(&o) {
            continue
        }

        /* run the pass */
        n := st.Total()
        p.Pass.Apply(fn, dt, &st)
        log.Debug("pass done", "func", fn.Name, "pass", p.Name, "changes", st.Total() - n)
    }
    return
}

// Run runs the pipeline once over every function of m.
func Run(m *ir.Module, o opts.Options) (st Stats) {
    for _, fn := range m.Funcs {
        st.Add(RunFunc(fn, o))
    }
    return
}
