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
    `github.com/cloudwego/iropt/ir`
)

// CSE performs the Common Sub-expression Elimination optimization along the dominator
// tree. A definition is matched against the rest of its own block and every block it
// immediately dominates.
type CSE struct{}

func cseable(p *ir.Instr) bool {
    switch p.Op {
        case ir.OpLoad   : return false
        case ir.OpStore  : return false
        case ir.OpAlloca : return false
        case ir.OpCall   : return false
        default          : return !p.IsTerminator() && p.T != ir.Void
    }
}

func isCommon(d *ir.Instr, c *ir.Instr) bool {
    if !cseable(d) || !cseable(c) {
        return false
    }

    /* same operation producing the same type */
    if d.Op != c.Op || d.Pred != c.Pred || d.T != c.T || d.NumOperands() != c.NumOperands() {
        return false
    }

    /* operands are compared by identity */
    for i, v := range d.Operands() {
        if c.Operand(i) != v {
            return false
        }
    }
    return true
}

func (CSE) sweep(bb *ir.BasicBlock, i int, d *ir.Instr) int {
    n := 0
    for i < len(bb.Ins) {
        if c := bb.Ins[i]; c == d || !isCommon(d, c) {
            i++
        } else {
            c.ReplaceAllUsesWith(d)
            c.Erase()
            n++
        }
    }
    return n
}

// EliminateCommon merges the common sub-expressions of fn and returns how many
// instructions were removed.
func EliminateCommon(fn *ir.Function, dom ir.Dominance) int {
    n := 0
    for _, bb := range fn.Blocks {
        for i := 0; i < len(bb.Ins); i++ {
            d := bb.Ins[i]
            if !cseable(d) {
                continue
            }

            /* later instructions of the same block */
            n += CSE{}.sweep(bb, i + 1, d)

            /* a phi only stands for its own block */
            if d.Op == ir.OpPhi {
                continue
            }

            /* immediate dominator-tree children, not the whole subtree */
            for _, ch := range dom.Children(bb) {
                if ch != bb && dom.Dominates(bb, ch) {
                    n += CSE{}.sweep(ch, 0, d)
                }
            }
        }
    }
    return n
}

func (CSE) Apply(fn *ir.Function, dt *ir.DominatorTree, st *Stats) {
    st.CSEMerged += EliminateCommon(fn, dt)
}
