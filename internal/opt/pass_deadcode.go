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
    `github.com/oleiade/lane`
)

// DCE removes instructions without side effects whose results are never used.
type DCE struct{}

func isDead(p *ir.Instr) bool {
    if p.Detached() || p.HasUsers() {
        return false
    }

    /* volatile loads are observable, everything impure stays */
    switch {
        case p.Op == ir.OpLoad : return !p.Volatile
        case p.Op.IsPure()     : return true
        default                : return false
    }
}

// EliminateDeadCode removes the dead instructions of fn and returns how many were removed.
// Removing an instruction re-examines only the operands it released, the cascade is bounded
// to those and the function is never rescanned. Chains that only become dead after other
// passes run are left for the next invocation.
func EliminateDeadCode(fn *ir.Function) int {
    n := 0
    q := lane.NewQueue()

    /* collect first, erasing while walking the blocks would skip instructions */
    for _, bb := range fn.Blocks {
        for _, p := range bb.Ins {
            if isDead(p) {
                q.Enqueue(p)
            }
        }
    }

    /* erase and cascade into the released operands */
    for !q.Empty() {
        p := q.Dequeue().(*ir.Instr)
        if !isDead(p) {
            continue
        }

        /* the operand list is dropped by Erase */
        ops := append([]ir.Value(nil), p.Operands()...)
        p.Erase()
        n++

        /* operands may have lost their last user */
        for _, v := range ops {
            if d, ok := v.(*ir.Instr); ok && isDead(d) {
                q.Enqueue(d)
            }
        }
    }
    return n
}

func (DCE) Apply(fn *ir.Function, _ *ir.DominatorTree, st *Stats) {
    st.Dead += EliminateDeadCode(fn)
}
