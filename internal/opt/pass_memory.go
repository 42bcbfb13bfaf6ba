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

// LoadElim replaces a load with an earlier load of the same pointer in the same block,
// as long as nothing in between may write memory.
type LoadElim struct{}

// EliminateLoads removes the redundant loads of fn and returns how many were removed.
func EliminateLoads(fn *ir.Function) int {
    n := 0
    for _, bb := range fn.Blocks {
        for i := 0; i < len(bb.Ins); i++ {
            if l1 := bb.Ins[i]; l1.Op == ir.OpLoad {
                n += LoadElim{}.forward(bb, i, l1)
            }
        }
    }
    return n
}

func (LoadElim) forward(bb *ir.BasicBlock, i int, l1 *ir.Instr) int {
    n := 0
    ptr := l1.PointerOperand()

    /* scan until the first store or call */
    for j := i + 1; j < len(bb.Ins); {
        p := bb.Ins[j]
        if p.MayWriteMemory() {
            break
        }

        /* same pointer, same type, not volatile */
        if p.Op != ir.OpLoad || p.Volatile || p.PointerOperand() != ptr || p.T != l1.T {
            j++
            continue
        }

        /* the later load reads what the first one read */
        p.ReplaceAllUsesWith(l1)
        p.Erase()
        n++
    }
    return n
}

func (LoadElim) Apply(fn *ir.Function, _ *ir.DominatorTree, st *Stats) {
    st.LoadsElim += EliminateLoads(fn)
}

// StoreElim forwards stored values to later loads of the same pointer, and removes stores
// that are overwritten before anything could read them.
type StoreElim struct{}

// EliminateStores runs store forwarding and dead store elimination over fn, it returns
// the number of removed stores and forwarded loads.
func EliminateStores(fn *ir.Function) (dead int, fwd int) {
    for _, bb := range fn.Blocks {
        for i := 0; i < len(bb.Ins); {
            s1 := bb.Ins[i]
            if s1.Op != ir.OpStore {
                i++
                continue
            }

            /* forward the stored value, then check whether the store survives */
            ok, nf := StoreElim{}.forward(bb, i, s1)
            fwd += nf

            /* the next instruction moves into slot i */
            if ok {
                s1.Erase()
                dead++
            } else {
                i++
            }
        }
    }
    return
}

func (StoreElim) forward(bb *ir.BasicBlock, i int, s1 *ir.Instr) (bool, int) {
    n := 0
    rd := false
    ptr := s1.PointerOperand()
    val := s1.StoredValue()

    /* scan for loads and stores of the same pointer */
    for j := i + 1; j < len(bb.Ins); {
        p := bb.Ins[j]
        switch {
            default: {
                j++
            }

            /* the load reads exactly what was stored */
            case p.Op == ir.OpLoad && !p.Volatile && p.PointerOperand() == ptr && p.T == val.Type(): {
                p.ReplaceAllUsesWith(val)
                p.Erase()
                n++
            }

            /* any surviving load may observe the store */
            case p.Op == ir.OpLoad: {
                rd = true
                j++
            }

            /* overwritten before being read */
            case p.Op == ir.OpStore && p.PointerOperand() == ptr && p.StoredValue().Type() == val.Type(): {
                return !rd && !s1.Volatile, n
            }

            /* other stores may alias, calls may do anything */
            case p.MayWriteMemory(): {
                return false, n
            }
        }
    }
    return false, n
}

func (StoreElim) Apply(fn *ir.Function, _ *ir.DominatorTree, st *Stats) {
    dead, fwd := EliminateStores(fn)
    st.StoresElim += dead
    st.Store2LoadFwd += fwd
}
