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

package inline

import (
    `github.com/cloudwego/iropt/ir`
)

func isRecursive(fn *ir.Function) bool {
    for _, bb := range fn.Blocks {
        for _, p := range bb.Ins {
            if p.Callee() == fn {
                return true
            }
        }
    }
    return false
}

func hasPreds(bb *ir.BasicBlock) bool {
    for _, v := range bb.Func.Blocks {
        for _, succ := range v.Succs() {
            if succ == bb {
                return true
            }
        }
    }
    return false
}

// viable returns the reason why callee cannot be inlined at p, or an empty string.
func viable(p *ir.Instr, callee *ir.Function, hist []*ir.Function) string {
    args := p.Args()
    caller := p.Block.Func

    /* recursion in any form */
    if callee == caller {
        return "self-recursion"
    } else if isRecursive(callee) {
        return "recursive callee"
    }

    /* already expanded on the way to this site */
    for _, fn := range hist {
        if fn == callee {
            return "mutual recursion"
        }
    }

    /* the signature must match the call */
    if callee.Variadic {
        return "variadic callee"
    } else if len(args) != len(callee.Params) {
        return "argument count mismatch"
    } else if p.T != callee.Ret {
        return "return type mismatch"
    }

    /* argument types */
    for i, v := range args {
        if v.Type() != callee.Params[i].T {
            return "argument type mismatch"
        }
    }

    /* the cloned entry is reached from the call site only */
    if hasPreds(callee.Entry()) {
        return "entry block has predecessors"
    }
    return ""
}

func returns(fn *ir.Function) (n int) {
    for _, bb := range fn.Blocks {
        if tr := bb.Term(); tr != nil && tr.Op == ir.OpRet {
            n++
        }
    }
    return
}

func needsPhi(p *ir.Instr, callee *ir.Function) bool {
    return p.T != ir.Void && p.HasUsers() && returns(callee) > 1
}

// cost is the exact growth of the module when callee is expanded at p. The call goes away
// and the caller block gets a branch instead, every return turns into a branch.
func cost(p *ir.Instr, callee *ir.Function) int {
    if needsPhi(p, callee) {
        return callee.NumInstructions() + 1
    } else {
        return callee.NumInstructions()
    }
}

// expand replaces the call p with a copy of the body of callee, and returns the call sites
// in the copy.
func expand(p *ir.Instr, callee *ir.Function) []*ir.Instr {
    bb := p.Block
    fn := bb.Func
    m := fn.Module
    phi := needsPhi(p, callee)

    /* everything after the call moves to the continuation block */
    cont := bb.SplitAt(bb.Index(p) + 1, callee.Name + ".exit")
    vmap := make(map[ir.Value]ir.Value, len(callee.Params) + len(callee.Blocks))

    /* formal parameters become the actual arguments */
    for i, v := range p.Args() {
        vmap[callee.Params[i]] = v
    }

    /* create the blocks first, branches and phis may refer to any of them */
    blocks := make([]*ir.BasicBlock, len(callee.Blocks))
    for i, src := range callee.Blocks {
        blocks[i] = fn.DetachedBlock(src.Name)
        vmap[src] = blocks[i]
    }

    /* copy the instructions, operands still point into the callee */
    var sites []*ir.Instr
    var clones []*ir.Instr
    for i, src := range callee.Blocks {
        for _, v := range src.Ins {
            c := m.NewInstr(v.Op, v.T, v.Operands()...)
            c.Name = v.Name
            c.Pred = v.Pred
            c.Alloc = v.Alloc
            c.Volatile = v.Volatile
            vmap[v] = c
            clones = append(clones, c)
            blocks[i].Append(c)
        }
    }

    /* remap the operands into the caller */
    for _, c := range clones {
        for i, v := range c.Operands() {
            if nv, ok := vmap[v]; ok {
                c.SetOperand(i, nv)
            }
        }
        if c.IsCall() {
            sites = append(sites, c)
        }
    }

    /* returns jump to the continuation */
    var rv []ir.Value
    var rb []*ir.BasicBlock
    b := ir.NewBuilder(m)
    for _, nb := range blocks {
        if tr := nb.Term(); tr != nil && tr.Op == ir.OpRet {
            if tr.NumOperands() != 0 {
                rv = append(rv, tr.Operand(0))
                rb = append(rb, nb)
            }
            tr.Erase()
            b.SetBlock(nb).Br(cont)
        }
    }

    /* the call result */
    if p.T != ir.Void && p.HasUsers() {
        switch {
            case phi: {
                v := m.NewInstr(ir.OpPhi, p.T)
                for i := range rv {
                    v.AddIncoming(rv[i], rb[i])
                }
                cont.InsertAt(0, v)
                p.ReplaceAllUsesWith(v)
            }
            case len(rv) == 1: {
                p.ReplaceAllUsesWith(rv[0])
            }
            default: {
                p.ReplaceAllUsesWith(m.Undef(p.T))
            }
        }
    }

    /* the call goes away, the caller falls into the copied body */
    p.Erase()
    b.SetBlock(bb).Br(blocks[0])
    fn.InsertBlocksAfter(bb, blocks)
    return sites
}
