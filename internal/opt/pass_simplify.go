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

// Simplify folds constants and applies algebraic identities. Every replacement is either
// one of the operands of the instruction or a constant.
type Simplify struct{}

func (Simplify) binary(m *ir.Module, p *ir.Instr) ir.Value {
    t := p.T
    x := p.Operand(0)
    y := p.Operand(1)

    /* floating-point arithmetic only folds constants */
    if t.IsFloat() {
        if cx, ok := floatconst(x); !ok {
            return nil
        } else if cy, ok := floatconst(y); !ok {
            return nil
        } else {
            return foldfloat(m, p.Op, t, cx.Float(), cy.Float())
        }
    }

    /* integer constant folding */
    if cx, ok := intconst(x); ok {
        if cy, ok := intconst(y); ok {
            return foldint(m, p.Op, t, cx, cy)
        }
    }

    /* identities */
    zero := m.ConstInt(t, 0)
    ones := m.ConstInt(t, -1)
    unit := m.ConstInt(t, 1)

    /* x + 0, x - 0, x - x, x * 1, x * 0, ... */
    switch p.Op {
        case ir.OpAdd: {
            if y == zero { return x }
            if x == zero { return y }
        }
        case ir.OpSub: {
            if y == zero { return x }
            if x == y    { return zero }
        }
        case ir.OpMul: {
            if y == unit { return x }
            if x == unit { return y }
            if x == zero || y == zero { return zero }
        }
        case ir.OpUDiv, ir.OpSDiv: {
            if y == unit { return x }
        }
        case ir.OpURem, ir.OpSRem: {
            if y == unit { return zero }
        }
        case ir.OpShl, ir.OpLShr, ir.OpAShr: {
            if y == zero { return x }
        }
        case ir.OpAnd: {
            if x == y    { return x }
            if x == zero || y == zero { return zero }
            if y == ones { return x }
            if x == ones { return y }
        }
        case ir.OpOr: {
            if x == y    { return x }
            if y == zero { return x }
            if x == zero { return y }
            if x == ones || y == ones { return ones }
        }
        case ir.OpXor: {
            if x == y    { return zero }
            if y == zero { return x }
            if x == zero { return y }
        }
    }
    return nil
}

func (Simplify) icmp(m *ir.Module, p *ir.Instr) ir.Value {
    x := p.Operand(0)
    y := p.Operand(1)

    /* comparing a value with itself */
    if x == y {
        if r, ok := reflexive(p.Pred); ok {
            return m.ConstBool(r)
        }
    }

    /* both sides are constants */
    if cx, ok := intconst(x); ok {
        if cy, ok := intconst(y); ok {
            if r, ok := evalicmp(p.Pred, cx, cy); ok {
                return m.ConstBool(r)
            }
        }
    }
    return nil
}

func (Simplify) fcmp(m *ir.Module, p *ir.Instr) ir.Value {
    if cx, ok := floatconst(p.Operand(0)); ok {
        if cy, ok := floatconst(p.Operand(1)); ok {
            if r, ok := evalfcmp(p.Pred, cx.Float(), cy.Float()); ok {
                return m.ConstBool(r)
            }
        }
    }
    return nil
}

func (Simplify) cast(m *ir.Module, p *ir.Instr) ir.Value {
    if v := p.Operand(0); p.Op == ir.OpBitCast && v.Type() == p.T {
        return v
    } else {
        return foldcast(m, p.Op, p.T, v)
    }
}

func (Simplify) sel(p *ir.Instr) ir.Value {
    c := p.Operand(0)
    a := p.Operand(1)
    b := p.Operand(2)

    /* both arms are the same */
    if a == b {
        return a
    }

    /* constant condition */
    if cc, ok := intconst(c); !ok {
        return nil
    } else if cc.Uint() != 0 {
        return a
    } else {
        return b
    }
}

func (Simplify) gep(p *ir.Instr) ir.Value {
    for _, v := range p.Operands()[1:] {
        if c, ok := intconst(v); !ok || c.Uint() != 0 {
            return nil
        }
    }
    return p.Operand(0)
}

func (Simplify) phi(p *ir.Instr) ir.Value {
    var v ir.Value
    for i := 0; i < p.NumIncoming(); i++ {
        if iv := p.IncomingValue(i); iv == ir.Value(p) {
            continue
        } else if v == nil {
            v = iv
        } else if v != iv {
            return nil
        }
    }

    /* instructions outside of the entry block may not dominate every use of the phi */
    if d, ok := v.(*ir.Instr); ok && (d.Block == nil || d.Block != d.Block.Func.Entry()) {
        return nil
    } else {
        return v
    }
}

func (self Simplify) simplify(m *ir.Module, p *ir.Instr) ir.Value {
    switch {
        case p.Op.IsBinary()    : return self.binary(m, p)
        case p.Op.IsCast()      : return self.cast(m, p)
        case p.Op == ir.OpICmp  : return self.icmp(m, p)
        case p.Op == ir.OpFCmp  : return self.fcmp(m, p)
        case p.Op == ir.OpSelect: return self.sel(p)
        case p.Op == ir.OpGEP   : return self.gep(p)
        case p.Op == ir.OpPhi   : return self.phi(p)
        case p.Op == ir.OpFNeg  : {
            if c, ok := floatconst(p.Operand(0)); ok {
                return m.ConstFloat(p.T, -c.Float())
            }
        }
    }
    return nil
}

// SimplifyFunc simplifies every instruction of fn and returns how many were replaced.
// Users of a replaced instruction are revisited, so a second run finds nothing to do.
func SimplifyFunc(fn *ir.Function, dt *ir.DominatorTree) int {
    n := 0
    q := lane.NewQueue()
    inq := make(map[*ir.Instr]bool)

    /* queue an instruction once */
    push := func(p *ir.Instr) {
        if !inq[p] {
            inq[p] = true
            q.Enqueue(p)
        }
    }

    /* dominators first, so operands are folded before their users */
    seen := make(map[*ir.BasicBlock]bool, len(fn.Blocks))
    for _, bb := range ir.NewBlockIter(dt).Reversed() {
        seen[bb] = true
        for _, p := range bb.Ins {
            push(p)
        }
    }

    /* unreachable blocks are simplified as well */
    for _, bb := range fn.Blocks {
        if !seen[bb] {
            for _, p := range bb.Ins {
                push(p)
            }
        }
    }

    /* drain the worklist */
    for !q.Empty() {
        p := q.Dequeue().(*ir.Instr)
        delete(inq, p)

        /* erased as a side effect of an earlier rewrite */
        if p.Detached() {
            continue
        }

        /* try to find a replacement */
        v := Simplify{}.simplify(fn.Module, p)
        if v == nil {
            continue
        }

        /* redirect the users, then drop the instruction */
        users := append([]*ir.Instr(nil), p.Users()...)
        p.ReplaceAllUsesWith(v)
        p.Erase()
        n++

        /* the users may simplify further now */
        for _, u := range users {
            push(u)
        }
    }
    return n
}

func (Simplify) Apply(fn *ir.Function, dt *ir.DominatorTree, st *Stats) {
    st.Simplified += SimplifyFunc(fn, dt)
}
