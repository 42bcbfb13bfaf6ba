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

package ir

import (
    `fmt`
    `strings`

    `gonum.org/v1/gonum/graph/flow`
    `gonum.org/v1/gonum/graph/simple`
)

// VerifyError describes a single structural violation found by the verifier.
type VerifyError struct {
    Func   string
    Block  string
    Reason string
}

func (self VerifyError) Error() string {
    if self.Block == "" {
        return fmt.Sprintf("@%s: %s", self.Func, self.Reason)
    } else {
        return fmt.Sprintf("@%s: %%%s: %s", self.Func, self.Block, self.Reason)
    }
}

// VerifyErrors collects every violation found in one run.
type VerifyErrors []VerifyError

func (self VerifyErrors) Error() string {
    ret := make([]string, len(self))
    for i, e := range self {
        ret[i] = e.Error()
    }
    return strings.Join(ret, "\n")
}

type _Verifier struct {
    fn   *Function
    dt   *DominatorTree
    nm   *_Namer
    errs VerifyErrors
}

func (self *_Verifier) fail(bb *BasicBlock, format string, args ...interface{}) {
    name := ""
    if bb != nil {
        name = self.nm.value(bb)[1:]
    }
    self.errs = append(self.errs, VerifyError {
        Func   : self.fn.Name,
        Block  : name,
        Reason : fmt.Sprintf(format, args...),
    })
}

// Verify checks the structural invariants of fn: block termination, operand ownership,
// use-set consistency, phi incoming blocks and dominance of definitions over uses. The
// dominator tree is cross-checked against an independent computation.
func Verify(fn *Function) error {
    if fn.IsDeclaration() {
        return nil
    }

    /* build the verifier state */
    vf := &_Verifier {
        fn : fn,
        dt : BuildDominatorTree(fn),
        nm : newNamer(fn),
    }

    /* structural checks come first, dominance is meaningless without them */
    vf.checkBlocks()
    if len(vf.errs) == 0 {
        vf.checkDominatorTree()
        vf.checkOperands()
    }

    /* no errors found */
    if len(vf.errs) == 0 {
        return nil
    } else {
        return vf.errs
    }
}

// VerifyModule verifies every function of m.
func VerifyModule(m *Module) error {
    var errs VerifyErrors
    for _, fn := range m.Funcs {
        if err := Verify(fn); err != nil {
            errs = append(errs, err.(VerifyErrors)...)
        }
    }
    if len(errs) == 0 {
        return nil
    } else {
        return errs
    }
}

func (self *_Verifier) checkBlocks() {
    owned := make(map[*BasicBlock]bool, len(self.fn.Blocks))
    for _, bb := range self.fn.Blocks {
        owned[bb] = true
    }

    /* every block ends with exactly one terminator */
    for _, bb := range self.fn.Blocks {
        if bb.Func != self.fn {
            self.fail(bb, "block belongs to another function")
        }
        if bb.Term() == nil {
            self.fail(bb, "block is not terminated")
        }

        /* phis lead, terminators trail */
        phis := true
        for i, p := range bb.Ins {
            if p.Block != bb {
                self.fail(bb, "instruction %s has a wrong parent block", self.nm.instr(p))
            }
            if p.Op != OpPhi {
                phis = false
            } else if !phis {
                self.fail(bb, "phi %s is not at the beginning of the block", self.nm.value(p))
            }
            if p.IsTerminator() && i != len(bb.Ins) - 1 {
                self.fail(bb, "terminator %s in the middle of the block", self.nm.instr(p))
            }
        }

        /* branch targets must be blocks of this function */
        for _, succ := range bb.Succs() {
            if !owned[succ] {
                self.fail(bb, "branch to a block outside of the function")
            }
        }
    }

    /* nothing may jump back into the entry */
    if preds := self.fn.Preds()[self.fn.Entry()]; len(preds) != 0 {
        self.fail(self.fn.Entry(), "entry block has predecessors")
    }
}

func (self *_Verifier) checkDominatorTree() {
    g := simple.NewDirectedGraph()
    id := make(map[*BasicBlock]int64, len(self.fn.Blocks))

    /* one node per block */
    for i, bb := range self.fn.Blocks {
        id[bb] = int64(i)
        g.AddNode(simple.Node(i))
    }

    /* one edge per distinct CFG edge, self loops never change dominance */
    for _, bb := range self.fn.Blocks {
        for _, succ := range bb.Succs() {
            if succ != bb {
                g.SetEdge(g.NewEdge(simple.Node(id[bb]), simple.Node(id[succ])))
            }
        }
    }

    /* compare the immediate dominators */
    ref := flow.Dominators(simple.Node(0), g)
    for i, bb := range self.fn.Blocks[1:] {
        want := ref.DominatorOf(int64(i + 1))
        have := self.dt.Idom(bb)

        /* unreachable blocks have no dominator in either tree */
        if want == nil || have == nil {
            if (want == nil) != (have == nil) {
                self.fail(bb, "dominator tree disagrees on reachability")
            }
            continue
        }

        /* otherwise they must be the same block */
        if want.ID() != id[have] {
            self.fail(bb, "immediate dominator mismatch: %%%s vs %%%s",
                self.nm.value(have)[1:],
                self.nm.value(self.fn.Blocks[want.ID()])[1:],
            )
        }
    }
}

func (self *_Verifier) checkOperands() {
    preds := self.fn.Preds()
    for _, bb := range self.fn.Blocks {
        for _, p := range bb.Ins {
            self.checkInstr(p, preds)
        }
    }
}

func countUses(users []*Instr, p *Instr) (n int) {
    for _, u := range users {
        if u == p {
            n++
        }
    }
    return
}

func (self *_Verifier) checkInstr(p *Instr, preds map[*BasicBlock][]*BasicBlock) {
    bb := p.Block
    slots := make(map[Value]int, len(p.ops))

    /* every operand must be owned by this function or module */
    for i, v := range p.ops {
        switch vv := v.(type) {
            case nil: {
                self.fail(bb, "%s has a nil operand", self.nm.instr(p))
                continue
            }
            case *Instr: {
                if vv.Block == nil || vv.Block.Func != self.fn {
                    self.fail(bb, "%s references an erased or foreign instruction", self.nm.instr(p))
                    continue
                }
                if vv.T == Void {
                    self.fail(bb, "%s uses an instruction without a result", self.nm.instr(p))
                }
                if !self.dominates(vv, p, i) {
                    self.fail(bb, "%s is not dominated by its operand %s", self.nm.instr(p), self.nm.value(vv))
                }
            }
            case *Param: {
                if vv.Func != self.fn {
                    self.fail(bb, "%s references a foreign parameter", self.nm.instr(p))
                }
            }
            case *Function: {
                if vv.Module != self.fn.Module {
                    self.fail(bb, "%s references a foreign function", self.nm.instr(p))
                }
            }
            case *BasicBlock: {
                if vv.Func != self.fn {
                    self.fail(bb, "%s references a foreign block", self.nm.instr(p))
                }
            }
        }
        slots[v]++
    }

    /* the use-sets must mirror the operand slots exactly */
    for v, n := range slots {
        if u, ok := v.(interface{ Users() []*Instr }); ok && countUses(u.Users(), p) != n {
            self.fail(bb, "use-set of %s is out of sync with %s", self.nm.value(v), self.nm.instr(p))
        }
    }

    /* and every recorded user must still be live */
    for _, u := range p.users {
        if u.Block == nil {
            self.fail(bb, "%s is used by an erased instruction", self.nm.value(p))
        }
    }

    /* opcode specific checks */
    switch p.Op {
        case OpPhi: {
            self.checkPhi(p, preds[bb])
        }
        case OpRet: {
            if (len(p.ops) == 0) != (self.fn.Ret == Void) || (len(p.ops) != 0 && p.ops[0].Type() != self.fn.Ret) {
                self.fail(bb, "return type mismatch in %s", self.nm.instr(p))
            }
        }
        case OpCall: {
            if fn := p.Callee(); fn != nil && !fn.Variadic && len(p.Args()) != len(fn.Params) {
                self.fail(bb, "argument count mismatch in %s", self.nm.instr(p))
            }
        }
    }
}

func (self *_Verifier) checkPhi(p *Instr, preds []*BasicBlock) {
    if len(p.ops) % 2 != 0 {
        self.fail(p.Block, "malformed phi %s", self.nm.value(p))
        return
    }

    /* count the incoming edges */
    n := make(map[*BasicBlock]int, len(preds))
    for _, bb := range preds {
        n[bb]++
    }
    for i := 0; i < p.NumIncoming(); i++ {
        if bb, ok := p.ops[i * 2 + 1].(*BasicBlock); !ok {
            self.fail(p.Block, "phi %s has a non-label incoming block", self.nm.value(p))
        } else {
            n[bb]--
        }
    }

    /* one incoming value per CFG edge */
    for bb, v := range n {
        if v != 0 {
            self.fail(p.Block, "phi %s does not match the predecessor %%%s", self.nm.value(p), self.nm.value(bb)[1:])
        }
    }
}

func (self *_Verifier) dominates(def *Instr, use *Instr, slot int) bool {
    ub := use.Block

    /* a phi reads its operand at the end of the incoming block */
    if use.Op == OpPhi {
        if slot % 2 != 0 || slot + 1 >= len(use.ops) {
            return true
        }
        if in, ok := use.ops[slot + 1].(*BasicBlock); ok {
            ub = in
        }
        if !self.dt.Reachable(ub) {
            return true
        }
        return self.dt.Dominates(def.Block, ub)
    }

    /* anything goes in unreachable code */
    if !self.dt.Reachable(ub) {
        return true
    } else {
        return def != use && InstrDominates(self.dt, def, use)
    }
}
