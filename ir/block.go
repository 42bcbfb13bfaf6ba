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

// BasicBlock is a straight-line sequence of instructions, the last of which is the only
// terminator of the block.
type BasicBlock struct {
    Id   int
    Name string
    Func *Function
    Ins  []*Instr
}

func (self *BasicBlock) Type() Type {
    return Label
}

// Term returns the terminator of the block, or nil if the block is not terminated yet.
func (self *BasicBlock) Term() *Instr {
    if n := len(self.Ins); n == 0 || !self.Ins[n - 1].IsTerminator() {
        return nil
    } else {
        return self.Ins[n - 1]
    }
}

// Succs returns the successors of the block in terminator operand order.
func (self *BasicBlock) Succs() []*BasicBlock {
    if tr := self.Term(); tr == nil {
        return nil
    } else {
        return tr.Successors()
    }
}

// Phis returns the leading phi nodes of the block.
func (self *BasicBlock) Phis() []*Instr {
    i := 0
    for i < len(self.Ins) && self.Ins[i].Op == OpPhi { i++ }
    return self.Ins[:i]
}

// Index returns the position of p in the block, or -1.
func (self *BasicBlock) Index(p *Instr) int {
    for i, v := range self.Ins {
        if v == p {
            return i
        }
    }
    return -1
}

// Append adds p at the end of the block.
func (self *BasicBlock) Append(p *Instr) {
    if p.Block != nil {
        panic("ir: instruction is already attached to bb_" + p.Block.Name)
    }
    p.Block = self
    self.Ins = append(self.Ins, p)
}

// InsertAt inserts p at position i.
func (self *BasicBlock) InsertAt(i int, p *Instr) {
    if p.Block != nil {
        panic("ir: instruction is already attached to bb_" + p.Block.Name)
    }
    p.Block = self
    self.Ins = append(self.Ins, nil)
    copy(self.Ins[i + 1:], self.Ins[i:])
    self.Ins[i] = p
}

func (self *BasicBlock) remove(p *Instr) {
    if i := self.Index(p); i < 0 {
        panic("ir: instruction does not belong to the block")
    } else {
        self.Ins = append(self.Ins[:i], self.Ins[i + 1:]...)
        p.Block = nil
    }
}

// SplitAt moves the instructions starting from position i (including the terminator) into
// a new block placed right after this one. Phi nodes in the successors are updated to
// come from the new block. The original block is left without a terminator.
func (self *BasicBlock) SplitAt(i int, name string) *BasicBlock {
    fn := self.Func
    bb := fn.newBlock(name)
    fn.insertBlockAfter(self, bb)

    /* move the tail over */
    bb.Ins = append(bb.Ins, self.Ins[i:]...)
    self.Ins = self.Ins[:i:i]
    for _, p := range bb.Ins { p.Block = bb }

    /* the successors are now reached from the new block */
    for _, succ := range bb.Succs() {
        for _, phi := range succ.Phis() {
            for j := 0; j < phi.NumIncoming(); j++ {
                if phi.IncomingBlock(j) == self {
                    phi.SetOperand(j * 2 + 1, bb)
                }
            }
        }
    }
    return bb
}

// InsertBefore inserts p right before the instruction at, which must belong to this block.
func (self *BasicBlock) InsertBefore(p *Instr, at *Instr) {
    if i := self.Index(at); i < 0 {
        panic("ir: insertion point does not belong to the block")
    } else {
        self.InsertAt(i, p)
    }
}
