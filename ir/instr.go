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

// Instr is a single IR instruction. The result of an instruction is the instruction itself.
type Instr struct {
    _UseList
    Id       int
    Name     string
    Op       Op
    T        Type
    Pred     CmpPred
    Volatile bool
    Alloc    Type
    Block    *BasicBlock
    ops      []Value
}

func (self *Instr) Type() Type {
    return self.T
}

// Operands returns the operand list. The slice is owned by the instruction and must not
// be modified, use SetOperand instead.
func (self *Instr) Operands() []Value {
    return self.ops
}

// NumOperands returns the number of operands.
func (self *Instr) NumOperands() int {
    return len(self.ops)
}

// Operand returns the i-th operand.
func (self *Instr) Operand(i int) Value {
    return self.ops[i]
}

// SetOperand replaces the i-th operand, keeping both use-sets up to date.
func (self *Instr) SetOperand(i int, v Value) {
    if u, ok := self.ops[i].(usable); ok {
        u.delUser(self)
    }
    if u, ok := v.(usable); ok {
        u.addUser(self)
    }
    self.ops[i] = v
}

func (self *Instr) addOperand(v Value) {
    if u, ok := v.(usable); ok {
        u.addUser(self)
    }
    self.ops = append(self.ops, v)
}

func (self *Instr) dropOperands() {
    for _, v := range self.ops {
        if u, ok := v.(usable); ok {
            u.delUser(self)
        }
    }
    self.ops = nil
}

// ReplaceAllUsesWith redirects every use of this instruction to v.
func (self *Instr) ReplaceAllUsesWith(v Value) {
    if v == Value(self) {
        panic("ir: replacing an instruction with itself")
    }

    /* rewrite every operand slot that reads this instruction */
    nu, ok := v.(usable)
    users := self.users
    self.users = nil

    /* a user appears once per slot, so only rewrite the first matching slot each time */
    for _, u := range users {
        for j, op := range u.ops {
            if op == Value(self) {
                u.ops[j] = v
                if ok { nu.addUser(u) }
                break
            }
        }
    }
}

// Erase detaches the instruction from its block and releases its operands. All uses must
// have been redirected before.
func (self *Instr) Erase() {
    if self.HasUsers() {
        panic("ir: erasing instruction " + self.String() + " which still has users")
    }
    if self.Block != nil {
        self.Block.remove(self)
    }
    self.dropOperands()
}

// Detached reports whether the instruction has been removed from its block.
func (self *Instr) Detached() bool {
    return self.Block == nil
}

// IsTerminator reports whether the instruction ends its block.
func (self *Instr) IsTerminator() bool {
    return self.Op.IsTerminator()
}

// IsCall reports whether the instruction is a call.
func (self *Instr) IsCall() bool {
    return self.Op == OpCall
}

// Callee returns the called function of a direct call, nil for indirect calls.
func (self *Instr) Callee() *Function {
    if self.Op != OpCall || len(self.ops) == 0 {
        return nil
    }
    fn, _ := self.ops[0].(*Function)
    return fn
}

// Args returns the actual arguments of a call.
func (self *Instr) Args() []Value {
    if self.Op != OpCall || len(self.ops) == 0 {
        return nil
    }
    return self.ops[1:]
}

// PointerOperand returns the address operand of a load or a store.
func (self *Instr) PointerOperand() Value {
    switch self.Op {
        case OpLoad  : return self.ops[0]
        case OpStore : return self.ops[1]
        default      : return nil
    }
}

// StoredValue returns the value operand of a store.
func (self *Instr) StoredValue() Value {
    if self.Op != OpStore {
        return nil
    }
    return self.ops[0]
}

// NumIncoming returns the number of (value, block) pairs of a phi node.
func (self *Instr) NumIncoming() int {
    return len(self.ops) / 2
}

// IncomingValue returns the i-th incoming value of a phi node.
func (self *Instr) IncomingValue(i int) Value {
    return self.ops[i * 2]
}

// IncomingBlock returns the i-th incoming block of a phi node.
func (self *Instr) IncomingBlock(i int) *BasicBlock {
    return self.ops[i * 2 + 1].(*BasicBlock)
}

// AddIncoming appends an incoming pair to a phi node.
func (self *Instr) AddIncoming(v Value, bb *BasicBlock) {
    self.addOperand(v)
    self.addOperand(bb)
}

// Successors returns the blocks a terminator may transfer control to.
func (self *Instr) Successors() []*BasicBlock {
    switch self.Op {
        case OpBr     : return []*BasicBlock { self.ops[0].(*BasicBlock) }
        case OpCondBr : return []*BasicBlock { self.ops[1].(*BasicBlock), self.ops[2].(*BasicBlock) }
        default       : return nil
    }
}

// MayWriteMemory reports whether the instruction may modify memory.
func (self *Instr) MayWriteMemory() bool {
    return self.Op == OpStore || self.Op == OpCall
}
