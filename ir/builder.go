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

// Builder appends instructions to the end of a basic block.
type Builder struct {
    m  *Module
    bb *BasicBlock
}

// NewBuilder creates a builder for module m.
func NewBuilder(m *Module) *Builder {
    return &Builder{m: m}
}

// SetBlock sets the insertion block.
func (self *Builder) SetBlock(bb *BasicBlock) *Builder {
    self.bb = bb
    return self
}

// Block returns the insertion block.
func (self *Builder) Block() *BasicBlock {
    return self.bb
}

// Emit appends a generic instruction.
func (self *Builder) Emit(op Op, t Type, ops ...Value) *Instr {
    p := self.m.NewInstr(op, t, ops...)
    self.bb.Append(p)
    return p
}

// Binary appends a binary arithmetic instruction, typed after x.
func (self *Builder) Binary(op Op, x Value, y Value) *Instr {
    return self.Emit(op, x.Type(), x, y)
}

// FNeg appends a floating-point negation.
func (self *Builder) FNeg(x Value) *Instr {
    return self.Emit(OpFNeg, x.Type(), x)
}

// ICmp appends an integer comparison.
func (self *Builder) ICmp(pred CmpPred, x Value, y Value) *Instr {
    p := self.Emit(OpICmp, I1, x, y)
    p.Pred = pred
    return p
}

// FCmp appends a floating-point comparison.
func (self *Builder) FCmp(pred CmpPred, x Value, y Value) *Instr {
    p := self.Emit(OpFCmp, I1, x, y)
    p.Pred = pred
    return p
}

// Cast appends a conversion of v to type t.
func (self *Builder) Cast(op Op, v Value, t Type) *Instr {
    return self.Emit(op, t, v)
}

// Alloca appends a stack allocation of one t.
func (self *Builder) Alloca(t Type) *Instr {
    p := self.Emit(OpAlloca, Ptr)
    p.Alloc = t
    return p
}

// GEP appends an address computation.
func (self *Builder) GEP(base Value, idx ...Value) *Instr {
    return self.Emit(OpGEP, Ptr, append([]Value { base }, idx...)...)
}

// Load appends a load of type t from ptr.
func (self *Builder) Load(t Type, ptr Value) *Instr {
    return self.Emit(OpLoad, t, ptr)
}

// LoadVolatile appends a volatile load of type t from ptr.
func (self *Builder) LoadVolatile(t Type, ptr Value) *Instr {
    p := self.Load(t, ptr)
    p.Volatile = true
    return p
}

// Store appends a store of v to ptr.
func (self *Builder) Store(v Value, ptr Value) *Instr {
    return self.Emit(OpStore, Void, v, ptr)
}

// StoreVolatile appends a volatile store of v to ptr.
func (self *Builder) StoreVolatile(v Value, ptr Value) *Instr {
    p := self.Store(v, ptr)
    p.Volatile = true
    return p
}

// Phi appends an empty phi node, use AddIncoming to fill it.
func (self *Builder) Phi(t Type) *Instr {
    return self.Emit(OpPhi, t)
}

// Select appends a select between a and b.
func (self *Builder) Select(c Value, a Value, b Value) *Instr {
    return self.Emit(OpSelect, a.Type(), c, a, b)
}

// Call appends a call to fn returning ret.
func (self *Builder) Call(fn Value, ret Type, args ...Value) *Instr {
    return self.Emit(OpCall, ret, append([]Value { fn }, args...)...)
}

// Br appends an unconditional branch.
func (self *Builder) Br(to *BasicBlock) *Instr {
    return self.Emit(OpBr, Void, to)
}

// CondBr appends a conditional branch.
func (self *Builder) CondBr(c Value, t *BasicBlock, f *BasicBlock) *Instr {
    return self.Emit(OpCondBr, Void, c, t, f)
}

// Ret appends a return, with at most one value.
func (self *Builder) Ret(v ...Value) *Instr {
    if len(v) > 1 {
        panic("ir: returning more than one value")
    }
    return self.Emit(OpRet, Void, v...)
}

// Unreachable appends an unreachable terminator.
func (self *Builder) Unreachable() *Instr {
    return self.Emit(OpUnreachable, Void)
}
