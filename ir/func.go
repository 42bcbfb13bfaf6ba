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

// Function is a function definition, or a declaration when it has no blocks.
type Function struct {
    Name     string
    Ret      Type
    Params   []*Param
    Variadic bool
    Blocks   []*BasicBlock
    Module   *Module
}

func (self *Function) Type() Type {
    return Ptr
}

// IsDeclaration reports whether the function has no body.
func (self *Function) IsDeclaration() bool {
    return len(self.Blocks) == 0
}

// Entry returns the entry block, nil for declarations.
func (self *Function) Entry() *BasicBlock {
    if len(self.Blocks) == 0 {
        return nil
    } else {
        return self.Blocks[0]
    }
}

// NewBlock creates a new block at the end of the function.
func (self *Function) NewBlock(name string) *BasicBlock {
    bb := self.newBlock(name)
    self.Blocks = append(self.Blocks, bb)
    return bb
}

func (self *Function) newBlock(name string) *BasicBlock {
    return &BasicBlock {
        Id   : self.Module.nextid(),
        Name : name,
        Func : self,
    }
}

func (self *Function) insertBlockAfter(after *BasicBlock, bb *BasicBlock) {
    for i, v := range self.Blocks {
        if v == after {
            self.Blocks = append(self.Blocks, nil)
            copy(self.Blocks[i + 2:], self.Blocks[i + 1:])
            self.Blocks[i + 1] = bb
            return
        }
    }
    panic("ir: block does not belong to the function")
}

// InsertBlocksAfter places the (detached) blocks bbs after the block at, in order.
func (self *Function) InsertBlocksAfter(at *BasicBlock, bbs []*BasicBlock) {
    for i := len(bbs) - 1; i >= 0; i-- {
        bbs[i].Func = self
        self.insertBlockAfter(at, bbs[i])
    }
}

// DetachedBlock creates a block that belongs to the function but is not placed yet.
func (self *Function) DetachedBlock(name string) *BasicBlock {
    return self.newBlock(name)
}

// NumInstructions counts the instructions in the function body.
func (self *Function) NumInstructions() (n int) {
    for _, bb := range self.Blocks {
        n += len(bb.Ins)
    }
    return
}

// Preds returns the CFG predecessors of every block, one entry per edge.
func (self *Function) Preds() map[*BasicBlock][]*BasicBlock {
    ret := make(map[*BasicBlock][]*BasicBlock, len(self.Blocks))
    for _, bb := range self.Blocks {
        for _, succ := range bb.Succs() {
            ret[succ] = append(ret[succ], bb)
        }
    }
    return ret
}

// Module is the unit of optimization, an ordered collection of functions.
type Module struct {
    Name   string
    Funcs  []*Function
    consts map[_ConstKey]*Const
    nextId int
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
    return &Module {
        Name   : name,
        consts : make(map[_ConstKey]*Const),
    }
}

func (self *Module) nextid() int {
    self.nextId++
    return self.nextId
}

// NewFunction adds a new function without a body to the module.
func (self *Module) NewFunction(name string, ret Type, params ...Type) *Function {
    fn := &Function {
        Name   : name,
        Ret    : ret,
        Module : self,
    }

    /* create the formal parameters */
    for i, t := range params {
        fn.Params = append(fn.Params, &Param {
            Index : i,
            Func  : fn,
            T     : t,
        })
    }

    /* add to the module */
    self.Funcs = append(self.Funcs, fn)
    return fn
}

// Lookup finds a function by name.
func (self *Module) Lookup(name string) *Function {
    for _, fn := range self.Funcs {
        if fn.Name == name {
            return fn
        }
    }
    return nil
}

// NumInstructions counts the instructions of every function in the module.
func (self *Module) NumInstructions() (n int) {
    for _, fn := range self.Funcs {
        n += fn.NumInstructions()
    }
    return
}

// NewInstr creates a detached instruction with a fresh id.
func (self *Module) NewInstr(op Op, t Type, ops ...Value) *Instr {
    p := &Instr {
        Id : self.nextid(),
        Op : op,
        T  : t,
    }
    for _, v := range ops {
        p.addOperand(v)
    }
    return p
}
