/*
 * Copyright 2024 CloudWeGo Authors
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

// Package bitcode reads and writes the binary form of IR modules. A module is a 4-byte
// magic, a version byte, then the module encoded with the thrift binary protocol.
package bitcode

import (
    `bytes`
    `fmt`
    `os`

    `github.com/apache/thrift/lib/go/thrift`
    `github.com/cloudwego/iropt/internal/utils`
    `github.com/cloudwego/iropt/ir`
)

const (
    Magic   = "IRBC"
    Version = 1
)

// IsBitcode reports whether buf looks like a binary module.
func IsBitcode(buf []byte) bool {
    return bytes.HasPrefix(buf, []byte(Magic))
}

/** Encoder **/

type _Writer struct {
    funcs map[*ir.Function]int
}

func (self *_Writer) operand(v ir.Value, ids map[ir.Value]int) (_Operand, error) {
    switch vv := v.(type) {
        case *ir.Instr: {
            if id, ok := ids[vv]; ok {
                return _Operand { Kind: _K_instr, Ref: int64(id), Type: int8(vv.T) }, nil
            }
        }
        case *ir.BasicBlock: {
            if id, ok := ids[vv]; ok {
                return _Operand { Kind: _K_block, Ref: int64(id) }, nil
            }
        }
        case *ir.Param: {
            return _Operand { Kind: _K_param, Ref: int64(vv.Index), Type: int8(vv.T) }, nil
        }
        case *ir.Function: {
            if id, ok := self.funcs[vv]; ok {
                return _Operand { Kind: _K_func, Ref: int64(id) }, nil
            }
        }
        case *ir.Const: {
            switch {
                case vv.IsUndef() : return _Operand { Kind: _K_undef, Type: int8(vv.T) }, nil
                case vv.IsFloat() : return _Operand { Kind: _K_float, Float: vv.Float(), Type: int8(vv.T) }, nil
                default           : return _Operand { Kind: _K_int, Ref: vv.Int(), Type: int8(vv.T) }, nil
            }
        }
    }
    return _Operand{}, fmt.Errorf("bitcode: operand %v does not belong to the module", v)
}

func (self *_Writer) function(fn *ir.Function) (_Function, error) {
    ret := _Function {
        Name     : fn.Name,
        Ret      : int8(fn.Ret),
        Variadic : fn.Variadic,
    }

    /* formal parameters */
    for _, p := range fn.Params {
        ret.Params = append(ret.Params, _Param { Type: int8(p.T), Name: p.Name })
    }

    /* number the blocks and the instructions */
    n := 0
    ids := make(map[ir.Value]int)
    for i, bb := range fn.Blocks {
        ids[bb] = i
        for _, p := range bb.Ins {
            ids[p] = n
            n++
        }
    }

    /* encode the body */
    for _, bb := range fn.Blocks {
        blk := _Block { Name: bb.Name }
        for _, p := range bb.Ins {
            ins := _Instr {
                Op       : int32(p.Op),
                Type     : int8(p.T),
                Name     : p.Name,
                Pred     : int8(p.Pred),
                Volatile : p.Volatile,
                Alloc    : int8(p.Alloc),
            }

            /* operands refer to other values by index */
            for _, v := range p.Operands() {
                if op, err := self.operand(v, ids); err != nil {
                    return ret, err
                } else {
                    ins.Ops = append(ins.Ops, op)
                }
            }
            blk.Ins = append(blk.Ins, ins)
        }
        ret.Blocks = append(ret.Blocks, blk)
    }
    return ret, nil
}

// Encode returns the binary form of m.
func Encode(m *ir.Module) ([]byte, error) {
    w := &_Writer { funcs: make(map[*ir.Function]int, len(m.Funcs)) }
    mod := _Module { Name: m.Name }

    /* functions are referenced by index */
    for i, fn := range m.Funcs {
        w.funcs[fn] = i
    }

    /* convert every function */
    for _, fn := range m.Funcs {
        if f, err := w.function(fn); err != nil {
            return nil, err
        } else {
            mod.Funcs = append(mod.Funcs, f)
        }
    }

    /* header, then the module itself */
    mm := thrift.NewTMemoryBuffer()
    mm.WriteString(Magic)
    mm.WriteByte(Version)

    /* encode with the binary protocol, the memory buffer needs no flushing */
    if err := mod.Write(thrift.NewTBinaryProtocolTransport(mm)); err != nil {
        return nil, err
    } else {
        return mm.Bytes(), nil
    }
}

// Save writes the binary form of m to the file at path.
func Save(path string, m *ir.Module) error {
    if buf, err := Encode(m); err != nil {
        return err
    } else {
        return os.WriteFile(path, buf, 0644)
    }
}

/** Decoder **/

type _Reader struct {
    p    thrift.TProtocol
    mm   *thrift.TMemoryBuffer
    size int
}

// offset is the position in the whole input, header included.
func (self *_Reader) offset() int {
    return self.size - self.mm.Len()
}

func (self *_Reader) remaining() int {
    return self.mm.Len()
}

type _Builder struct {
    m    *ir.Module
    fn   *ir.Function
    f    *_Function
    ins  []*ir.Instr
    defs []*_Instr
    fwd  map[int]*ir.Instr
}

func typeOf(v int8) (ir.Type, bool) {
    t := ir.Type(uint8(v))
    return t, t.IsValid()
}

func (self *_Builder) value(v _Operand, off int) (ir.Value, error) {
    t, ok := typeOf(v.Type)
    if !ok {
        return nil, utils.EBadTag(off, "type", int(v.Type))
    }

    /* resolve the reference */
    switch v.Kind {
        case _K_int   : return self.m.ConstInt(t, v.Ref), nil
        case _K_float : return self.m.ConstFloat(t, v.Float), nil
        case _K_undef : return self.m.Undef(t), nil
        case _K_param : {
            if v.Ref < 0 || v.Ref >= int64(len(self.fn.Params)) {
                return nil, utils.EFormat(off, fmt.Sprintf("parameter index %d out of range", v.Ref))
            }
            return self.fn.Params[v.Ref], nil
        }
        case _K_func: {
            if v.Ref < 0 || v.Ref >= int64(len(self.m.Funcs)) {
                return nil, utils.EFormat(off, fmt.Sprintf("function index %d out of range", v.Ref))
            }
            return self.m.Funcs[v.Ref], nil
        }
        case _K_block: {
            if v.Ref < 0 || v.Ref >= int64(len(self.fn.Blocks)) {
                return nil, utils.EFormat(off, fmt.Sprintf("block index %d out of range", v.Ref))
            }
            return self.fn.Blocks[v.Ref], nil
        }
        case _K_instr: {
            return self.instr(v.Ref, off)
        }
        default: {
            return nil, utils.EBadTag(off, "operand", int(v.Kind))
        }
    }
}

func (self *_Builder) instr(ref int64, off int) (ir.Value, error) {
    if ref < 0 || ref >= int64(len(self.defs)) {
        return nil, utils.EFormat(off, fmt.Sprintf("instruction index %d out of range", ref))
    }

    /* already defined */
    if i := int(ref); i < len(self.ins) {
        return self.ins[i], nil
    }

    /* forward reference, replaced once the definition is built */
    if p, ok := self.fwd[int(ref)]; ok {
        return p, nil
    }

    /* check the type of the definition */
    t, ok := typeOf(self.defs[ref].Type)
    if !ok {
        return nil, utils.EBadTag(off, "type", int(self.defs[ref].Type))
    }

    /* create the placeholder */
    p := self.m.NewInstr(ir.OpInvalid, t)
    self.fwd[int(ref)] = p
    return p, nil
}

func (self *_Builder) function(fn *ir.Function, f *_Function) error {
    self.f = f
    self.fn = fn
    self.ins = self.ins[:0]
    self.defs = self.defs[:0]
    self.fwd = make(map[int]*ir.Instr)

    /* create every block and collect the instructions */
    for i := range f.Blocks {
        fn.NewBlock(f.Blocks[i].Name)
        for j := range f.Blocks[i].Ins {
            self.defs = append(self.defs, &f.Blocks[i].Ins[j])
        }
    }

    /* build the instructions in order */
    for i, bb := range fn.Blocks {
        for j := range f.Blocks[i].Ins {
            if p, err := self.build(&f.Blocks[i].Ins[j]); err != nil {
                return err
            } else {
                bb.Append(p)
            }
        }
    }
    return nil
}

func (self *_Builder) build(v *_Instr) (*ir.Instr, error) {
    var ops []ir.Value
    op := ir.Op(v.Op)

    /* operation */
    if v.Op < 0 || v.Op > 255 || !op.IsValid() {
        return nil, utils.EBadTag(v.off, "opcode", int(v.Op))
    }

    /* result type */
    t, ok := typeOf(v.Type)
    if !ok {
        return nil, utils.EBadTag(v.off, "type", int(v.Type))
    }

    /* allocated type and predicate */
    alloc, ok := typeOf(v.Alloc)
    if !ok {
        return nil, utils.EBadTag(v.off, "type", int(v.Alloc))
    } else if pred := ir.CmpPred(uint8(v.Pred)); !pred.IsValid() {
        return nil, utils.EBadTag(v.off, "predicate", int(v.Pred))
    }

    /* resolve the operands */
    for _, x := range v.Ops {
        if val, err := self.value(x, v.off); err != nil {
            return nil, err
        } else {
            ops = append(ops, val)
        }
    }

    /* create the instruction */
    p := self.m.NewInstr(op, t, ops...)
    p.Name = v.Name
    p.Pred = ir.CmpPred(uint8(v.Pred))
    p.Alloc = alloc
    p.Volatile = v.Volatile

    /* resolve the forward references to it */
    id := len(self.ins)
    self.ins = append(self.ins, p)
    if fp, ok := self.fwd[id]; ok {
        fp.ReplaceAllUsesWith(p)
        delete(self.fwd, id)
    }
    return p, nil
}

// Decode parses the binary form of a module.
func Decode(buf []byte) (*ir.Module, error) {
    var mod _Module
    if !IsBitcode(buf) {
        return nil, utils.EFormat(0, "bad magic")
    } else if len(buf) <= len(Magic) || buf[len(Magic)] != Version {
        return nil, utils.EFormat(len(Magic), "unsupported version")
    }

    /* the thrift payload */
    mm := thrift.NewTMemoryBuffer()
    mm.Write(buf[len(Magic) + 1:])
    rd := &_Reader {
        p    : thrift.NewTBinaryProtocolTransport(mm),
        mm   : mm,
        size : len(buf),
    }

    /* decode the whole module */
    if err := mod.Read(rd); err != nil {
        return nil, utils.EFormat(rd.offset(), err.Error())
    }

    /* create the functions first, calls may refer to any of them */
    m := ir.NewModule(mod.Name)
    for i := range mod.Funcs {
        f := &mod.Funcs[i]
        args := make([]ir.Type, len(f.Params))

        /* return type */
        ret, ok := typeOf(f.Ret)
        if !ok {
            return nil, utils.EBadTag(f.off, "type", int(f.Ret))
        }

        /* parameter types */
        for j, a := range f.Params {
            if args[j], ok = typeOf(a.Type); !ok {
                return nil, utils.EBadTag(f.off, "type", int(a.Type))
            }
        }

        /* create the function */
        fn := m.NewFunction(f.Name, ret, args...)
        fn.Variadic = f.Variadic
        for j, a := range f.Params {
            fn.Params[j].Name = a.Name
        }
    }

    /* then the bodies */
    b := &_Builder { m: m }
    for i, fn := range m.Funcs {
        if err := b.function(fn, &mod.Funcs[i]); err != nil {
            return nil, err
        } else if len(b.fwd) != 0 {
            return nil, utils.EFormat(mod.Funcs[i].off, "unresolved instruction reference in " + fn.Name)
        }
    }
    return m, nil
}

// Load reads the binary module stored at path.
func Load(path string) (*ir.Module, error) {
    if buf, err := os.ReadFile(path); err != nil {
        return nil, err
    } else {
        return Decode(buf)
    }
}
