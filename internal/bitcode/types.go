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

package bitcode

import (
    `fmt`

    `github.com/apache/thrift/lib/go/thrift`
)

const (
    _K_instr int8 = iota
    _K_param
    _K_int
    _K_float
    _K_undef
    _K_func
    _K_block
)

type _Operand struct {
    Kind  int8
    Ref   int64
    Float float64
    Type  int8
}

type _Instr struct {
    Op       int32
    Type     int8
    Name     string
    Pred     int8
    Volatile bool
    Alloc    int8
    Ops      []_Operand
    off      int
}

type _Block struct {
    Name string
    Ins  []_Instr
    off  int
}

type _Param struct {
    Type int8
    Name string
}

type _Function struct {
    Name     string
    Ret      int8
    Params   []_Param
    Variadic bool
    Blocks   []_Block
    off      int
}

type _Module struct {
    Name  string
    Funcs []_Function
}

/** Field Helpers **/

type _Field struct {
    id int16
    tt thrift.TType
    fn func(p thrift.TProtocol) error
}

func writeStruct(p thrift.TProtocol, name string, fields ..._Field) error {
    if err := p.WriteStructBegin(name); err != nil {
        return err
    }

    /* write every field */
    for _, f := range fields {
        if err := p.WriteFieldBegin("", f.tt, f.id); err != nil {
            return err
        } else if err = f.fn(p); err != nil {
            return err
        } else if err = p.WriteFieldEnd(); err != nil {
            return err
        }
    }

    /* the stop marker */
    if err := p.WriteFieldStop(); err != nil {
        return err
    } else {
        return p.WriteStructEnd()
    }
}

func readStruct(p thrift.TProtocol, fields ..._Field) error {
    if _, err := p.ReadStructBegin(); err != nil {
        return err
    }

    /* read until the stop marker */
    for {
        _, tt, id, err := p.ReadFieldBegin()
        if err != nil {
            return err
        } else if tt == thrift.STOP {
            break
        }

        /* find the field */
        var fn func(p thrift.TProtocol) error
        for _, f := range fields {
            if f.id == id && f.tt == tt {
                fn = f.fn
                break
            }
        }

        /* unknown fields are skipped */
        if fn == nil {
            err = thrift.SkipDefaultDepth(p, tt)
        } else {
            err = fn(p)
        }

        /* close the field */
        if err != nil {
            return err
        } else if err = p.ReadFieldEnd(); err != nil {
            return err
        }
    }
    return p.ReadStructEnd()
}

func writeList(p thrift.TProtocol, n int, fn func(i int) error) error {
    if err := p.WriteListBegin(thrift.STRUCT, n); err != nil {
        return err
    }
    for i := 0; i < n; i++ {
        if err := fn(i); err != nil {
            return err
        }
    }
    return p.WriteListEnd()
}

func readList(p thrift.TProtocol, limit int, fn func() error) error {
    tt, n, err := p.ReadListBegin()
    if err != nil {
        return err
    }

    /* every element is a struct, and takes at least one byte */
    if tt != thrift.STRUCT {
        return fmt.Errorf("list of %s, want struct", tt)
    } else if n < 0 || n > limit {
        return fmt.Errorf("invalid list size %d", n)
    }

    /* read every element */
    for i := 0; i < n; i++ {
        if err = fn(); err != nil {
            return err
        }
    }
    return p.ReadListEnd()
}

func str(v *string) func(p thrift.TProtocol) error {
    return func(p thrift.TProtocol) (err error) { *v, err = p.ReadString(); return }
}

func i8(v *int8) func(p thrift.TProtocol) error {
    return func(p thrift.TProtocol) (err error) { *v, err = p.ReadByte(); return }
}

func boolean(v *bool) func(p thrift.TProtocol) error {
    return func(p thrift.TProtocol) (err error) { *v, err = p.ReadBool(); return }
}

/** Operand **/

func (self *_Operand) Write(p thrift.TProtocol) error {
    return writeStruct(p, "Operand",
        _Field { 1, thrift.BYTE   , func(p thrift.TProtocol) error { return p.WriteByte(self.Kind) } },
        _Field { 2, thrift.I64    , func(p thrift.TProtocol) error { return p.WriteI64(self.Ref) } },
        _Field { 3, thrift.DOUBLE , func(p thrift.TProtocol) error { return p.WriteDouble(self.Float) } },
        _Field { 4, thrift.BYTE   , func(p thrift.TProtocol) error { return p.WriteByte(self.Type) } },
    )
}

func (self *_Operand) Read(p thrift.TProtocol) error {
    return readStruct(p,
        _Field { 1, thrift.BYTE   , i8(&self.Kind) },
        _Field { 2, thrift.I64    , func(p thrift.TProtocol) (err error) { self.Ref, err = p.ReadI64(); return } },
        _Field { 3, thrift.DOUBLE , func(p thrift.TProtocol) (err error) { self.Float, err = p.ReadDouble(); return } },
        _Field { 4, thrift.BYTE   , i8(&self.Type) },
    )
}

/** Instr **/

func (self *_Instr) Write(p thrift.TProtocol) error {
    return writeStruct(p, "Instr",
        _Field { 1, thrift.I32    , func(p thrift.TProtocol) error { return p.WriteI32(self.Op) } },
        _Field { 2, thrift.BYTE   , func(p thrift.TProtocol) error { return p.WriteByte(self.Type) } },
        _Field { 3, thrift.STRING , func(p thrift.TProtocol) error { return p.WriteString(self.Name) } },
        _Field { 4, thrift.BYTE   , func(p thrift.TProtocol) error { return p.WriteByte(self.Pred) } },
        _Field { 5, thrift.BOOL   , func(p thrift.TProtocol) error { return p.WriteBool(self.Volatile) } },
        _Field { 6, thrift.BYTE   , func(p thrift.TProtocol) error { return p.WriteByte(self.Alloc) } },
        _Field { 7, thrift.LIST   , func(p thrift.TProtocol) error {
            return writeList(p, len(self.Ops), func(i int) error { return self.Ops[i].Write(p) })
        }},
    )
}

func (self *_Instr) Read(p thrift.TProtocol, limit int) error {
    return readStruct(p,
        _Field { 1, thrift.I32    , func(p thrift.TProtocol) (err error) { self.Op, err = p.ReadI32(); return } },
        _Field { 2, thrift.BYTE   , i8(&self.Type) },
        _Field { 3, thrift.STRING , str(&self.Name) },
        _Field { 4, thrift.BYTE   , i8(&self.Pred) },
        _Field { 5, thrift.BOOL   , boolean(&self.Volatile) },
        _Field { 6, thrift.BYTE   , i8(&self.Alloc) },
        _Field { 7, thrift.LIST   , func(p thrift.TProtocol) error {
            return readList(p, limit, func() error {
                self.Ops = append(self.Ops, _Operand{})
                return self.Ops[len(self.Ops) - 1].Read(p)
            })
        }},
    )
}

/** Block **/

func (self *_Block) Write(p thrift.TProtocol) error {
    return writeStruct(p, "Block",
        _Field { 1, thrift.STRING , func(p thrift.TProtocol) error { return p.WriteString(self.Name) } },
        _Field { 2, thrift.LIST   , func(p thrift.TProtocol) error {
            return writeList(p, len(self.Ins), func(i int) error { return self.Ins[i].Write(p) })
        }},
    )
}

func (self *_Block) Read(r *_Reader) error {
    return readStruct(r.p,
        _Field { 1, thrift.STRING , str(&self.Name) },
        _Field { 2, thrift.LIST   , func(p thrift.TProtocol) error {
            return readList(p, r.remaining(), func() error {
                self.Ins = append(self.Ins, _Instr { off: r.offset() })
                return self.Ins[len(self.Ins) - 1].Read(p, r.remaining())
            })
        }},
    )
}

/** Param **/

func (self *_Param) Write(p thrift.TProtocol) error {
    return writeStruct(p, "Param",
        _Field { 1, thrift.BYTE   , func(p thrift.TProtocol) error { return p.WriteByte(self.Type) } },
        _Field { 2, thrift.STRING , func(p thrift.TProtocol) error { return p.WriteString(self.Name) } },
    )
}

func (self *_Param) Read(p thrift.TProtocol) error {
    return readStruct(p,
        _Field { 1, thrift.BYTE   , i8(&self.Type) },
        _Field { 2, thrift.STRING , str(&self.Name) },
    )
}

/** Function **/

func (self *_Function) Write(p thrift.TProtocol) error {
    return writeStruct(p, "Function",
        _Field { 1, thrift.STRING , func(p thrift.TProtocol) error { return p.WriteString(self.Name) } },
        _Field { 2, thrift.BYTE   , func(p thrift.TProtocol) error { return p.WriteByte(self.Ret) } },
        _Field { 3, thrift.LIST   , func(p thrift.TProtocol) error {
            return writeList(p, len(self.Params), func(i int) error { return self.Params[i].Write(p) })
        }},
        _Field { 4, thrift.BOOL   , func(p thrift.TProtocol) error { return p.WriteBool(self.Variadic) } },
        _Field { 5, thrift.LIST   , func(p thrift.TProtocol) error {
            return writeList(p, len(self.Blocks), func(i int) error { return self.Blocks[i].Write(p) })
        }},
    )
}

func (self *_Function) Read(r *_Reader) error {
    return readStruct(r.p,
        _Field { 1, thrift.STRING , str(&self.Name) },
        _Field { 2, thrift.BYTE   , i8(&self.Ret) },
        _Field { 3, thrift.LIST   , func(p thrift.TProtocol) error {
            return readList(p, r.remaining(), func() error {
                self.Params = append(self.Params, _Param{})
                return self.Params[len(self.Params) - 1].Read(p)
            })
        }},
        _Field { 4, thrift.BOOL   , boolean(&self.Variadic) },
        _Field { 5, thrift.LIST   , func(p thrift.TProtocol) error {
            return readList(p, r.remaining(), func() error {
                self.Blocks = append(self.Blocks, _Block { off: r.offset() })
                return self.Blocks[len(self.Blocks) - 1].Read(r)
            })
        }},
    )
}

/** Module **/

func (self *_Module) Write(p thrift.TProtocol) error {
    return writeStruct(p, "Module",
        _Field { 1, thrift.STRING , func(p thrift.TProtocol) error { return p.WriteString(self.Name) } },
        _Field { 2, thrift.LIST   , func(p thrift.TProtocol) error {
            return writeList(p, len(self.Funcs), func(i int) error { return self.Funcs[i].Write(p) })
        }},
    )
}

func (self *_Module) Read(r *_Reader) error {
    return readStruct(r.p,
        _Field { 1, thrift.STRING , str(&self.Name) },
        _Field { 2, thrift.LIST   , func(p thrift.TProtocol) error {
            return readList(p, r.remaining(), func() error {
                self.Funcs = append(self.Funcs, _Function { off: r.offset() })
                return self.Funcs[len(self.Funcs) - 1].Read(r)
            })
        }},
    )
}
