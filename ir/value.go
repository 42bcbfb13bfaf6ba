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
    `math`
    `strconv`
)

// Value is anything an instruction can read as an operand.
type Value interface {
    Type() Type
    irvalue()
}

func (*Instr)      irvalue() {}
func (*Param)      irvalue() {}
func (*Const)      irvalue() {}
func (*Function)   irvalue() {}
func (*BasicBlock) irvalue() {}

// usable is implemented by the values that keep a use-set.
type usable interface {
    Value
    addUser(p *Instr)
    delUser(p *Instr)
}

type _UseList struct {
    users []*Instr
}

func (self *_UseList) addUser(p *Instr) {
    self.users = append(self.users, p)
}

func (self *_UseList) delUser(p *Instr) {
    for i, v := range self.users {
        if v == p {
            self.users = append(self.users[:i], self.users[i + 1:]...)
            return
        }
    }
    panic("ir: removing a user that was never recorded")
}

// Users returns the instructions that read this value, one entry per operand slot.
func (self *_UseList) Users() []*Instr {
    return self.users
}

// HasUsers reports whether anything still reads this value.
func (self *_UseList) HasUsers() bool {
    return len(self.users) != 0
}

// Param is a formal parameter of a function.
type Param struct {
    _UseList
    Name  string
    Index int
    Func  *Function
    T     Type
}

func (self *Param) Type() Type {
    return self.T
}

type _ConstKind uint8

const (
    _C_int _ConstKind = iota
    _C_float
    _C_undef
)

// Const is an immutable constant. Constants are uniqued per module, so two operands refer
// to the same constant iff they are the same pointer.
type Const struct {
    T    Type
    kind _ConstKind
    iv   int64
    fv   float64
}

type _ConstKey struct {
    t Type
    k _ConstKind
    v uint64
}

func (self *Const) Type() Type {
    return self.T
}

// IsInt reports whether this is an integer (or pointer) constant.
func (self *Const) IsInt() bool {
    return self.kind == _C_int
}

// IsFloat reports whether this is a floating-point constant.
func (self *Const) IsFloat() bool {
    return self.kind == _C_float
}

// IsUndef reports whether this is the undefined value of its type.
func (self *Const) IsUndef() bool {
    return self.kind == _C_undef
}

// Int returns the sign-extended integer value.
func (self *Const) Int() int64 {
    return self.iv
}

// Uint returns the integer value zero-extended from its bit width.
func (self *Const) Uint() uint64 {
    return zeroext(self.iv, self.T)
}

// Float returns the floating-point value.
func (self *Const) Float() float64 {
    return self.fv
}

func (self *Const) String() string {
    switch self.kind {
        case _C_undef: {
            return "undef"
        }
        case _C_float: {
            return strconv.FormatFloat(self.fv, 'g', -1, 64)
        }
        default: {
            if self.T == Ptr && self.iv == 0 {
                return "null"
            } else if self.T == I1 {
                return strconv.FormatBool(self.iv != 0)
            } else {
                return strconv.FormatInt(self.iv, 10)
            }
        }
    }
}

// signext truncates v to the width of t and sign-extends it back, i1 stays 0 or 1.
func signext(v int64, t Type) int64 {
    switch t {
        case I1  : return v & 1
        case I8  : return int64(int8(v))
        case I16 : return int64(int16(v))
        case I32 : return int64(int32(v))
        default  : return v
    }
}

func zeroext(v int64, t Type) uint64 {
    switch t {
        case I1  : return uint64(v) & 1
        case I8  : return uint64(uint8(v))
        case I16 : return uint64(uint16(v))
        case I32 : return uint64(uint32(v))
        default  : return uint64(v)
    }
}

func roundfloat(v float64, t Type) float64 {
    if t == F32 {
        return float64(float32(v))
    } else {
        return v
    }
}

func (self *Module) intern(key _ConstKey, c *Const) *Const {
    if v, ok := self.consts[key]; ok {
        return v
    }
    self.consts[key] = c
    return c
}

// ConstInt returns the uniqued integer constant v of type t, truncated to its width.
func (self *Module) ConstInt(t Type, v int64) *Const {
    v = signext(v, t)
    return self.intern(_ConstKey{t: t, k: _C_int, v: uint64(v)}, &Const{T: t, kind: _C_int, iv: v})
}

// ConstBool returns the i1 constant for b.
func (self *Module) ConstBool(b bool) *Const {
    if b {
        return self.ConstInt(I1, 1)
    } else {
        return self.ConstInt(I1, 0)
    }
}

// ConstFloat returns the uniqued floating-point constant v of type t.
func (self *Module) ConstFloat(t Type, v float64) *Const {
    v = roundfloat(v, t)
    return self.intern(_ConstKey{t: t, k: _C_float, v: math.Float64bits(v)}, &Const{T: t, kind: _C_float, fv: v})
}

// Null returns the null pointer constant.
func (self *Module) Null() *Const {
    return self.ConstInt(Ptr, 0)
}

// Undef returns the undefined value of type t.
func (self *Module) Undef(t Type) *Const {
    return self.intern(_ConstKey{t: t, k: _C_undef}, &Const{T: t, kind: _C_undef})
}

// IsConst reports whether v is a constant. Functions and labels are not constants here.
func IsConst(v Value) bool {
    _, ok := v.(*Const)
    return ok
}
