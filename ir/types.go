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
)

// Type is the type of an IR value.
type Type uint8

const (
    Void Type = iota
    I1
    I8
    I16
    I32
    I64
    F32
    F64
    Ptr
    Label
)

var _TypeNames = [...]string {
    Void  : "void",
    I1    : "i1",
    I8    : "i8",
    I16   : "i16",
    I32   : "i32",
    I64   : "i64",
    F32   : "float",
    F64   : "double",
    Ptr   : "ptr",
    Label : "label",
}

func (self Type) String() string {
    if int(self) < len(_TypeNames) {
        return _TypeNames[self]
    } else {
        return fmt.Sprintf("type(%d)", uint8(self))
    }
}

// IsValid reports whether the type is one of the known types.
func (self Type) IsValid() bool {
    return int(self) < len(_TypeNames)
}

// IsInt reports whether the type is one of the integer types.
func (self Type) IsInt() bool {
    return self >= I1 && self <= I64
}

// IsFloat reports whether the type is one of the floating-point types.
func (self Type) IsFloat() bool {
    return self == F32 || self == F64
}

// Bits returns the bit width of integer types, 0 for everything else.
func (self Type) Bits() uint {
    switch self {
        case I1  : return 1
        case I8  : return 8
        case I16 : return 16
        case I32 : return 32
        case I64 : return 64
        default  : return 0
    }
}

// LookupType maps a type name back to the Type, used by the loaders.
func LookupType(name string) (Type, bool) {
    for i, v := range _TypeNames {
        if v == name {
            return Type(i), true
        }
    }
    return 0, false
}

// Op is the operation kind of an instruction.
type Op uint8

const (
    OpInvalid Op = iota

    /* integer arithmetics */
    OpAdd
    OpSub
    OpMul
    OpUDiv
    OpSDiv
    OpURem
    OpSRem
    OpShl
    OpLShr
    OpAShr
    OpAnd
    OpOr
    OpXor

    /* floating-point arithmetics */
    OpFNeg
    OpFAdd
    OpFSub
    OpFMul
    OpFDiv
    OpFRem

    /* comparisons */
    OpICmp
    OpFCmp

    /* casts */
    OpTrunc
    OpZExt
    OpSExt
    OpFPToUI
    OpFPToSI
    OpUIToFP
    OpSIToFP
    OpFPTrunc
    OpFPExt
    OpPtrToInt
    OpIntToPtr
    OpBitCast

    /* memory */
    OpAlloca
    OpGEP
    OpLoad
    OpStore

    /* others */
    OpPhi
    OpSelect
    OpCall
    OpExtractElement
    OpInsertElement
    OpShuffleVector
    OpExtractValue
    OpInsertValue

    /* terminators */
    OpBr
    OpCondBr
    OpRet
    OpUnreachable

    _OpMax
)

const (
    _F_pure = 1 << iota
    _F_term
    _F_cast
    _F_binary
    _F_commutative
    _F_memory
)

type _OpInfo struct {
    name  string
    flags uint8
}

var _OpTab = [_OpMax]_OpInfo {
    OpAdd            : { "add"            , _F_pure | _F_binary | _F_commutative },
    OpSub            : { "sub"            , _F_pure | _F_binary },
    OpMul            : { "mul"            , _F_pure | _F_binary | _F_commutative },
    OpUDiv           : { "udiv"           , _F_pure | _F_binary },
    OpSDiv           : { "sdiv"           , _F_pure | _F_binary },
    OpURem           : { "urem"           , _F_pure | _F_binary },
    OpSRem           : { "srem"           , _F_pure | _F_binary },
    OpShl            : { "shl"            , _F_pure | _F_binary },
    OpLShr           : { "lshr"           , _F_pure | _F_binary },
    OpAShr           : { "ashr"           , _F_pure | _F_binary },
    OpAnd            : { "and"            , _F_pure | _F_binary | _F_commutative },
    OpOr             : { "or"             , _F_pure | _F_binary | _F_commutative },
    OpXor            : { "xor"            , _F_pure | _F_binary | _F_commutative },
    OpFNeg           : { "fneg"           , _F_pure },
    OpFAdd           : { "fadd"           , _F_pure | _F_binary | _F_commutative },
    OpFSub           : { "fsub"           , _F_pure | _F_binary },
    OpFMul           : { "fmul"           , _F_pure | _F_binary | _F_commutative },
    OpFDiv           : { "fdiv"           , _F_pure | _F_binary },
    OpFRem           : { "frem"           , _F_pure | _F_binary },
    OpICmp           : { "icmp"           , _F_pure },
    OpFCmp           : { "fcmp"           , _F_pure },
    OpTrunc          : { "trunc"          , _F_pure | _F_cast },
    OpZExt           : { "zext"           , _F_pure | _F_cast },
    OpSExt           : { "sext"           , _F_pure | _F_cast },
    OpFPToUI         : { "fptoui"         , _F_pure | _F_cast },
    OpFPToSI         : { "fptosi"         , _F_pure | _F_cast },
    OpUIToFP         : { "uitofp"         , _F_pure | _F_cast },
    OpSIToFP         : { "sitofp"         , _F_pure | _F_cast },
    OpFPTrunc        : { "fptrunc"        , _F_pure | _F_cast },
    OpFPExt          : { "fpext"          , _F_pure | _F_cast },
    OpPtrToInt       : { "ptrtoint"       , _F_pure | _F_cast },
    OpIntToPtr       : { "inttoptr"       , _F_pure | _F_cast },
    OpBitCast        : { "bitcast"        , _F_pure | _F_cast },
    OpAlloca         : { "alloca"         , _F_pure },
    OpGEP            : { "getelementptr"  , _F_pure },
    OpLoad           : { "load"           , _F_memory },
    OpStore          : { "store"          , _F_memory },
    OpPhi            : { "phi"            , _F_pure },
    OpSelect         : { "select"         , _F_pure },
    OpCall           : { "call"           , _F_memory },
    OpExtractElement : { "extractelement" , _F_pure },
    OpInsertElement  : { "insertelement"  , _F_pure },
    OpShuffleVector  : { "shufflevector"  , _F_pure },
    OpExtractValue   : { "extractvalue"   , _F_pure },
    OpInsertValue    : { "insertvalue"    , _F_pure },
    OpBr             : { "br"             , _F_term },
    OpCondBr         : { "br"             , _F_term },
    OpRet            : { "ret"            , _F_term },
    OpUnreachable    : { "unreachable"    , _F_term },
}

func (self Op) String() string {
    if self < _OpMax && _OpTab[self].name != "" {
        return _OpTab[self].name
    } else {
        return fmt.Sprintf("op(%d)", uint8(self))
    }
}

// IsValid reports whether the operation is one of the known operations.
func (self Op) IsValid() bool {
    return self > OpInvalid && self < _OpMax && _OpTab[self].name != ""
}

// IsPure reports whether the operation has no observable side effect.
func (self Op) IsPure() bool {
    return self < _OpMax && _OpTab[self].flags & _F_pure != 0
}

// IsTerminator reports whether the operation ends a basic block.
func (self Op) IsTerminator() bool {
    return self < _OpMax && _OpTab[self].flags & _F_term != 0
}

// IsCast reports whether the operation is a single-operand conversion.
func (self Op) IsCast() bool {
    return self < _OpMax && _OpTab[self].flags & _F_cast != 0
}

// IsBinary reports whether the operation is a two-operand arithmetic or bitwise operation.
func (self Op) IsBinary() bool {
    return self < _OpMax && _OpTab[self].flags & _F_binary != 0
}

// IsCommutative reports whether the operands of a binary operation can be swapped.
func (self Op) IsCommutative() bool {
    return self < _OpMax && _OpTab[self].flags & _F_commutative != 0
}

// LookupOp maps an instruction mnemonic back to the Op. "br" always maps to OpBr, the
// loaders decide between OpBr and OpCondBr by the operands.
func LookupOp(name string) (Op, bool) {
    for i, v := range _OpTab {
        if v.name == name {
            return Op(i), true
        }
    }
    return OpInvalid, false
}

// CmpPred is the predicate of an icmp or fcmp instruction.
type CmpPred uint8

const (
    CmpNone CmpPred = iota
    CmpEq
    CmpNe
    CmpUgt
    CmpUge
    CmpUlt
    CmpUle
    CmpSgt
    CmpSge
    CmpSlt
    CmpSle
    CmpOeq
    CmpOne
    CmpOgt
    CmpOge
    CmpOlt
    CmpOle
    _CmpMax
)

var _CmpNames = [...]string {
    CmpNone : "",
    CmpEq   : "eq",
    CmpNe   : "ne",
    CmpUgt  : "ugt",
    CmpUge  : "uge",
    CmpUlt  : "ult",
    CmpUle  : "ule",
    CmpSgt  : "sgt",
    CmpSge  : "sge",
    CmpSlt  : "slt",
    CmpSle  : "sle",
    CmpOeq  : "oeq",
    CmpOne  : "one",
    CmpOgt  : "ogt",
    CmpOge  : "oge",
    CmpOlt  : "olt",
    CmpOle  : "ole",
}

func (self CmpPred) String() string {
    if self < _CmpMax {
        return _CmpNames[self]
    } else {
        return fmt.Sprintf("pred(%d)", uint8(self))
    }
}

// IsValid reports whether the predicate is one of the known predicates.
func (self CmpPred) IsValid() bool {
    return self < _CmpMax
}

// LookupCmpPred maps a predicate name back to the CmpPred.
func LookupCmpPred(name string) (CmpPred, bool) {
    for i, v := range _CmpNames {
        if v == name && i != int(CmpNone) {
            return CmpPred(i), true
        }
    }
    return CmpNone, false
}
