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
    `math`

    `github.com/cloudwego/iropt/ir`
)

func intconst(v ir.Value) (*ir.Const, bool) {
    c, ok := v.(*ir.Const)
    return c, ok && c.IsInt()
}

func floatconst(v ir.Value) (*ir.Const, bool) {
    c, ok := v.(*ir.Const)
    return c, ok && c.IsFloat()
}

// sval is the signed value of an integer constant, i1 true is -1.
func sval(c *ir.Const) int64 {
    if c.T == ir.I1 {
        return -c.Int()
    } else {
        return c.Int()
    }
}

func minsigned(t ir.Type) int64 {
    return -1 << (t.Bits() - 1)
}

func foldint(m *ir.Module, op ir.Op, t ir.Type, x *ir.Const, y *ir.Const) ir.Value {
    var r int64
    switch op {
        case ir.OpAdd : r = x.Int() + y.Int()
        case ir.OpSub : r = x.Int() - y.Int()
        case ir.OpMul : r = x.Int() * y.Int()
        case ir.OpAnd : r = x.Int() & y.Int()
        case ir.OpOr  : r = x.Int() | y.Int()
        case ir.OpXor : r = x.Int() ^ y.Int()

        /* division by zero and signed overflow are left alone */
        case ir.OpUDiv: {
            if y.Uint() == 0 { return nil }
            r = int64(x.Uint() / y.Uint())
        }
        case ir.OpURem: {
            if y.Uint() == 0 { return nil }
            r = int64(x.Uint() % y.Uint())
        }
        case ir.OpSDiv: {
            if a, b := sval(x), sval(y); b == 0 || (b == -1 && a == minsigned(t)) {
                return nil
            } else {
                r = a / b
            }
        }
        case ir.OpSRem: {
            if a, b := sval(x), sval(y); b == 0 || (b == -1 && a == minsigned(t)) {
                return nil
            } else {
                r = a % b
            }
        }

        /* over-wide shifts are poison */
        case ir.OpShl: {
            if y.Uint() >= uint64(t.Bits()) { return nil }
            r = x.Int() << y.Uint()
        }
        case ir.OpLShr: {
            if y.Uint() >= uint64(t.Bits()) { return nil }
            r = int64(x.Uint() >> y.Uint())
        }
        case ir.OpAShr: {
            if y.Uint() >= uint64(t.Bits()) { return nil }
            r = sval(x) >> y.Uint()
        }

        /* not an integer operator */
        default: {
            return nil
        }
    }
    return m.ConstInt(t, r)
}

func foldfloat(m *ir.Module, op ir.Op, t ir.Type, x float64, y float64) ir.Value {
    switch op {
        case ir.OpFAdd : return m.ConstFloat(t, x + y)
        case ir.OpFSub : return m.ConstFloat(t, x - y)
        case ir.OpFMul : return m.ConstFloat(t, x * y)
        case ir.OpFDiv : return m.ConstFloat(t, x / y)
        case ir.OpFRem : return m.ConstFloat(t, math.Mod(x, y))
        default        : return nil
    }
}

func evalicmp(pred ir.CmpPred, x *ir.Const, y *ir.Const) (bool, bool) {
    switch pred {
        case ir.CmpEq  : return x.Uint() == y.Uint(), true
        case ir.CmpNe  : return x.Uint() != y.Uint(), true
        case ir.CmpUgt : return x.Uint() >  y.Uint(), true
        case ir.CmpUge : return x.Uint() >= y.Uint(), true
        case ir.CmpUlt : return x.Uint() <  y.Uint(), true
        case ir.CmpUle : return x.Uint() <= y.Uint(), true
        case ir.CmpSgt : return sval(x) >  sval(y), true
        case ir.CmpSge : return sval(x) >= sval(y), true
        case ir.CmpSlt : return sval(x) <  sval(y), true
        case ir.CmpSle : return sval(x) <= sval(y), true
        default        : return false, false
    }
}

// reflexive reports the result of comparing a value with itself.
func reflexive(pred ir.CmpPred) (bool, bool) {
    switch pred {
        case ir.CmpEq, ir.CmpUge, ir.CmpUle, ir.CmpSge, ir.CmpSle : return true, true
        case ir.CmpNe, ir.CmpUgt, ir.CmpUlt, ir.CmpSgt, ir.CmpSlt : return false, true
        default                                                   : return false, false
    }
}

func evalfcmp(pred ir.CmpPred, x float64, y float64) (bool, bool) {
    if math.IsNaN(x) || math.IsNaN(y) {
        return false, pred >= ir.CmpOeq && pred <= ir.CmpOle
    }
    switch pred {
        case ir.CmpOeq : return x == y, true
        case ir.CmpOne : return x != y, true
        case ir.CmpOgt : return x >  y, true
        case ir.CmpOge : return x >= y, true
        case ir.CmpOlt : return x <  y, true
        case ir.CmpOle : return x <= y, true
        default        : return false, false
    }
}

func fptoint(m *ir.Module, t ir.Type, f float64, signed bool) ir.Value {
    if math.IsNaN(f) || math.IsInf(f, 0) || !t.IsInt() {
        return nil
    }

    /* out of range conversions are poison */
    v := math.Trunc(f)
    n := int(t.Bits())

    /* check the range of the target type */
    if signed {
        if v < -math.Ldexp(1, n - 1) || v >= math.Ldexp(1, n - 1) {
            return nil
        } else {
            return m.ConstInt(t, int64(v))
        }
    } else {
        if v < 0 || v >= math.Ldexp(1, n) {
            return nil
        } else {
            return m.ConstInt(t, int64(uint64(v)))
        }
    }
}

func foldcast(m *ir.Module, op ir.Op, t ir.Type, v ir.Value) ir.Value {
    if c, ok := intconst(v); ok && (t.IsInt() || t == ir.Ptr) {
        switch op {
            case ir.OpTrunc    : return m.ConstInt(t, c.Int())
            case ir.OpZExt     : return m.ConstInt(t, int64(c.Uint()))
            case ir.OpSExt     : return m.ConstInt(t, sval(c))
            case ir.OpPtrToInt : return m.ConstInt(t, int64(c.Uint()))
            case ir.OpIntToPtr : return m.ConstInt(t, int64(c.Uint()))
        }
    }

    /* integer to floating-point */
    if c, ok := intconst(v); ok && t.IsFloat() {
        switch op {
            case ir.OpUIToFP : return m.ConstFloat(t, float64(c.Uint()))
            case ir.OpSIToFP : return m.ConstFloat(t, float64(sval(c)))
        }
    }

    /* floating-point sources */
    if c, ok := floatconst(v); ok {
        switch op {
            case ir.OpFPToSI  : return fptoint(m, t, c.Float(), true)
            case ir.OpFPToUI  : return fptoint(m, t, c.Float(), false)
            case ir.OpFPTrunc : if t.IsFloat() { return m.ConstFloat(t, c.Float()) }
            case ir.OpFPExt   : if t.IsFloat() { return m.ConstFloat(t, c.Float()) }
        }
    }
    return nil
}
