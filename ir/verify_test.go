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
    `testing`

    `github.com/stretchr/testify/require`
)

func verifyErrors(t *testing.T, fn *Function) VerifyErrors {
    err := Verify(fn)
    require.Error(t, err)
    require.IsType(t, VerifyErrors(nil), err)
    return err.(VerifyErrors)
}

func TestVerify_Valid(t *testing.T) {
    m := NewModule("test")
    newDiamond(m)
    m.NewFunction("ext", Void)
    require.NoError(t, VerifyModule(m))
}

func TestVerify_Unterminated(t *testing.T) {
    m := NewModule("test")
    d := newDiamond(m)
    d.then.Ins[1].Erase()
    errs := verifyErrors(t, d.fn)
    require.Equal(t, "then", errs[0].Block)
    require.Contains(t, errs[0].Reason, "not terminated")
}

func TestVerify_NotDominated(t *testing.T) {
    m := NewModule("test")
    d := newDiamond(m)
    p := m.NewInstr(OpMul, I32, d.x, d.x)
    d.els.InsertAt(0, p)
    errs := verifyErrors(t, d.fn)
    require.Len(t, errs, 2)
    require.Equal(t, "diamond", errs[0].Func)
    require.Equal(t, "else", errs[0].Block)
    require.Contains(t, errs[0].Error(), "is not dominated by its operand %1")
}

func TestVerify_PhiMismatch(t *testing.T) {
    m := NewModule("test")
    d := newDiamond(m)
    d.phi.SetOperand(3, d.then)
    errs := verifyErrors(t, d.fn)
    require.Equal(t, "join", errs[0].Block)
    require.Contains(t, errs.Error(), "does not match the predecessor")
}

func TestVerify_ErasedOperand(t *testing.T) {
    m := NewModule("test")
    d := newDiamond(m)
    dead := m.NewInstr(OpAdd, I32, d.fn.Params[0], d.fn.Params[0])
    d.then.InsertAt(0, m.NewInstr(OpAdd, I32, dead, dead))
    require.Contains(t, verifyErrors(t, d.fn).Error(), "references an erased or foreign instruction")
}

func TestVerify_ReturnType(t *testing.T) {
    m := NewModule("test")
    fn := m.NewFunction("f", I32)
    NewBuilder(m).SetBlock(fn.NewBlock("entry")).Ret(m.ConstInt(I64, 0))
    require.Contains(t, verifyErrors(t, fn).Error(), "return type mismatch")
}

func TestVerify_EntryWithPredecessors(t *testing.T) {
    m := NewModule("test")
    fn := m.NewFunction("f", Void)
    entry := fn.NewBlock("entry")
    NewBuilder(m).SetBlock(entry).Br(entry)
    require.Contains(t, verifyErrors(t, fn).Error(), "entry block has predecessors")
}
