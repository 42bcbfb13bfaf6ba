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
    `bytes`
    `strings`
    `testing`

    `github.com/stretchr/testify/require`
)

func TestPrinter_Module(t *testing.T) {
    m := NewModule("test")
    newDiamond(m)
    ext := m.NewFunction("ext", I32, Ptr)
    ext.Variadic = true
    require.Equal(t, strings.TrimLeft(`
; ModuleID = 'test'

define i32 @diamond(i32 %a) {
entry:
  %0 = icmp slt i32 %a, 10
  br i1 %0, label %then, label %else

then:
  %1 = add i32 %a, 1
  br label %join

else:
  %2 = sub i32 %a, 1
  br label %join

join:
  %3 = phi i32 [ %1, %then ], [ %2, %else ]
  ret i32 %3
}

declare i32 @ext(ptr, ...)
`, "\n"), m.String())
}

func TestPrinter_Instructions(t *testing.T) {
    m := NewModule("test")
    ext := m.NewFunction("ext", I32, I32)
    fn := m.NewFunction("f", F64, I32, I1)
    fn.Params[0].Name = "a"
    fn.Params[1].Name = "c"

    /* one of each syntax */
    b := NewBuilder(m).SetBlock(fn.NewBlock("entry"))
    p := b.Alloca(I32)
    p.Name = "p"
    b.StoreVolatile(fn.Params[0], p)
    v := b.Load(I32, p)
    r := b.Call(ext, I32, v)
    b.Cast(OpSExt, r, I64)
    b.GEP(p, m.ConstInt(I64, 1))
    b.Select(fn.Params[1], fn.Params[0], m.ConstInt(I32, -2))
    b.Ret(b.FNeg(b.Cast(OpSIToFP, fn.Params[0], F64)))

    /* check the rendering */
    var buf bytes.Buffer
    require.NoError(t, FprintFunc(&buf, fn))
    require.Equal(t, strings.TrimLeft(`
define double @f(i32 %a, i1 %c) {
entry:
  %p = alloca i32
  store volatile i32 %a, ptr %p
  %0 = load i32, ptr %p
  %1 = call i32 @ext(i32 %0)
  %2 = sext i32 %1 to i64
  %3 = getelementptr ptr %p, i64 1
  %4 = select i1 %c, i32 %a, i32 -2
  %5 = sitofp i32 %a to double
  %6 = fneg double %5
  ret double %6
}
`, "\n"), buf.String())
    require.NoError(t, Verify(fn))
}

func TestPrinter_DuplicateNames(t *testing.T) {
    m := NewModule("test")
    fn := m.NewFunction("f", I32, I32)
    fn.Params[0].Name = "x"
    b := NewBuilder(m).SetBlock(fn.NewBlock("x"))
    p := b.Binary(OpAdd, fn.Params[0], fn.Params[0])
    p.Name = "x"
    b.Ret(p)
    require.Equal(t, "%x.2 = add i32 %x, %x", p.String())
    require.Contains(t, fn.String(), "x.1:\n")
}

func TestWriteDot(t *testing.T) {
    m := NewModule("test")
    d := newDiamond(m)
    var buf bytes.Buffer
    require.NoError(t, WriteDot(&buf, d.fn))
    out := buf.String()
    require.True(t, strings.HasPrefix(out, "digraph CFG {"))
    require.Contains(t, out, "# idom_of = {%then, %else, %join}")
    require.Contains(t, out, `label = "true"`)
    require.Contains(t, out, `label = "goto"`)
    require.Error(t, WriteDot(&buf, m.NewFunction("ext", Void)))
}
