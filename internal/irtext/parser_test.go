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

package irtext

import (
    `os`
    `path/filepath`
    `strings`
    `testing`

    `github.com/cloudwego/iropt`
    `github.com/cloudwego/iropt/ir`
    `github.com/stretchr/testify/require`
)

const loopModule = `
; ModuleID = 'loop'

define i32 @sum(i32 %n, ptr %p) {
entry:
  %acc = alloca i32
  store i32 0, ptr %acc
  br label %loop

loop:
  %i = phi i32 [ 0, %entry ], [ %next, %body ]
  %done = icmp sge i32 %i, %n
  br i1 %done, label %exit, label %body

body:
  %0 = load i32, ptr %acc
  %1 = add i32 %0, %i
  store volatile i32 %1, ptr %acc
  %next = add i32 %i, 1
  %2 = call i32 @ext(i32 %next, double 1.5)
  br label %loop

exit:
  %r = load i32, ptr %acc
  %q = getelementptr ptr %p, i64 -1
  %s = select i1 %done, i32 %r, i32 -7
  %f = sitofp i32 %s to float
  %g = fneg float %f
  %h = fcmp olt float %g, +Inf
  %z = zext i1 %h to i32
  ret i32 %z
}

declare i32 @ext(i32, double, ...)

define void @nothing() {
entry:
  ret void
}
`

func TestParse_RoundTrip(t *testing.T) {
    m, err := Parse("unused", loopModule)
    require.NoError(t, err)
    require.Equal(t, "loop", m.Name)
    require.NoError(t, ir.VerifyModule(m))
    require.Equal(t, strings.TrimLeft(loopModule, "\n"), m.String())

    /* printing the parsed module again is stable */
    m2, err := Parse("", m.String())
    require.NoError(t, err)
    require.Equal(t, m.String(), m2.String())
}

func TestParse_ForwardReference(t *testing.T) {
    m, err := Parse("test", loopModule)
    require.NoError(t, err)
    fn := m.Lookup("sum")
    require.NotNil(t, fn)
    phi := fn.Blocks[1].Ins[0]
    require.Equal(t, ir.OpPhi, phi.Op)
    next := phi.IncomingValue(1).(*ir.Instr)
    require.Equal(t, "next", next.Name)
    require.Equal(t, ir.OpAdd, next.Op)
    require.Contains(t, next.Users(), phi)
}

func TestParse_Declarations(t *testing.T) {
    m, err := Parse("test", loopModule)
    require.NoError(t, err)
    ext := m.Lookup("ext")
    require.True(t, ext.IsDeclaration())
    require.True(t, ext.Variadic)
    require.Len(t, ext.Params, 2)
    require.Equal(t, ir.F64, ext.Params[1].T)
}

func TestParse_ParamNames(t *testing.T) {
    m, err := Parse("test", `
define i32 @first(i32 %x, i32 %y) {
entry:
  %r = sub i32 %y, %x
  ret i32 %r
}

define i32 @second(i32 %y) {
entry:
  %r = call i32 @first(i32 %y, i32 1)
  ret i32 %r
}`)
    require.NoError(t, err)
    require.NoError(t, ir.VerifyModule(m))

    /* each body resolves names against its own parameters */
    first := m.Lookup("first")
    sub := first.Blocks[0].Ins[0]
    require.Equal(t, first.Params[1], sub.Operand(0))
    require.Equal(t, first.Params[0], sub.Operand(1))
    second := m.Lookup("second")
    call := second.Blocks[0].Ins[0]
    require.Equal(t, []ir.Value { second.Params[0], m.ConstInt(ir.I32, 1) }, call.Args())
}

func TestParse_ImplicitEntryAndNumbers(t *testing.T) {
    m, err := Parse("test", `
define i64 @f(i64 %0) {
  %1 = mul i64 %0, 2
  br label %2
2:
  ret i64 %1
}`)
    require.NoError(t, err)
    fn := m.Lookup("f")
    require.Len(t, fn.Blocks, 2)
    require.Equal(t, "", fn.Blocks[0].Name)
    require.Equal(t, "", fn.Params[0].Name)
    require.NoError(t, ir.Verify(fn))
    require.Contains(t, fn.String(), "%2 = mul i64 %0, 2")
}

func TestParse_Errors(t *testing.T) {
    cases := map[string]string {
        "undefined value"    : "define i32 @f() {\nentry:\n  ret i32 %x\n}",
        "undefined label"    : "define void @f() {\nentry:\n  br label %nowhere\n}",
        "unknown instruction": "define void @f() {\nentry:\n  frobnicate void\n}",
        "unknown type"       : "define i7 @f() {\n}",
        "redefinition"       : "declare void @f()\ndeclare void @f()",
        "type mismatch"      : "define i32 @f(i32 %a) {\nentry:\n  %b = add i64 %a, 1\n  ret i32 %b\n}",
        "unterminated body"  : "define void @f() {\nentry:\n  ret void\n",
        "bad character"      : "define void @f() {\nentry:\n  ret void ~\n}",
    }
    for name, src := range cases {
        _, err := Parse("test", src)
        require.Error(t, err, name)
        require.IsType(t, iropt.SyntaxError{}, err, name)
    }
}

func TestParse_ErrorLine(t *testing.T) {
    _, err := Parse("test", "define i32 @f() {\nentry:\n  ret i32 %x\n}")
    require.Error(t, err)
    require.Equal(t, 3, err.(iropt.SyntaxError).Line)
}

func TestSaveLoad(t *testing.T) {
    m, err := Parse("test", loopModule)
    require.NoError(t, err)
    fn := filepath.Join(t.TempDir(), "loop.ll")
    require.NoError(t, Save(fn, m))
    buf, err := os.ReadFile(fn)
    require.NoError(t, err)
    require.Equal(t, m.String(), string(buf))
    m2, err := Load(fn)
    require.NoError(t, err)
    require.Equal(t, m.String(), m2.String())
}
