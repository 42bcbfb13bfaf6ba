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

package opt_test

import (
    `testing`

    `github.com/cloudwego/iropt/internal/opt`
    `github.com/cloudwego/iropt/ir`
    `github.com/stretchr/testify/require`
)

func simplify(fn *ir.Function) int {
    return opt.SimplifyFunc(fn, ir.BuildDominatorTree(fn))
}

func TestSimplify_Identities(t *testing.T) {
    fn := function(t, `
define i32 @f(i32 %a, i32 %b) {
entry:
  %0 = add i32 %a, 0
  %1 = mul i32 1, %0
  %2 = sub i32 %1, %1
  %3 = or i32 %b, %2
  %4 = and i32 %3, -1
  %5 = xor i32 %4, %4
  %6 = shl i32 %b, %5
  %7 = udiv i32 %6, 1
  %8 = srem i32 %a, 1
  %9 = add i32 %7, %8
  ret i32 %9
}`)
    require.Equal(t, 10, simplify(fn))
    requireIR(t, `
define i32 @f(i32 %a, i32 %b) {
entry:
  ret i32 %b
}
`, fn)
    require.Equal(t, 0, simplify(fn))
}

func TestSimplify_ConstantFolding(t *testing.T) {
    fn := function(t, `
define i1 @f() {
entry:
  %x = add i8 100, 100
  %y = sdiv i8 %x, -2
  %z = lshr i8 %x, 4
  %c = icmp ult i8 %y, %z
  %d = icmp slt i8 %x, 0
  %e = or i1 %c, %d
  ret i1 %e
}`)
    require.Equal(t, 6, simplify(fn))
    requireIR(t, `
define i1 @f() {
entry:
  ret i1 true
}
`, fn)
}

func TestSimplify_NoFolding(t *testing.T) {
    fn := function(t, `
define i32 @f(i32 %a) {
entry:
  %0 = udiv i32 7, 0
  %1 = sdiv i32 -2147483648, -1
  %2 = shl i32 1, 32
  %3 = add i32 %0, %1
  %4 = add i32 %3, %2
  %5 = fptosi double 1e+20 to i32
  %6 = add i32 %4, %5
  ret i32 %6
}`)
    require.Equal(t, 0, simplify(fn))
}

func TestSimplify_Floats(t *testing.T) {
    fn := function(t, `
define i1 @f(double %x) {
entry:
  %0 = fadd double 1.5, 2.5
  %1 = fneg double %0
  %2 = fptosi double %1 to i32
  %3 = sitofp i32 %2 to float
  %4 = fcmp olt float %3, 0
  %5 = fadd double %x, 0
  %6 = fcmp oeq double NaN, 1
  %7 = or i1 %4, %6
  ret i1 %7
}`)
    require.Equal(t, 7, simplify(fn))
    requireIR(t, `
define i1 @f(double %x) {
entry:
  %0 = fadd double %x, 0
  ret i1 true
}
`, fn)
}

func TestSimplify_SelectCastGep(t *testing.T) {
    fn := function(t, `
define ptr @f(i1 %c, i32 %a, ptr %p) {
entry:
  %0 = select i1 %c, i32 %a, i32 %a
  %1 = select i1 false, i32 7, i32 %0
  %2 = bitcast i32 %1 to i32
  %3 = getelementptr ptr %p, i64 0, i32 0
  %4 = getelementptr ptr %3, i32 %2
  ret ptr %4
}`)
    require.Equal(t, 4, simplify(fn))
    requireIR(t, `
define ptr @f(i1 %c, i32 %a, ptr %p) {
entry:
  %0 = getelementptr ptr %p, i32 %a
  ret ptr %0
}
`, fn)
}

func TestSimplify_Phi(t *testing.T) {
    fn := function(t, `
define i32 @f(i1 %c, i32 %a) {
entry:
  %x = add i32 %a, 1
  br label %pre

pre:
  %y = add i32 %a, 2
  br i1 %c, label %l, label %r

l:
  br label %j

r:
  br label %j

j:
  %p = phi i32 [ %a, %l ], [ %a, %r ]
  %q = phi i32 [ %x, %l ], [ %x, %r ]
  %s = phi i32 [ %y, %l ], [ %y, %r ]
  %t = add i32 %p, %q
  %u = add i32 %t, %s
  ret i32 %u
}`)
    require.Equal(t, 2, simplify(fn))
    join := fn.Blocks[4]
    require.Len(t, join.Ins, 4)
    require.Equal(t, "%s = phi i32 [ %y, %l ], [ %y, %r ]", join.Ins[0].String())
    require.Equal(t, "%t = add i32 %a, %x", join.Ins[1].String())
    require.NoError(t, ir.Verify(fn))
}

func TestSimplify_LoopPhi(t *testing.T) {
    fn := function(t, `
define i32 @f(i32 %a) {
entry:
  br label %loop

loop:
  %i = phi i32 [ %a, %entry ], [ %i, %loop ]
  %c = icmp eq i32 %i, %i
  br i1 %c, label %exit, label %loop

exit:
  ret i32 %i
}`)
    require.Equal(t, 2, simplify(fn))
    requireIR(t, `
define i32 @f(i32 %a) {
entry:
  br label %loop

loop:
  br i1 true, label %exit, label %loop

exit:
  ret i32 %a
}
`, fn)
    require.Equal(t, 0, simplify(fn))
}
