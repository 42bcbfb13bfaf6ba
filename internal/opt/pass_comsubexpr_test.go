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

const cseSource = `
define i32 @f(i32 %a, i32 %b, i1 %c) {
entry:
  %x = add i32 %a, %b
  %y = add i32 %a, %b
  %z = add i32 %b, %a
  %k = icmp slt i32 %x, %y
  br i1 %c, label %l, label %r

l:
  %u = add i32 %a, %b
  %m = mul i32 %a, %b
  br label %deep

deep:
  %g = add i32 %a, %b
  %d = mul i32 %a, %b
  %e = add i32 %u, %d
  br label %j

r:
  %v = mul i32 %a, %b
  br label %j

j:
  %n = phi i32 [ %e, %deep ], [ %v, %r ]
  %n2 = phi i32 [ %e, %deep ], [ %v, %r ]
  %w = add i32 %a, %b
  %s = add i32 %n, %w
  %s2 = add i32 %s, %n2
  %t = add i32 %s2, %z
  %kk = zext i1 %k to i32
  %o = add i32 %t, %kk
  ret i32 %o
}`

func TestCSE_DominatorTree(t *testing.T) {
    fn := function(t, cseSource)
    require.Equal(t, 5, opt.EliminateCommon(fn, ir.BuildDominatorTree(fn)))
    requireIR(t, `
define i32 @f(i32 %a, i32 %b, i1 %c) {
entry:
  %x = add i32 %a, %b
  %z = add i32 %b, %a
  %k = icmp slt i32 %x, %x
  br i1 %c, label %l, label %r

l:
  %m = mul i32 %a, %b
  br label %deep

deep:
  %g = add i32 %a, %b
  %e = add i32 %x, %m
  br label %j

r:
  %v = mul i32 %a, %b
  br label %j

j:
  %n = phi i32 [ %e, %deep ], [ %v, %r ]
  %s = add i32 %n, %x
  %s2 = add i32 %s, %n
  %t = add i32 %s2, %z
  %kk = zext i1 %k to i32
  %o = add i32 %t, %kk
  ret i32 %o
}
`, fn)
    require.Equal(t, 0, opt.EliminateCommon(fn, ir.BuildDominatorTree(fn)))
}

type flatDominance struct{}

func (flatDominance) Dominates(a *ir.BasicBlock, b *ir.BasicBlock) bool { return a == b }
func (flatDominance) Children(_ *ir.BasicBlock) []*ir.BasicBlock      { return nil }

func TestCSE_CustomDominance(t *testing.T) {
    fn := function(t, cseSource)
    require.Equal(t, 2, opt.EliminateCommon(fn, flatDominance{}))
    require.NoError(t, ir.Verify(fn))
    require.Len(t, fn.Blocks[0].Ins, 4)
    require.Len(t, fn.Blocks[1].Ins, 3)
}

func TestCSE_Excluded(t *testing.T) {
    fn := function(t, `
define i32 @f(ptr %p) {
entry:
  %s1 = alloca i32
  %s2 = alloca i32
  %l1 = load i32, ptr %p
  %l2 = load i32, ptr %p
  %c1 = call i32 @g()
  %c2 = call i32 @g()
  store i32 %l1, ptr %s1
  store i32 %l2, ptr %s2
  %r = add i32 %c1, %c2
  ret i32 %r
}

declare i32 @g()`)
    require.Equal(t, 0, opt.EliminateCommon(fn, ir.BuildDominatorTree(fn)))
}

func TestCSE_Predicates(t *testing.T) {
    fn := function(t, `
define i1 @f(i32 %a, i32 %b) {
entry:
  %0 = icmp slt i32 %a, %b
  %1 = icmp ult i32 %a, %b
  %2 = icmp slt i32 %a, %b
  %3 = and i1 %0, %1
  %4 = and i1 %3, %2
  ret i1 %4
}`)
    require.Equal(t, 1, opt.EliminateCommon(fn, ir.BuildDominatorTree(fn)))
    require.Equal(t, "%3 = and i1 %2, %0", fn.Blocks[0].Ins[3].String())
}
