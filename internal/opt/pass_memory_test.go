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
    `github.com/stretchr/testify/require`
)

func TestLoadElim_StoreBlocksForwarding(t *testing.T) {
    fn := function(t, `
define i32 @f(ptr %p, i32 %v) {
entry:
  %l1 = load i32, ptr %p
  store i32 %v, ptr %p
  %l2 = load i32, ptr %p
  %s = add i32 %l1, %l2
  ret i32 %s
}`)
    require.Equal(t, 0, opt.EliminateLoads(fn))
    dead, fwd := opt.EliminateStores(fn)
    require.Equal(t, 0, dead)
    require.Equal(t, 1, fwd)
    requireIR(t, `
define i32 @f(ptr %p, i32 %v) {
entry:
  %l1 = load i32, ptr %p
  store i32 %v, ptr %p
  %s = add i32 %l1, %v
  ret i32 %s
}
`, fn)
}

func TestLoadElim_SameBlock(t *testing.T) {
    fn := function(t, `
define i64 @f(ptr %p) {
entry:
  %l1 = load i32, ptr %p
  %g = getelementptr ptr %p, i64 1
  %l2 = load i32, ptr %p
  %l3 = load volatile i32, ptr %p
  %l4 = load i64, ptr %p
  %l5 = load i32, ptr %g
  call void @h()
  %l6 = load i32, ptr %p
  %0 = add i32 %l1, %l2
  %1 = add i32 %0, %l3
  %2 = add i32 %1, %l5
  %3 = add i32 %2, %l6
  %4 = sext i32 %3 to i64
  %5 = add i64 %4, %l4
  ret i64 %5
}

declare void @h()`)
    require.Equal(t, 1, opt.EliminateLoads(fn))
    require.Equal(t, "%0 = add i32 %l1, %l1", fn.Blocks[0].Ins[7].String())
    require.Equal(t, 0, opt.EliminateLoads(fn))
}

func TestLoadElim_BlockLocal(t *testing.T) {
    fn := function(t, `
define i32 @f(ptr %p) {
entry:
  %l1 = load i32, ptr %p
  br label %next

next:
  %l2 = load i32, ptr %p
  %s = add i32 %l1, %l2
  ret i32 %s
}`)
    require.Equal(t, 0, opt.EliminateLoads(fn))
}

func TestStoreElim_DeadStore(t *testing.T) {
    fn := function(t, `
define void @f(ptr %p, ptr %q, i32 %a, i32 %b) {
entry:
  store i32 %a, ptr %p
  store i32 %b, ptr %p
  store volatile i32 %a, ptr %q
  store i32 %b, ptr %q
  ret void
}`)
    dead, fwd := opt.EliminateStores(fn)
    require.Equal(t, 1, dead)
    require.Equal(t, 0, fwd)
    requireIR(t, `
define void @f(ptr %p, ptr %q, i32 %a, i32 %b) {
entry:
  store i32 %b, ptr %p
  store volatile i32 %a, ptr %q
  store i32 %b, ptr %q
  ret void
}
`, fn)
}

func TestStoreElim_ReadInBetween(t *testing.T) {
    fn := function(t, `
define i32 @f(ptr %p, ptr %q, i32 %a, i32 %b) {
entry:
  store i32 %a, ptr %p
  %x = load i32, ptr %q
  %y = load i64, ptr %p
  store i32 %b, ptr %p
  %z = trunc i64 %y to i32
  %r = add i32 %x, %z
  ret i32 %r
}`)
    dead, fwd := opt.EliminateStores(fn)
    require.Equal(t, 0, dead)
    require.Equal(t, 0, fwd)
    require.Len(t, fn.Blocks[0].Ins, 7)
}

func TestStoreElim_StopsAtCall(t *testing.T) {
    fn := function(t, `
define i32 @f(ptr %p, i32 %a, i32 %b) {
entry:
  store i32 %a, ptr %p
  call void @h(ptr %p)
  %x = load i32, ptr %p
  store i32 %b, ptr %p
  ret i32 %x
}

declare void @h(ptr)`)
    dead, fwd := opt.EliminateStores(fn)
    require.Equal(t, 0, dead)
    require.Equal(t, 0, fwd)
    require.Len(t, fn.Blocks[0].Ins, 5)
}

func TestStoreElim_VolatileLoad(t *testing.T) {
    fn := function(t, `
define i32 @f(ptr %p, i32 %a) {
entry:
  store i32 %a, ptr %p
  %x = load volatile i32, ptr %p
  store i32 %x, ptr %p
  ret i32 %x
}`)
    dead, fwd := opt.EliminateStores(fn)
    require.Equal(t, 0, dead)
    require.Equal(t, 0, fwd)
}
