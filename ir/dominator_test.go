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

func TestDominatorTree_Diamond(t *testing.T) {
    m := NewModule("test")
    d := newDiamond(m)
    dt := BuildDominatorTree(d.fn)
    require.Equal(t, d.entry, dt.Root)
    require.Equal(t, []*BasicBlock { d.then, d.els, d.join }, dt.Children(d.entry))
    require.Equal(t, d.entry, dt.Idom(d.join))
    require.Nil(t, dt.Idom(d.entry))

    /* reflexive, transitive, not symmetric */
    require.True(t, dt.Dominates(d.then, d.then))
    require.True(t, dt.Dominates(d.entry, d.join))
    require.False(t, dt.Dominates(d.then, d.join))
    require.False(t, dt.Dominates(d.join, d.entry))

    /* instruction level */
    require.True(t, InstrDominates(dt, d.entry.Ins[0], d.x))
    require.False(t, InstrDominates(dt, d.x, d.y))
    require.False(t, InstrDominates(dt, d.then.Ins[1], d.x))
}

func TestDominatorTree_Loop(t *testing.T) {
    m := NewModule("test")
    fn := m.NewFunction("loop", Void, I1)
    entry := fn.NewBlock("entry")
    head := fn.NewBlock("head")
    body := fn.NewBlock("body")
    exit := fn.NewBlock("exit")
    dead := fn.NewBlock("dead")

    /* entry -> head <-> body, head -> exit, dead is unreachable */
    b := NewBuilder(m)
    b.SetBlock(entry).Br(head)
    b.SetBlock(head).CondBr(fn.Params[0], body, exit)
    b.SetBlock(body).Br(head)
    b.SetBlock(exit).Ret()
    b.SetBlock(dead).Br(exit)

    /* check the tree */
    dt := BuildDominatorTree(fn)
    require.Equal(t, head, dt.Idom(body))
    require.Equal(t, head, dt.Idom(exit))
    require.Equal(t, []*BasicBlock { body, exit }, dt.Children(head))
    require.True(t, dt.Dominates(entry, body))
    require.False(t, dt.Dominates(body, exit))

    /* unreachable blocks are dominated only by themselves */
    require.False(t, dt.Reachable(dead))
    require.True(t, dt.Dominates(dead, dead))
    require.False(t, dt.Dominates(entry, dead))
    require.False(t, dt.Dominates(dead, exit))
    require.NoError(t, Verify(fn))
}

func TestBlockIter_Reversed(t *testing.T) {
    m := NewModule("test")
    d := newDiamond(m)
    bbs := NewBlockIter(BuildDominatorTree(d.fn)).Reversed()
    require.Len(t, bbs, 4)
    require.Equal(t, d.entry, bbs[0])
    require.ElementsMatch(t, []*BasicBlock { d.then, d.els, d.join }, bbs[1:])
}

func TestDominatorTree_Declaration(t *testing.T) {
    m := NewModule("test")
    dt := BuildDominatorTree(m.NewFunction("ext", Void))
    require.Nil(t, dt.Root)
    require.False(t, NewBlockIter(dt).Next())
}
