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

/** This is an implementation of the Lengauer-Tarjan algorithm described in
 *  https://doi.org/10.1145%2F357062.357071
 */

package ir

import (
    `sort`

    `github.com/oleiade/lane`
)

// Dominance answers dominator-tree queries over the blocks of one function.
type Dominance interface {
    Dominates(a *BasicBlock, b *BasicBlock) bool
    Children(bb *BasicBlock) []*BasicBlock
}

type _LtNode struct {
    semi     int
    node     *BasicBlock
    dom      *_LtNode
    label    *_LtNode
    parent   *_LtNode
    ancestor *_LtNode
    pred     []*_LtNode
    bucket   map[*_LtNode]struct{}
}

type _LengauerTarjan struct {
    nodes  []*_LtNode
    vertex map[int]int
}

func newLengauerTarjan() *_LengauerTarjan {
    return &_LengauerTarjan {
        vertex: make(map[int]int),
    }
}

func (self *_LengauerTarjan) dfs(bb *BasicBlock) {
    i := len(self.nodes)
    self.vertex[bb.Id] = i

    /* create a new node */
    p := &_LtNode {
        semi   : i,
        node   : bb,
        bucket : make(map[*_LtNode]struct{}),
    }

    /* add to node list */
    p.label = p
    self.nodes = append(self.nodes, p)

    /* traverse the successors */
    for _, w := range bb.Succs() {
        idx, ok := self.vertex[w.Id]

        /* not visited yet */
        if !ok {
            self.dfs(w)
            idx = self.vertex[w.Id]
            self.nodes[idx].parent = p
        }

        /* add predecessors */
        q := self.nodes[idx]
        q.pred = append(q.pred, p)
    }
}

func (self *_LengauerTarjan) eval(p *_LtNode) *_LtNode {
    if p.ancestor == nil {
        return p
    } else {
        self.compress(p)
        return p.label
    }
}

func (self *_LengauerTarjan) link(p *_LtNode, q *_LtNode) {
    q.ancestor = p
}

func (self *_LengauerTarjan) compress(p *_LtNode) {
    if p.ancestor.ancestor != nil {
        self.compress(p.ancestor)
        if p.label.semi > p.ancestor.label.semi { p.label = p.ancestor.label }
        p.ancestor = p.ancestor.ancestor
    }
}

// DominatorTree is the dominator tree of a function. Blocks that are unreachable from the
// entry are not part of the tree and are dominated only by themselves.
type DominatorTree struct {
    Root        *BasicBlock
    DominatedBy map[int]*BasicBlock
    DominatorOf map[int][]*BasicBlock
    pre         map[int]int
    post        map[int]int
}

func minInt(a int, b int) int {
    if a < b {
        return a
    } else {
        return b
    }
}

// BuildDominatorTree computes the dominator tree of fn.
func BuildDominatorTree(fn *Function) *DominatorTree {
    ret := &DominatorTree {
        Root        : fn.Entry(),
        DominatedBy : make(map[int]*BasicBlock),
        DominatorOf : make(map[int][]*BasicBlock),
        pre         : make(map[int]int),
        post        : make(map[int]int),
    }

    /* declarations have nothing to dominate */
    if ret.Root == nil {
        return ret
    }

    /* Step 1: Carry out a depth-first search of the problem graph. Number the vertices
     * from 1 to n as they are reached during the search. Initialize the variables used
     * in succeeding steps. */
    lt := newLengauerTarjan()
    lt.dfs(ret.Root)

    /* perform Step 2 and Step 3 simultaneously */
    for i := len(lt.nodes) - 1; i > 0; i-- {
        p := lt.nodes[i]
        q := (*_LtNode)(nil)

        /* Step 2: Compute the semidominators of all vertices by applying Theorem 4.
         * Carry out the computation vertex by vertex in decreasing order by number. */
        for _, v := range p.pred {
            q = lt.eval(v)
            p.semi = minInt(p.semi, q.semi)
        }

        /* link the ancestor */
        lt.link(p.parent, p)
        lt.nodes[p.semi].bucket[p] = struct{}{}

        /* Step 3: Implicitly define the immediate dominator of each vertex by applying Corollary 1 */
        for v := range p.parent.bucket {
            if q = lt.eval(v); q.semi < v.semi {
                v.dom = q
            } else {
                v.dom = p.parent
            }
        }

        /* clear the bucket */
        for v := range p.parent.bucket {
            delete(p.parent.bucket, v)
        }
    }

    /* Step 4: Explicitly define the immediate dominator of each vertex, carrying out the
     * computation vertex by vertex in increasing order by number. */
    for _, p := range lt.nodes[1:] {
        if p.dom.node.Id != lt.nodes[p.semi].node.Id {
            p.dom = p.dom.dom
        }
    }

    /* map the dominator relations */
    for _, p := range lt.nodes[1:] {
        ret.DominatedBy[p.node.Id] = p.dom.node
        ret.DominatorOf[p.dom.node.Id] = append(ret.DominatorOf[p.dom.node.Id], p.node)
    }

    /* children are visited in function block order */
    order := make(map[int]int, len(fn.Blocks))
    for i, bb := range fn.Blocks {
        order[bb.Id] = i
    }

    /* sort the children */
    for _, v := range ret.DominatorOf {
        sort.Slice(v, func(i int, j int) bool {
            return order[v[i].Id] < order[v[j].Id]
        })
    }

    /* number the tree for constant time queries */
    ret.number()
    return ret
}

type _DomFrame struct {
    bb *BasicBlock
    ch int
}

func (self *DominatorTree) number() {
    seq := 0
    stk := lane.NewStack()
    stk.Push(&_DomFrame { bb: self.Root })
    self.pre[self.Root.Id] = seq

    /* iterative DFS, the pre and post numbers bracket every subtree */
    for !stk.Empty() {
        fp := stk.Head().(*_DomFrame)
        ch := self.DominatorOf[fp.bb.Id]

        /* descend into the next child */
        if fp.ch < len(ch) {
            bb := ch[fp.ch]
            fp.ch++
            seq++
            self.pre[bb.Id] = seq
            stk.Push(&_DomFrame { bb: bb })
            continue
        }

        /* all children done */
        seq++
        self.post[fp.bb.Id] = seq
        stk.Pop()
    }
}

// Reachable reports whether bb is reachable from the entry block.
func (self *DominatorTree) Reachable(bb *BasicBlock) bool {
    _, ok := self.pre[bb.Id]
    return ok
}

// Idom returns the immediate dominator of bb, nil for the root and unreachable blocks.
func (self *DominatorTree) Idom(bb *BasicBlock) *BasicBlock {
    return self.DominatedBy[bb.Id]
}

// Dominates reports whether every path from the entry to b passes through a. The relation
// is reflexive.
func (self *DominatorTree) Dominates(a *BasicBlock, b *BasicBlock) bool {
    if a == b {
        return true
    }

    /* unreachable blocks only dominate themselves */
    pa, ok1 := self.pre[a.Id]
    pb, ok2 := self.pre[b.Id]

    /* check for subtree inclusion */
    if !ok1 || !ok2 {
        return false
    } else {
        return pa <= pb && self.post[b.Id] <= self.post[a.Id]
    }
}

// Children returns the immediate dominator-tree children of bb, in function block order.
func (self *DominatorTree) Children(bb *BasicBlock) []*BasicBlock {
    return self.DominatorOf[bb.Id]
}

// InstrDominates reports whether the definition a is available at b. Within a block the
// earlier instruction dominates the later one.
func InstrDominates(dt Dominance, a *Instr, b *Instr) bool {
    if a.Block != b.Block {
        return dt.Dominates(a.Block, b.Block)
    }
    for _, p := range a.Block.Ins {
        switch p {
            case a : return true
            case b : return false
        }
    }
    return false
}
