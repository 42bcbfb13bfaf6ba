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
    `github.com/oleiade/lane`
)

// BlockIter walks the reachable blocks of a dominator tree in post-order.
type BlockIter struct {
    t *DominatorTree
    b *BasicBlock
    s *lane.Stack
    v map[int]struct{}
}

// NewBlockIter creates an iterator over dt.
func NewBlockIter(dt *DominatorTree) *BlockIter {
    ret := &BlockIter {
        t: dt,
        s: lane.NewStack(),
        v: make(map[int]struct{}),
    }

    /* declarations have no blocks */
    if dt.Root != nil {
        ret.s.Push(dt.Root)
        ret.v[dt.Root.Id] = struct{}{}
    }
    return ret
}

func (self *BlockIter) Next() bool {
    var tail bool
    var this *BasicBlock

    /* scan until the stack is empty */
    for !self.s.Empty() {
        tail = true
        this = self.s.Head().(*BasicBlock)

        /* add all the children */
        for _, p := range self.t.Children(this) {
            if _, ok := self.v[p.Id]; !ok {
                tail = false
                self.v[p.Id] = struct{}{}
                self.s.Push(p)
                break
            }
        }

        /* all the children are visited, pop the current node */
        if tail {
            self.b = self.s.Pop().(*BasicBlock)
            return true
        }
    }

    /* clear the basic block pointer to indicate no more blocks */
    self.b = nil
    return false
}

func (self *BlockIter) Block() *BasicBlock {
    return self.b
}

func (self *BlockIter) ForEach(action func(bb *BasicBlock)) {
    for self.Next() {
        action(self.b)
    }
}

// Reversed drains the iterator and returns the blocks with every dominator placed before
// the blocks it dominates.
func (self *BlockIter) Reversed() []*BasicBlock {
    var ret []*BasicBlock
    for self.Next() {
        ret = append(ret, self.b)
    }
    for i, j := 0, len(ret) - 1; i < j; i, j = i + 1, j - 1 {
        ret[i], ret[j] = ret[j], ret[i]
    }
    return ret
}
