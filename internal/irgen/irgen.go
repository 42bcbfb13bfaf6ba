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

// Package irgen generates random, well-formed IR modules. The generated code is valid SSA
// with a chain of diamonds per function, loads and stores through a few pointers, calls
// between the generated functions and plenty of redundancy for the optimizers to find.
package irgen

import (
    `fmt`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/cloudwego/iropt/ir`
)

// Config controls the shape of the generated module.
type Config struct {
    Funcs    int
    Diamonds int
    Instrs   int
    Calls    bool
}

// DefaultConfig is a small module that is still interesting to optimize.
var DefaultConfig = Config {
    Funcs    : 4,
    Diamonds : 2,
    Instrs   : 12,
    Calls    : true,
}

var _BinaryOps = []ir.Op {
    ir.OpAdd,
    ir.OpSub,
    ir.OpMul,
    ir.OpUDiv,
    ir.OpSDiv,
    ir.OpURem,
    ir.OpSRem,
    ir.OpShl,
    ir.OpLShr,
    ir.OpAShr,
    ir.OpAnd,
    ir.OpOr,
    ir.OpXor,
}

var _CmpPreds = []ir.CmpPred {
    ir.CmpEq,
    ir.CmpNe,
    ir.CmpUlt,
    ir.CmpUge,
    ir.CmpSlt,
    ir.CmpSgt,
}

type _Generator struct {
    f   *gofakeit.Faker
    m   *ir.Module
    b   *ir.Builder
    cfg Config
    ext *ir.Function
    fns []*ir.Function
}

// Generate builds a random module, the same seed always gives the same module.
func Generate(seed int64, cfg Config) *ir.Module {
    g := &_Generator {
        f   : gofakeit.New(seed),
        m   : ir.NewModule(fmt.Sprintf("random.%d", seed)),
        cfg : cfg,
    }

    /* the only external function */
    g.b = ir.NewBuilder(g.m)
    g.ext = g.m.NewFunction("ext", ir.I32, ir.I32)

    /* create the signatures first, calls may go anywhere */
    for i := 0; i < cfg.Funcs; i++ {
        fn := g.m.NewFunction(fmt.Sprintf("f%d", i), ir.I32, ir.I32, ir.I32, ir.Ptr)
        fn.Params[0].Name = "a"
        fn.Params[1].Name = "b"
        fn.Params[2].Name = "p"
        g.fns = append(g.fns, fn)
    }

    /* then the bodies */
    for _, fn := range g.fns {
        g.function(fn)
    }
    return g.m
}

func (self *_Generator) chance(n int) bool {
    return self.f.Number(0, n - 1) == 0
}

func (self *_Generator) constant() ir.Value {
    switch self.f.Number(0, 4) {
        case 0  : return self.m.ConstInt(ir.I32, 0)
        case 1  : return self.m.ConstInt(ir.I32, 1)
        case 2  : return self.m.ConstInt(ir.I32, -1)
        default : return self.m.ConstInt(ir.I32, int64(self.f.Number(-100, 100)))
    }
}

func (self *_Generator) pick(pool []ir.Value) ir.Value {
    if len(pool) == 0 || self.chance(4) {
        return self.constant()
    } else {
        return pool[self.f.Number(0, len(pool) - 1)]
    }
}

func (self *_Generator) pickPtr(ptrs []ir.Value) ir.Value {
    return ptrs[self.f.Number(0, len(ptrs) - 1)]
}

func (self *_Generator) function(fn *ir.Function) {
    bb := fn.NewBlock("entry")
    self.b.SetBlock(bb)

    /* a stack slot, the incoming pointer and a derived one */
    slot := self.b.Alloca(ir.I32)
    slot.Name = "slot"
    ptrs := []ir.Value { fn.Params[2], slot, self.b.GEP(fn.Params[2], self.m.ConstInt(ir.I64, 1)) }

    /* values defined on the dominating path */
    dom := []ir.Value { fn.Params[0], fn.Params[1] }
    self.b.Store(fn.Params[0], slot)
    dom = self.block(dom, ptrs)

    /* a chain of diamonds */
    for i := 0; i < self.cfg.Diamonds; i++ {
        l := fn.NewBlock(fmt.Sprintf("then%d", i))
        r := fn.NewBlock(fmt.Sprintf("else%d", i))
        j := fn.NewBlock(fmt.Sprintf("join%d", i))

        /* the condition */
        c := self.b.ICmp(_CmpPreds[self.f.Number(0, len(_CmpPreds) - 1)], self.pick(dom), self.pick(dom))
        self.b.CondBr(c, l, r)

        /* both arms see the dominating values only */
        self.b.SetBlock(l)
        lv := self.block(dom, ptrs)
        self.b.Br(j)
        self.b.SetBlock(r)
        rv := self.block(dom, ptrs)
        self.b.Br(j)

        /* merge one value from each arm */
        self.b.SetBlock(j)
        phi := self.b.Phi(ir.I32)
        phi.AddIncoming(self.pick(lv), l)
        phi.AddIncoming(self.pick(rv), r)
        dom = self.block(append(dom, phi), ptrs)
    }

    /* return something */
    self.b.Ret(self.pick(dom))
}

func (self *_Generator) block(pool []ir.Value, ptrs []ir.Value) []ir.Value {
    pool = append([]ir.Value(nil), pool...)
    for i := 0; i < self.cfg.Instrs; i++ {
        if v := self.instr(pool, ptrs); v != nil {
            pool = append(pool, v)
        }
    }
    return pool
}

func (self *_Generator) instr(pool []ir.Value, ptrs []ir.Value) ir.Value {
    switch self.f.Number(0, 11) {
        case 0, 1, 2, 3, 4: {
            return self.b.Binary(_BinaryOps[self.f.Number(0, len(_BinaryOps) - 1)], self.pick(pool), self.pick(pool))
        }
        case 5: {
            c := self.b.ICmp(_CmpPreds[self.f.Number(0, len(_CmpPreds) - 1)], self.pick(pool), self.pick(pool))
            return self.b.Select(c, self.pick(pool), self.pick(pool))
        }
        case 6: {
            if self.chance(8) {
                return self.b.LoadVolatile(ir.I32, self.pickPtr(ptrs))
            } else {
                return self.b.Load(ir.I32, self.pickPtr(ptrs))
            }
        }
        case 7: {
            if self.chance(8) {
                self.b.StoreVolatile(self.pick(pool), self.pickPtr(ptrs))
            } else {
                self.b.Store(self.pick(pool), self.pickPtr(ptrs))
            }
            return nil
        }
        case 8: {
            if !self.cfg.Calls || len(self.fns) == 0 || self.chance(2) {
                return self.b.Call(self.ext, ir.I32, self.pick(pool))
            } else {
                fn := self.fns[self.f.Number(0, len(self.fns) - 1)]
                return self.b.Call(fn, ir.I32, self.pick(pool), self.pick(pool), self.pickPtr(ptrs))
            }
        }
        case 9: {
            return self.duplicate(pool)
        }
        case 10: {
            return self.b.Cast(ir.OpSExt, self.b.Cast(ir.OpTrunc, self.pick(pool), ir.I8), ir.I32)
        }
        default: {
            if x := self.pick(pool); self.f.Bool() {
                return self.b.Binary(ir.OpAdd, x, self.m.ConstInt(ir.I32, 0))
            } else {
                return self.b.Binary(ir.OpMul, self.m.ConstInt(ir.I32, 1), x)
            }
        }
    }
}

// duplicate re-emits an arithmetic instruction that is already available.
func (self *_Generator) duplicate(pool []ir.Value) ir.Value {
    for i := len(pool) - 1; i >= 0; i-- {
        if p, ok := pool[i].(*ir.Instr); ok && p.Op.IsBinary() {
            return self.b.Binary(p.Op, p.Operand(0), p.Operand(1))
        }
    }
    return nil
}
