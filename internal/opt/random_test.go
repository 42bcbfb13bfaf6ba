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

    `github.com/cloudwego/iropt/internal/irgen`
    `github.com/cloudwego/iropt/internal/opt`
    `github.com/cloudwego/iropt/internal/opts`
    `github.com/cloudwego/iropt/ir`
    `github.com/stretchr/testify/require`
)

func TestRandom_Soundness(t *testing.T) {
    var st opt.Stats
    for seed := int64(0); seed < 100; seed++ {
        m := irgen.Generate(seed, irgen.DefaultConfig)
        require.NoError(t, ir.VerifyModule(m), "seed %d", seed)
        st.Add(opt.Run(m, opts.Options{}))
        require.NoError(t, ir.VerifyModule(m), "seed %d", seed)
    }
    require.NotZero(t, st.Dead)
    require.NotZero(t, st.Simplified)
    require.NotZero(t, st.CSEMerged)
}

func TestRandom_PassesKeepDominance(t *testing.T) {
    passes := []func(fn *ir.Function) {
        func(fn *ir.Function) { opt.EliminateDeadCode(fn) },
        func(fn *ir.Function) { opt.SimplifyFunc(fn, ir.BuildDominatorTree(fn)) },
        func(fn *ir.Function) { opt.EliminateCommon(fn, ir.BuildDominatorTree(fn)) },
        func(fn *ir.Function) { opt.EliminateLoads(fn) },
        func(fn *ir.Function) { opt.EliminateStores(fn) },
    }
    for seed := int64(0); seed < 40; seed++ {
        for i, pass := range passes {
            m := irgen.Generate(seed, irgen.DefaultConfig)
            for _, fn := range m.Funcs[1:] {
                pass(fn)
                require.NoError(t, ir.Verify(fn), "seed %d, pass %d", seed, i)
            }
        }
    }
}

func TestRandom_Idempotence(t *testing.T) {
    for seed := int64(0); seed < 100; seed++ {
        m := irgen.Generate(seed, irgen.DefaultConfig)
        for _, fn := range m.Funcs[1:] {
            opt.EliminateDeadCode(fn)
            require.Zero(t, opt.EliminateDeadCode(fn), "seed %d", seed)
            dt := ir.BuildDominatorTree(fn)
            opt.SimplifyFunc(fn, dt)
            require.Zero(t, opt.SimplifyFunc(fn, dt), "seed %d", seed)
        }
    }
}
