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
    `github.com/cloudwego/iropt/internal/opts`
    `github.com/cloudwego/iropt/ir`
    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/require`
)

const pipelineSource = `
define i32 @f(ptr %p, i32 %a) {
entry:
  %dead = mul i32 %a, 3
  %x = add i32 %a, 0
  %y = add i32 %a, %a
  %z = add i32 %x, %a
  %l1 = load i32, ptr %p
  %l2 = load i32, ptr %p
  %s = sub i32 %l1, %l2
  store i32 %s, ptr %p
  store i32 %y, ptr %p
  %l3 = load i32, ptr %p
  %r = add i32 %z, %l3
  %r2 = add i32 %r, %s
  ret i32 %r2
}

declare i32 @g(i32)`

func TestPipeline_Run(t *testing.T) {
    m := parse(t, pipelineSource)
    st := opt.Run(m, opts.Options{})
    t.Log(spew.Sdump(st))
    require.Equal(t, opt.Stats {
        Dead          : 1,
        Simplified    : 3,
        CSEMerged     : 1,
        LoadsElim     : 1,
        StoresElim    : 1,
        Store2LoadFwd : 1,
    }, st)
    require.Equal(t, 8, st.Total())
    requireIR(t, `
define i32 @f(ptr %p, i32 %a) {
entry:
  %y = add i32 %a, %a
  %l1 = load i32, ptr %p
  store i32 %y, ptr %p
  %r = add i32 %y, %y
  ret i32 %r
}
`, m.Funcs[0])
    require.True(t, m.Funcs[1].IsDeclaration())
}

func TestPipeline_DisabledStages(t *testing.T) {
    m := parse(t, pipelineSource)
    st := opt.Run(m, opts.Options {
        NoCSE       : true,
        NoStoreElim : true,
    })
    require.Zero(t, st.CSEMerged)
    require.Zero(t, st.StoresElim)
    require.Zero(t, st.Store2LoadFwd)
    require.Equal(t, 1, st.Dead)
    require.Equal(t, 1, st.LoadsElim)
    require.NoError(t, ir.Verify(m.Funcs[0]))
}

func TestPipeline_NothingEnabled(t *testing.T) {
    m := parse(t, pipelineSource)
    before := m.String()
    st := opt.Run(m, opts.Options {
        NoDCE       : true,
        NoSimplify  : true,
        NoCSE       : true,
        NoLoadElim  : true,
        NoStoreElim : true,
    })
    require.Equal(t, opt.Stats{}, st)
    require.Equal(t, before, m.String())
}

func TestStats_Add(t *testing.T) {
    a := opt.Stats { Dead: 1, Simplified: 2, CSEMerged: 3 }
    a.Add(opt.Stats { Dead: 1, LoadsElim: 4, StoresElim: 5, Store2LoadFwd: 6 })
    require.Equal(t, opt.Stats {
        Dead          : 2,
        Simplified    : 2,
        CSEMerged     : 3,
        LoadsElim     : 4,
        StoresElim    : 5,
        Store2LoadFwd : 6,
    }, a)
    require.Equal(t, 22, a.Total())
}
