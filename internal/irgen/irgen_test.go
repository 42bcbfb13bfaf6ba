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

package irgen

import (
    `testing`

    `github.com/cloudwego/iropt/ir`
    `github.com/stretchr/testify/require`
)

func TestGenerate_Valid(t *testing.T) {
    for seed := int64(0); seed < 50; seed++ {
        m := Generate(seed, DefaultConfig)
        require.NoError(t, ir.VerifyModule(m), "seed %d", seed)
        require.Len(t, m.Funcs, DefaultConfig.Funcs + 1)
    }
}

func TestGenerate_Deterministic(t *testing.T) {
    require.Equal(t, Generate(42, DefaultConfig).String(), Generate(42, DefaultConfig).String())
    require.NotEqual(t, Generate(1, DefaultConfig).String(), Generate(2, DefaultConfig).String())
}

func TestGenerate_NoCalls(t *testing.T) {
    m := Generate(7, Config { Funcs: 2, Diamonds: 1, Instrs: 30 })
    for _, fn := range m.Funcs[1:] {
        for _, bb := range fn.Blocks {
            for _, p := range bb.Ins {
                if p.IsCall() {
                    require.Equal(t, "ext", p.Callee().Name)
                }
            }
        }
    }
}
