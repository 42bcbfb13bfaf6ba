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
    `strings`
    `testing`

    `github.com/cloudwego/iropt/internal/irtext`
    `github.com/cloudwego/iropt/ir`
    `github.com/google/go-cmp/cmp`
    `github.com/stretchr/testify/require`
)

func parse(t *testing.T, src string) *ir.Module {
    m, err := irtext.Parse("test", src)
    require.NoError(t, err)
    require.NoError(t, ir.VerifyModule(m))
    return m
}

func function(t *testing.T, src string) *ir.Function {
    m := parse(t, src)
    require.NotEmpty(t, m.Funcs)
    return m.Funcs[0]
}

func requireIR(t *testing.T, want string, fn *ir.Function) {
    require.NoError(t, ir.Verify(fn))
    if diff := cmp.Diff(strings.TrimLeft(want, "\n"), fn.String()); diff != "" {
        t.Fatalf("unexpected IR (-want +got):\n%s", diff)
    }
}
