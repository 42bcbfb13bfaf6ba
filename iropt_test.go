/*
 * Copyright 2022 CloudWeGo Authors
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

package iropt_test

import (
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/iropt"
	"github.com/cloudwego/iropt/internal/irgen"
	"github.com/cloudwego/iropt/internal/irtext"
	"github.com/cloudwego/iropt/ir"
)

const incSource = `
define i32 @inc(i32 %x) {
entry:
  %y = add i32 %x, 1
  ret i32 %y
}

define i32 @main(i32 %a) {
entry:
  %u = add i32 %a, 0
  %0 = call i32 @inc(i32 %u)
  %1 = call i32 @inc(i32 %u)
  %2 = add i32 %0, %1
  ret i32 %2
}
`

func parse(t *testing.T, src string) *ir.Module {
	m, err := irtext.Parse("test", src)
	require.NoError(t, err)
	return m
}

func TestOptimize(t *testing.T) {
	m := parse(t, incSource)
	ret, err := iropt.Optimize(m, iropt.WithHeuristic(false), iropt.WithGrowthFactor(20))
	require.NoError(t, err)
	t.Log(spew.Sdump(ret))
	require.Equal(t, iropt.Result{
		PreOpt: iropt.OptStats{Simplified: 1},
		Inline: iropt.InlineStats{
			Inlined:     2,
			InstrBefore: 6,
			InstrAfter:  10,
			SizeRatio:   10.0 / 6.0,
		},
		InstrBeforeOpt:   7,
		InstrPreInline:   6,
		InstrAfterInline: 10,
		InstrPostOpt:     10,
	}, ret)
	for _, bb := range m.Lookup("main").Blocks {
		for _, p := range bb.Ins {
			require.False(t, p.IsCall(), "call left in %s", bb.Name)
		}
	}
}

func TestOptimize_WithoutStage(t *testing.T) {
	m := parse(t, incSource)
	ret, err := iropt.Optimize(m, iropt.WithoutStage(iropt.StageInline), iropt.WithoutStage(iropt.StageSimplify))
	require.NoError(t, err)
	require.Zero(t, ret.Inline.Inlined)
	require.Zero(t, ret.PreOpt.Simplified)
	require.Equal(t, 7, ret.InstrPreInline)
	require.Equal(t, ret.InstrPreInline, ret.InstrAfterInline)
	require.Equal(t, 7, ret.InstrPostOpt)
}

func TestOptimize_NothingEnabled(t *testing.T) {
	m := parse(t, incSource)
	text := m.String()
	ret, err := iropt.Optimize(m,
		iropt.WithoutStage(iropt.StagePreOpt),
		iropt.WithoutStage(iropt.StageInline),
		iropt.WithoutStage(iropt.StagePostOpt),
	)
	require.NoError(t, err)
	require.Equal(t, text, m.String())
	require.Equal(t, iropt.Result{
		InstrBeforeOpt:   7,
		InstrPreInline:   7,
		InstrAfterInline: 7,
		InstrPostOpt:     7,
	}, ret)
}

func TestOptimize_VerifyErrors(t *testing.T) {
	m := ir.NewModule("broken")
	fn := m.NewFunction("f", ir.I32)
	ir.NewBuilder(m).SetBlock(fn.NewBlock("entry")).Binary(ir.OpAdd, m.ConstInt(ir.I32, 1), m.ConstInt(ir.I32, 2))

	/* the unterminated block is reported */
	_, err := iropt.Optimize(m,
		iropt.WithoutStage(iropt.StagePreOpt),
		iropt.WithoutStage(iropt.StageInline),
		iropt.WithoutStage(iropt.StagePostOpt),
	)
	require.Error(t, err)
	errs, ok := err.(iropt.VerifyErrors)
	require.True(t, ok)
	require.Equal(t, iropt.VerifyError{Func: "f", Block: "entry", Reason: "block is not terminated"}, errs[0])

	/* unless checking is disabled */
	_, err = iropt.Optimize(m,
		iropt.WithoutStage(iropt.StagePreOpt),
		iropt.WithoutStage(iropt.StageInline),
		iropt.WithoutStage(iropt.StagePostOpt),
		iropt.WithoutStage(iropt.StageCheck),
	)
	require.NoError(t, err)
}

func TestOptimize_Random(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		m := irgen.Generate(seed, irgen.DefaultConfig)
		ret, err := iropt.Optimize(m, iropt.WithGrowthFactor(3))
		require.NoError(t, err, "seed %d", seed)
		require.LessOrEqual(t, ret.InstrAfterInline, 3*ret.InstrPreInline, "seed %d", seed)
		require.LessOrEqual(t, ret.InstrPostOpt, ret.InstrAfterInline, "seed %d", seed)
		require.Equal(t, ret.InstrPostOpt, m.NumInstructions())
	}
}

func TestOptions_Invalid(t *testing.T) {
	require.Panics(t, func() { iropt.WithSizeLimit(-1) })
	require.Panics(t, func() { iropt.WithGrowthFactor(-1) })
	require.Panics(t, func() { iropt.WithGrowthFactor(math.NaN()) })
	require.NotPanics(t, func() { iropt.WithGrowthFactor(1.5) })
	require.Panics(t, func() { iropt.WithoutStage(iropt.Stage(99)) })
	require.NotPanics(t, func() { iropt.WithSizeLimit(0) })
	require.NotPanics(t, func() { iropt.WithGrowthFactor(0) })
}

func TestStage_Names(t *testing.T) {
	for s := iropt.StageDCE; s <= iropt.StageCheck; s++ {
		v, err := iropt.ParseStage(s.String())
		require.NoError(t, err)
		require.Equal(t, s, v)
	}
	_, err := iropt.ParseStage("mem2reg")
	require.Error(t, err)
	require.Equal(t, "stage(42)", iropt.Stage(42).String())
}

func TestSetDefaults(t *testing.T) {
	old := iropt.SetSizeLimit(7)
	require.Equal(t, 7, iropt.SetSizeLimit(old))
	oldFactor := iropt.SetGrowthFactor(3)
	require.Equal(t, 3.0, iropt.SetGrowthFactor(oldFactor))
}
