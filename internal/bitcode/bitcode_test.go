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

package bitcode

import (
    `path/filepath`
    `testing`

    `github.com/apache/thrift/lib/go/thrift`
    `github.com/cloudwego/iropt`
    `github.com/cloudwego/iropt/internal/irgen`
    `github.com/cloudwego/iropt/internal/irtext`
    `github.com/cloudwego/iropt/ir`
    `github.com/stretchr/testify/require`
)

const sample = `
; ModuleID = 'sample'

define i32 @f(i32 %n, ptr %p) {
entry:
  %acc = alloca i32
  br label %loop

loop:
  %i = phi i32 [ 0, %entry ], [ %next, %loop ]
  %x = load volatile i32, ptr %p
  store i32 %x, ptr %acc
  %next = add i32 %i, 1
  %c = icmp slt i32 %next, %n
  %d = fcmp ogt double 2.5, -0
  %u = select i1 %d, ptr null, ptr %p
  br i1 %c, label %loop, label %exit

exit:
  %r = call i32 @g(i32 %i, float undef)
  ret i32 %r
}

declare i32 @g(i32, float, ...)
`

func TestBitcode_RoundTrip(t *testing.T) {
    m, err := irtext.Parse("", sample)
    require.NoError(t, err)
    buf, err := Encode(m)
    require.NoError(t, err)
    require.True(t, IsBitcode(buf))
    m2, err := Decode(buf)
    require.NoError(t, err)
    require.NoError(t, ir.VerifyModule(m2))
    require.Equal(t, m.String(), m2.String())
}

func TestBitcode_RandomRoundTrip(t *testing.T) {
    for seed := int64(0); seed < 20; seed++ {
        m := irgen.Generate(seed, irgen.DefaultConfig)
        buf, err := Encode(m)
        require.NoError(t, err)
        m2, err := Decode(buf)
        require.NoError(t, err, "seed %d", seed)
        require.Equal(t, m.String(), m2.String(), "seed %d", seed)
    }
}

func TestBitcode_SaveLoad(t *testing.T) {
    m, err := irtext.Parse("", sample)
    require.NoError(t, err)
    fn := filepath.Join(t.TempDir(), "sample.bc")
    require.NoError(t, Save(fn, m))
    m2, err := Load(fn)
    require.NoError(t, err)
    require.Equal(t, m.String(), m2.String())
}

func TestBitcode_BadHeader(t *testing.T) {
    _, err := Decode([]byte("LLVM"))
    require.IsType(t, iropt.FormatError{}, err)
    _, err = Decode([]byte("IRBC\x02"))
    require.IsType(t, iropt.FormatError{}, err)
    require.Equal(t, 4, err.(iropt.FormatError).Offset)
}

func TestBitcode_Truncated(t *testing.T) {
    m, err := irtext.Parse("", sample)
    require.NoError(t, err)
    buf, err := Encode(m)
    require.NoError(t, err)
    for _, n := range []int { 5, 10, len(buf) / 2, len(buf) - 1 } {
        _, err = Decode(buf[:n])
        require.Error(t, err, "length %d", n)
        require.IsType(t, iropt.FormatError{}, err, "length %d", n)
    }
}

func encodeRaw(t *testing.T, mod *_Module) []byte {
    mm := thrift.NewTMemoryBuffer()
    mm.WriteString(Magic)
    mm.WriteByte(Version)
    require.NoError(t, mod.Write(thrift.NewTBinaryProtocolTransport(mm)))
    return mm.Bytes()
}

func TestBitcode_BadTags(t *testing.T) {
    ret := func(op int32, ops ..._Operand) *_Module {
        return &_Module {
            Name  : "bad",
            Funcs : []_Function {{
                Name   : "f",
                Ret    : int8(ir.I32),
                Blocks : []_Block {{ Name: "entry", Ins: []_Instr {{ Op: op, Ops: ops }} }},
            }},
        }
    }

    /* unknown opcode */
    _, err := Decode(encodeRaw(t, ret(250)))
    require.IsType(t, iropt.FormatError{}, err)
    require.Contains(t, err.Error(), "invalid opcode tag 250")

    /* unknown operand kind */
    _, err = Decode(encodeRaw(t, ret(int32(ir.OpRet), _Operand { Kind: 42 })))
    require.Contains(t, err.Error(), "invalid operand tag 42")

    /* reference past the end of the function */
    _, err = Decode(encodeRaw(t, ret(int32(ir.OpRet), _Operand { Kind: _K_instr, Ref: 9 })))
    require.Contains(t, err.Error(), "instruction index 9 out of range")

    /* unknown types */
    _, err = Decode(encodeRaw(t, ret(int32(ir.OpRet), _Operand { Kind: _K_int, Type: 99 })))
    require.Contains(t, err.Error(), "invalid type tag 99")

    /* well-formed */
    m, err := Decode(encodeRaw(t, ret(int32(ir.OpRet), _Operand { Kind: _K_int, Ref: 7, Type: int8(ir.I32) })))
    require.NoError(t, err)
    require.NoError(t, ir.VerifyModule(m))
}

func TestBitcode_UnknownFieldsSkipped(t *testing.T) {
    mm := thrift.NewTMemoryBuffer()
    mm.WriteString(Magic)
    mm.WriteByte(Version)
    require.NoError(t, writeStruct(thrift.NewTBinaryProtocolTransport(mm), "Module",
        _Field { 1, thrift.STRING , func(p thrift.TProtocol) error { return p.WriteString("skip") } },
        _Field { 9, thrift.I64    , func(p thrift.TProtocol) error { return p.WriteI64(123) } },
    ))
    m, err := Decode(mm.Bytes())
    require.NoError(t, err)
    require.Equal(t, "skip", m.Name)
    require.Empty(t, m.Funcs)
}
