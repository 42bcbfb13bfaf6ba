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
    `fmt`
    `io`
    `strconv`
    `strings`
)

type _Namer struct {
    seq   int
    used  map[string]bool
    names map[Value]string
}

func newNamer(fn *Function) *_Namer {
    ret := &_Namer {
        used  : make(map[string]bool),
        names : make(map[Value]string),
    }

    /* nothing to name for detached instructions */
    if fn == nil {
        return ret
    }

    /* parameters, blocks and instruction results share one namespace */
    for _, p := range fn.Params {
        ret.assign(p, p.Name)
    }

    /* name every block and every value-producing instruction in order */
    for _, bb := range fn.Blocks {
        ret.assign(bb, bb.Name)
        for _, p := range bb.Ins {
            if p.T != Void {
                ret.assign(p, p.Name)
            }
        }
    }
    return ret
}

func sanitize(name string) string {
    return strings.Map(func(r rune) rune {
        if isIdentChar(r) {
            return r
        } else {
            return '_'
        }
    }, name)
}

func isIdentChar(r rune) bool {
    return r == '_' || r == '.' || r == '$' || r == '-' ||
        (r >= '0' && r <= '9') ||
        (r >= 'a' && r <= 'z') ||
        (r >= 'A' && r <= 'Z')
}

func (self *_Namer) assign(v Value, name string) {
    name = sanitize(name)

    /* anonymous values are numbered */
    if name == "" {
        for name = strconv.Itoa(self.seq); self.used[name]; name = strconv.Itoa(self.seq) {
            self.seq++
        }
        self.seq++
    }

    /* clones and inlined bodies often reuse names */
    if self.used[name] {
        base := name
        for i := 1; self.used[name]; i++ {
            name = base + "." + strconv.Itoa(i)
        }
    }

    /* register the name */
    self.used[name] = true
    self.names[v] = name
}

func (self *_Namer) local(v Value, id int, name string, prefix string) string {
    if s, ok := self.names[v]; ok {
        return "%" + s
    } else if name != "" {
        return "%" + sanitize(name)
    } else {
        return "%" + prefix + strconv.Itoa(id)
    }
}

func (self *_Namer) value(v Value) string {
    switch vv := v.(type) {
        case *Const      : return vv.String()
        case *Function   : return "@" + vv.Name
        case *Instr      : return self.local(vv, vv.Id, vv.Name, "v")
        case *BasicBlock : return self.local(vv, vv.Id, vv.Name, "bb")
        case *Param      : return self.local(vv, vv.Index, vv.Name, "arg")
        default          : return "<nil>"
    }
}

func (self *_Namer) typed(v Value) string {
    return v.Type().String() + " " + self.value(v)
}

func (self *_Namer) list(vs []Value) string {
    ret := make([]string, len(vs))
    for i, v := range vs {
        ret[i] = self.typed(v)
    }
    return strings.Join(ret, ", ")
}

func (self *_Namer) instr(p *Instr) string {
    var sb strings.Builder
    if p.T != Void {
        sb.WriteString(self.value(p))
        sb.WriteString(" = ")
    }

    /* mnemonic and the opcode specific tail */
    sb.WriteString(p.Op.String())
    switch {
        case p.Op.IsBinary() || p.Op == OpFNeg: {
            sb.WriteString(" " + p.T.String() + " ")
            for i, v := range p.ops {
                if i != 0 { sb.WriteString(", ") }
                sb.WriteString(self.value(v))
            }
        }
        case p.Op == OpICmp || p.Op == OpFCmp: {
            fmt.Fprintf(&sb, " %s %s %s, %s", p.Pred, p.ops[0].Type(), self.value(p.ops[0]), self.value(p.ops[1]))
        }
        case p.Op.IsCast(): {
            fmt.Fprintf(&sb, " %s to %s", self.typed(p.ops[0]), p.T)
        }
        case p.Op == OpAlloca: {
            sb.WriteString(" " + p.Alloc.String())
        }
        case p.Op == OpPhi: {
            sb.WriteString(" " + p.T.String())
            for i := 0; i < p.NumIncoming(); i++ {
                if i != 0 { sb.WriteString(",") }
                fmt.Fprintf(&sb, " [ %s, %s ]", self.value(p.IncomingValue(i)), self.value(p.IncomingBlock(i)))
            }
        }
        case p.Op == OpCall: {
            fmt.Fprintf(&sb, " %s %s(%s)", p.T, self.value(p.ops[0]), self.list(p.ops[1:]))
        }
        case p.Op == OpRet: {
            if len(p.ops) == 0 {
                sb.WriteString(" void")
            } else {
                sb.WriteString(" " + self.typed(p.ops[0]))
            }
        }
        case p.Op == OpLoad: {
            if p.Volatile { sb.WriteString(" volatile") }
            fmt.Fprintf(&sb, " %s, %s", p.T, self.list(p.ops))
        }
        case p.Op == OpStore: {
            if p.Volatile { sb.WriteString(" volatile") }
            sb.WriteString(" " + self.list(p.ops))
        }
        case p.T == Void || p.Op == OpGEP || p.Op == OpSelect: {
            if len(p.ops) != 0 {
                sb.WriteString(" " + self.list(p.ops))
            }
        }
        default: {
            fmt.Fprintf(&sb, " %s, %s", p.T, self.list(p.ops))
        }
    }
    return sb.String()
}

func (self *_Namer) signature(fn *Function, named bool) string {
    args := make([]string, 0, len(fn.Params) + 1)
    for _, p := range fn.Params {
        if named {
            args = append(args, self.typed(p))
        } else {
            args = append(args, p.T.String())
        }
    }
    if fn.Variadic {
        args = append(args, "...")
    }
    return fmt.Sprintf("%s @%s(%s)", fn.Ret, fn.Name, strings.Join(args, ", "))
}

func (self *Instr) String() string {
    var fn *Function
    if self.Block != nil {
        fn = self.Block.Func
    }
    return newNamer(fn).instr(self)
}

func (self *Param) String() string {
    return newNamer(self.Func).typed(self)
}

func (self *BasicBlock) String() string {
    var sb strings.Builder
    printBlock(&sb, newNamer(self.Func), self)
    return sb.String()
}

func (self *Function) String() string {
    var sb strings.Builder
    _ = FprintFunc(&sb, self)
    return sb.String()
}

func (self *Module) String() string {
    var sb strings.Builder
    _ = Fprint(&sb, self)
    return sb.String()
}

func printBlock(sb *strings.Builder, nm *_Namer, bb *BasicBlock) {
    sb.WriteString(nm.value(bb)[1:])
    sb.WriteString(":\n")
    for _, p := range bb.Ins {
        sb.WriteString("  ")
        sb.WriteString(nm.instr(p))
        sb.WriteByte('\n')
    }
}

// FprintFunc writes the textual form of fn to w.
func FprintFunc(w io.Writer, fn *Function) error {
    var sb strings.Builder
    nm := newNamer(fn)

    /* declarations have no body */
    if fn.IsDeclaration() {
        sb.WriteString("declare ")
        sb.WriteString(nm.signature(fn, false))
        sb.WriteByte('\n')
        _, err := io.WriteString(w, sb.String())
        return err
    }

    /* function header, then every block */
    sb.WriteString("define ")
    sb.WriteString(nm.signature(fn, true))
    sb.WriteString(" {\n")
    for i, bb := range fn.Blocks {
        if i != 0 { sb.WriteByte('\n') }
        printBlock(&sb, nm, bb)
    }

    /* close the body */
    sb.WriteString("}\n")
    _, err := io.WriteString(w, sb.String())
    return err
}

// Fprint writes the textual form of the whole module to w.
func Fprint(w io.Writer, m *Module) error {
    if _, err := fmt.Fprintf(w, "; ModuleID = '%s'\n", m.Name); err != nil {
        return err
    }
    for _, fn := range m.Funcs {
        if _, err := io.WriteString(w, "\n"); err != nil {
            return err
        }
        if err := FprintFunc(w, fn); err != nil {
            return err
        }
    }
    return nil
}
