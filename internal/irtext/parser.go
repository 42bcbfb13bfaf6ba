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

package irtext

import (
    `fmt`
    `strconv`
    `strings`

    `github.com/cloudwego/iropt/internal/utils`
    `github.com/cloudwego/iropt/ir`
)

type _Body struct {
    fn    *ir.Function
    pos   int
    names []string
}

type _Parser struct {
    i    int
    toks []_Token
    m    *ir.Module
    b    *ir.Builder
    fn   *ir.Function
    bbs  map[string]*ir.BasicBlock
    vals map[string]ir.Value
    fwd  map[*ir.Instr]_Token
    refs map[string]*ir.Instr
    defs map[*ir.BasicBlock]bool
}

// Parse parses the textual form of a module. The module is named after the ModuleID
// comment when there is one, name otherwise.
func Parse(name string, src string) (*ir.Module, error) {
    toks, err := tokenize(src)
    if err != nil {
        return nil, err
    }

    /* the module name is carried in a comment */
    if id := moduleID(src); id != "" {
        name = id
    }

    /* create the parser */
    p := &_Parser {
        toks : toks,
        m    : ir.NewModule(name),
    }

    /* all signatures first, calls may refer to functions defined later */
    p.b = ir.NewBuilder(p.m)
    bodies, err := p.headers()
    if err != nil {
        return nil, err
    }

    /* then every body */
    for _, fb := range bodies {
        p.i = fb.pos
        if err = p.body(fb.fn, fb.names); err != nil {
            return nil, err
        }
    }
    return p.m, nil
}

func moduleID(src string) string {
    for _, ln := range strings.Split(src, "\n") {
        if ln = strings.TrimSpace(ln); !strings.HasPrefix(ln, ";") {
            continue
        }
        if ln = strings.TrimSpace(ln[1:]); !strings.HasPrefix(ln, "ModuleID") {
            continue
        }
        if i := strings.IndexByte(ln, '\''); i >= 0 {
            if j := strings.LastIndexByte(ln, '\''); j > i {
                return ln[i + 1:j]
            }
        }
    }
    return ""
}

func (self *_Parser) peek() _Token {
    return self.toks[self.i]
}

func (self *_Parser) peek2() _Token {
    if self.i + 1 < len(self.toks) {
        return self.toks[self.i + 1]
    } else {
        return self.toks[len(self.toks) - 1]
    }
}

func (self *_Parser) next() _Token {
    tk := self.toks[self.i]
    if tk.kind != _T_eof {
        self.i++
    }
    return tk
}

func (self *_Parser) errorf(tk _Token, format string, args ...interface{}) error {
    return utils.ESyntax(tk.pos, tk.line, fmt.Sprintf(format, args...))
}

func (self *_Parser) is(kind _TokenKind, text string) bool {
    tk := self.peek()
    return tk.kind == kind && tk.text == text
}

func (self *_Parser) accept(kind _TokenKind, text string) bool {
    if self.is(kind, text) {
        self.i++
        return true
    } else {
        return false
    }
}

func (self *_Parser) expect(kind _TokenKind, text string) error {
    if tk := self.next(); tk.kind != kind || tk.text != text {
        return utils.EUnexpected(tk.pos, tk.line, strconv.Quote(text), tk.String())
    } else {
        return nil
    }
}

func (self *_Parser) ident() (_Token, error) {
    if tk := self.next(); tk.kind != _T_ident {
        return tk, utils.EUnexpected(tk.pos, tk.line, "identifier", tk.String())
    } else {
        return tk, nil
    }
}

func (self *_Parser) typ() (ir.Type, error) {
    if tk, err := self.ident(); err != nil {
        return 0, err
    } else if t, ok := ir.LookupType(tk.text); !ok {
        return 0, self.errorf(tk, "unknown type %s", tk.text)
    } else {
        return t, nil
    }
}

func (self *_Parser) headers() ([]_Body, error) {
    var ret []_Body
    for tk := self.peek(); tk.kind != _T_eof; tk = self.peek() {
        switch {
            case self.accept(_T_ident, "declare"): {
                if _, _, err := self.header(false); err != nil {
                    return nil, err
                }
            }
            case self.accept(_T_ident, "define"): {
                fn, names, err := self.header(true)
                if err != nil {
                    return nil, err
                }
                if err = self.expect(_T_punct, "{"); err != nil {
                    return nil, err
                }
                ret = append(ret, _Body { fn: fn, pos: self.i, names: names })
                if err = self.skipBody(); err != nil {
                    return nil, err
                }
            }
            default: {
                return nil, utils.EUnexpected(tk.pos, tk.line, "declare or define", tk.String())
            }
        }
    }
    return ret, nil
}

func (self *_Parser) skipBody() error {
    for {
        switch tk := self.next(); {
            case tk.kind == _T_eof                     : return self.errorf(tk, "unterminated function body")
            case tk.kind == _T_punct && tk.text == "}" : return nil
            case tk.kind == _T_punct && tk.text == "{" : return self.errorf(tk, "unexpected {")
        }
    }
}

func (self *_Parser) header(define bool) (*ir.Function, []string, error) {
    var names []string
    var types []ir.Type
    var variadic bool

    /* return type and name */
    ret, err := self.typ()
    if err != nil {
        return nil, nil, err
    }

    /* function name */
    tk := self.next()
    if tk.kind != _T_global {
        return nil, nil, utils.EUnexpected(tk.pos, tk.line, "function name", tk.String())
    } else if self.m.Lookup(tk.text) != nil {
        return nil, nil, self.errorf(tk, "redefinition of @%s", tk.text)
    }

    /* parameter list */
    if err = self.expect(_T_punct, "("); err != nil {
        return nil, nil, err
    }
    for !self.accept(_T_punct, ")") {
        if len(types) != 0 || variadic {
            if err = self.expect(_T_punct, ","); err != nil {
                return nil, nil, err
            }
        }

        /* the variadic marker must be the last one */
        if variadic {
            return nil, nil, self.errorf(self.peek(), "parameters after ...")
        } else if self.accept(_T_punct, "...") {
            variadic = true
            continue
        }

        /* parameter type and optional name */
        t, err := self.typ()
        if err != nil {
            return nil, nil, err
        }

        /* definitions name their parameters */
        name := ""
        if self.peek().kind == _T_local {
            name = self.next().text
        } else if define {
            return nil, nil, self.errorf(self.peek(), "parameter name expected")
        }

        /* add the parameter */
        names = append(names, name)
        types = append(types, t)
    }

    /* create the function */
    fn := self.m.NewFunction(tk.text, ret, types...)
    fn.Variadic = variadic
    for i, p := range fn.Params {
        p.Name = anonymous(names[i])
    }
    return fn, names, nil
}

// anonymous drops purely numeric names, the printer renumbers those.
func anonymous(name string) string {
    if _, err := strconv.ParseUint(name, 10, 64); err == nil {
        return ""
    } else {
        return name
    }
}

func (self *_Parser) body(fn *ir.Function, names []string) error {
    self.fn = fn
    self.bbs = make(map[string]*ir.BasicBlock)
    self.vals = make(map[string]ir.Value)
    self.fwd = make(map[*ir.Instr]_Token)
    self.refs = make(map[string]*ir.Instr)
    self.defs = make(map[*ir.BasicBlock]bool)

    /* parameters are the first locals */
    for i, p := range fn.Params {
        self.vals[names[i]] = p
    }

    /* the entry label may be omitted */
    if tk := self.peek(); !self.isLabel() && !self.is(_T_punct, "}") {
        if err := self.begin(tk, ""); err != nil {
            return err
        }
    }

    /* blocks until the closing brace */
    for !self.accept(_T_punct, "}") {
        if self.isLabel() {
            tk := self.next()
            self.next()
            if err := self.begin(tk, tk.text); err != nil {
                return err
            }
        } else if err := self.instr(); err != nil {
            return err
        }
    }

    /* every referenced block must be defined */
    for name, bb := range self.bbs {
        if !self.defs[bb] {
            return self.errorf(self.peek(), "use of undefined label %%%s in @%s", name, fn.Name)
        }
    }

    /* and every forward reference resolved */
    for _, tk := range self.fwd {
        return self.errorf(tk, "use of undefined value %%%s", tk.text)
    }

    /* the current block must not leak into the next body */
    self.b.SetBlock(nil)
    return nil
}

func (self *_Parser) isLabel() bool {
    tk := self.peek()
    nx := self.peek2()
    return (tk.kind == _T_ident || tk.kind == _T_number) && nx.kind == _T_punct && nx.text == ":"
}

func (self *_Parser) block(name string) *ir.BasicBlock {
    if bb, ok := self.bbs[name]; ok {
        return bb
    } else {
        bb = self.fn.DetachedBlock(anonymous(name))
        self.bbs[name] = bb
        return bb
    }
}

func (self *_Parser) begin(tk _Token, name string) error {
    bb := self.block(name)
    if self.defs[bb] {
        return self.errorf(tk, "redefinition of label %s", name)
    }

    /* place the block */
    self.defs[bb] = true
    self.fn.Blocks = append(self.fn.Blocks, bb)
    self.b.SetBlock(bb)
    return nil
}

func (self *_Parser) local(tk _Token, t ir.Type) (ir.Value, error) {
    if v, ok := self.vals[tk.text]; ok {
        if v.Type() != t {
            return nil, self.errorf(tk, "%%%s has type %s, not %s", tk.text, v.Type(), t)
        } else {
            return v, nil
        }
    }

    /* already referenced before the definition */
    if p, ok := self.refs[tk.text]; ok {
        if p.T != t {
            return nil, self.errorf(tk, "%%%s is used as both %s and %s", tk.text, p.T, t)
        } else {
            return p, nil
        }
    }

    /* forward reference, resolved when the definition shows up */
    p := self.m.NewInstr(ir.OpInvalid, t)
    self.fwd[p] = tk
    self.refs[tk.text] = p
    return p, nil
}

func (self *_Parser) define(tk _Token, v *ir.Instr) error {
    if _, ok := self.vals[tk.text]; ok {
        return self.errorf(tk, "redefinition of %%%s", tk.text)
    }

    /* resolve the forward references */
    if p, ok := self.refs[tk.text]; ok {
        if p.T != v.T {
            return self.errorf(tk, "%%%s is defined as %s but used as %s", tk.text, v.T, p.T)
        }
        p.ReplaceAllUsesWith(v)
        delete(self.fwd, p)
        delete(self.refs, tk.text)
    }

    /* register the name */
    v.Name = anonymous(tk.text)
    self.vals[tk.text] = v
    return nil
}

func (self *_Parser) number(tk _Token, t ir.Type) (ir.Value, error) {
    if t.IsFloat() {
        if v, err := strconv.ParseFloat(tk.text, 64); err != nil && !isRangeError(err) {
            return nil, self.errorf(tk, "invalid floating-point constant %s", tk.text)
        } else {
            return self.m.ConstFloat(t, v), nil
        }
    }

    /* integers and pointers */
    if !t.IsInt() && t != ir.Ptr {
        return nil, self.errorf(tk, "numeric constant of type %s", t)
    } else if v, err := strconv.ParseInt(tk.text, 0, 64); err == nil {
        return self.m.ConstInt(t, v), nil
    } else if u, err := strconv.ParseUint(tk.text, 0, 64); err == nil {
        return self.m.ConstInt(t, int64(u)), nil
    } else {
        return nil, self.errorf(tk, "invalid integer constant %s", tk.text)
    }
}

func isRangeError(err error) bool {
    e, ok := err.(*strconv.NumError)
    return ok && e.Err == strconv.ErrRange
}

func (self *_Parser) value(t ir.Type) (ir.Value, error) {
    tk := self.next()
    switch tk.kind {
        case _T_number: {
            return self.number(tk, t)
        }
        case _T_local: {
            if t == ir.Label {
                return self.block(tk.text), nil
            } else {
                return self.local(tk, t)
            }
        }
        case _T_global: {
            if fn := self.m.Lookup(tk.text); fn == nil {
                return nil, self.errorf(tk, "use of undefined function @%s", tk.text)
            } else {
                return fn, nil
            }
        }
        case _T_ident: {
            switch {
                case tk.text == "undef"                  : return self.m.Undef(t), nil
                case tk.text == "null" && t == ir.Ptr    : return self.m.Null(), nil
                case tk.text == "true" && t == ir.I1     : return self.m.ConstBool(true), nil
                case tk.text == "false" && t == ir.I1    : return self.m.ConstBool(false), nil
                case t.IsFloat()                         : return self.number(tk, t)
            }
        }
    }
    return nil, utils.EUnexpected(tk.pos, tk.line, t.String() + " value", tk.String())
}

func (self *_Parser) typed() (ir.Value, error) {
    if t, err := self.typ(); err != nil {
        return nil, err
    } else {
        return self.value(t)
    }
}

func (self *_Parser) typedList() ([]ir.Value, error) {
    var ret []ir.Value
    for {
        if v, err := self.typed(); err != nil {
            return nil, err
        } else if ret = append(ret, v); !self.accept(_T_punct, ",") {
            return ret, nil
        }
    }
}

func (self *_Parser) instr() error {
    var err error
    var res _Token
    var p *ir.Instr

    /* optional result name */
    if tk := self.peek(); tk.kind == _T_local && self.peek2().kind == _T_punct && self.peek2().text == "=" {
        res = tk
        self.i += 2
    }

    /* opcode */
    tk, err := self.ident()
    if err != nil {
        return err
    }

    /* parse the operands */
    if op, ok := ir.LookupOp(tk.text); !ok {
        return self.errorf(tk, "unknown instruction %s", tk.text)
    } else if p, err = self.operands(tk, op); err != nil {
        return err
    }

    /* bind the result name */
    if res.kind == _T_eof {
        return nil
    } else if p.T == ir.Void {
        return self.errorf(res, "instruction %s does not produce a value", tk.text)
    } else {
        return self.define(res, p)
    }
}

func (self *_Parser) operands(tk _Token, op ir.Op) (*ir.Instr, error) {
    if self.b.Block() == nil {
        return nil, self.errorf(tk, "instruction outside of a block")
    }

    /* dispatch on the syntax of each opcode */
    switch {
        case op.IsBinary() || op == ir.OpFNeg : return self.arith(op)
        case op == ir.OpICmp || op == ir.OpFCmp : return self.cmp(op)
        case op.IsCast()                        : return self.cast(op)
        case op == ir.OpAlloca                  : return self.alloca()
        case op == ir.OpPhi                     : return self.phi()
        case op == ir.OpCall                    : return self.call()
        case op == ir.OpRet                     : return self.ret()
        case op == ir.OpBr                      : return self.br(tk)
        case op == ir.OpLoad                    : return self.load()
        case op == ir.OpStore                   : return self.store()
        case op == ir.OpGEP                     : return self.gep(tk)
        case op == ir.OpSelect                  : return self.sel(tk)
        case op == ir.OpUnreachable             : return self.b.Unreachable(), nil
        default                                 : return self.generic(op)
    }
}

func (self *_Parser) arith(op ir.Op) (*ir.Instr, error) {
    t, err := self.typ()
    if err != nil {
        return nil, err
    }

    /* first operand */
    x, err := self.value(t)
    if err != nil {
        return nil, err
    } else if op == ir.OpFNeg {
        return self.b.FNeg(x), nil
    }

    /* second operand */
    if err = self.expect(_T_punct, ","); err != nil {
        return nil, err
    } else if y, err := self.value(t); err != nil {
        return nil, err
    } else {
        return self.b.Emit(op, t, x, y), nil
    }
}

func (self *_Parser) cmp(op ir.Op) (*ir.Instr, error) {
    tk, err := self.ident()
    if err != nil {
        return nil, err
    }

    /* predicate */
    pred, ok := ir.LookupCmpPred(tk.text)
    if !ok {
        return nil, self.errorf(tk, "unknown predicate %s", tk.text)
    }

    /* the operands share one type */
    t, err := self.typ()
    if err != nil {
        return nil, err
    }

    /* parse both of them */
    x, err := self.value(t)
    if err != nil {
        return nil, err
    } else if err = self.expect(_T_punct, ","); err != nil {
        return nil, err
    } else if y, err := self.value(t); err != nil {
        return nil, err
    } else if op == ir.OpICmp {
        return self.b.ICmp(pred, x, y), nil
    } else {
        return self.b.FCmp(pred, x, y), nil
    }
}

func (self *_Parser) cast(op ir.Op) (*ir.Instr, error) {
    if v, err := self.typed(); err != nil {
        return nil, err
    } else if err = self.expect(_T_ident, "to"); err != nil {
        return nil, err
    } else if t, err := self.typ(); err != nil {
        return nil, err
    } else {
        return self.b.Cast(op, v, t), nil
    }
}

func (self *_Parser) alloca() (*ir.Instr, error) {
    if t, err := self.typ(); err != nil {
        return nil, err
    } else {
        return self.b.Alloca(t), nil
    }
}

func (self *_Parser) phi() (*ir.Instr, error) {
    t, err := self.typ()
    if err != nil {
        return nil, err
    }

    /* [ value, %block ] pairs */
    p := self.b.Phi(t)
    for {
        var v ir.Value
        var bb ir.Value

        /* one incoming pair */
        if err = self.expect(_T_punct, "["); err != nil {
            return nil, err
        } else if v, err = self.value(t); err != nil {
            return nil, err
        } else if err = self.expect(_T_punct, ","); err != nil {
            return nil, err
        } else if bb, err = self.value(ir.Label); err != nil {
            return nil, err
        } else if err = self.expect(_T_punct, "]"); err != nil {
            return nil, err
        }

        /* add to the phi node */
        if blk, ok := bb.(*ir.BasicBlock); !ok {
            return nil, self.errorf(self.toks[self.i - 2], "phi incoming block expected")
        } else {
            p.AddIncoming(v, blk)
        }
        if !self.accept(_T_punct, ",") {
            return p, nil
        }
    }
}

func (self *_Parser) call() (*ir.Instr, error) {
    var args []ir.Value
    t, err := self.typ()
    if err != nil {
        return nil, err
    }

    /* direct or indirect callee */
    fn, err := self.value(ir.Ptr)
    if err != nil {
        return nil, err
    } else if err = self.expect(_T_punct, "("); err != nil {
        return nil, err
    }

    /* actual arguments */
    if !self.accept(_T_punct, ")") {
        if args, err = self.typedList(); err != nil {
            return nil, err
        } else if err = self.expect(_T_punct, ")"); err != nil {
            return nil, err
        }
    }
    return self.b.Call(fn, t, args...), nil
}

func (self *_Parser) ret() (*ir.Instr, error) {
    if self.accept(_T_ident, "void") {
        return self.b.Ret(), nil
    } else if v, err := self.typed(); err != nil {
        return nil, err
    } else {
        return self.b.Ret(v), nil
    }
}

func (self *_Parser) br(tk _Token) (*ir.Instr, error) {
    ops, err := self.typedList()
    if err != nil {
        return nil, err
    }

    /* br label %dest */
    if len(ops) == 1 {
        if bb, ok := ops[0].(*ir.BasicBlock); ok {
            return self.b.Br(bb), nil
        }
    }

    /* br i1 %cond, label %then, label %else */
    if len(ops) == 3 && ops[0].Type() == ir.I1 {
        t, ok1 := ops[1].(*ir.BasicBlock)
        f, ok2 := ops[2].(*ir.BasicBlock)
        if ok1 && ok2 {
            return self.b.CondBr(ops[0], t, f), nil
        }
    }
    return nil, self.errorf(tk, "malformed branch")
}

func (self *_Parser) load() (*ir.Instr, error) {
    vol := self.accept(_T_ident, "volatile")
    t, err := self.typ()
    if err != nil {
        return nil, err
    } else if err = self.expect(_T_punct, ","); err != nil {
        return nil, err
    }

    /* the address */
    ptr, err := self.typed()
    if err != nil {
        return nil, err
    }

    /* emit the load */
    p := self.b.Load(t, ptr)
    p.Volatile = vol
    return p, nil
}

func (self *_Parser) store() (*ir.Instr, error) {
    vol := self.accept(_T_ident, "volatile")
    v, err := self.typed()
    if err != nil {
        return nil, err
    } else if err = self.expect(_T_punct, ","); err != nil {
        return nil, err
    }

    /* the address */
    ptr, err := self.typed()
    if err != nil {
        return nil, err
    }

    /* emit the store */
    p := self.b.Store(v, ptr)
    p.Volatile = vol
    return p, nil
}

func (self *_Parser) gep(tk _Token) (*ir.Instr, error) {
    if ops, err := self.typedList(); err != nil {
        return nil, err
    } else if ops[0].Type() != ir.Ptr {
        return nil, self.errorf(tk, "getelementptr base must be a pointer")
    } else {
        return self.b.GEP(ops[0], ops[1:]...), nil
    }
}

func (self *_Parser) sel(tk _Token) (*ir.Instr, error) {
    if ops, err := self.typedList(); err != nil {
        return nil, err
    } else if len(ops) != 3 || ops[0].Type() != ir.I1 || ops[1].Type() != ops[2].Type() {
        return nil, self.errorf(tk, "malformed select")
    } else {
        return self.b.Select(ops[0], ops[1], ops[2]), nil
    }
}

func (self *_Parser) generic(op ir.Op) (*ir.Instr, error) {
    t, err := self.typ()
    if err != nil {
        return nil, err
    } else if err = self.expect(_T_punct, ","); err != nil {
        return nil, err
    } else if ops, err := self.typedList(); err != nil {
        return nil, err
    } else {
        return self.b.Emit(op, t, ops...), nil
    }
}
