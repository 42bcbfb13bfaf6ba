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
    `strings`

    `github.com/cloudwego/iropt/internal/utils`
)

type _TokenKind uint8

const (
    _T_eof _TokenKind = iota
    _T_ident
    _T_local
    _T_global
    _T_number
    _T_punct
)

type _Token struct {
    kind _TokenKind
    text string
    pos  int
    line int
}

func (self _Token) String() string {
    switch self.kind {
        case _T_eof    : return "EOF"
        case _T_local  : return "%" + self.text
        case _T_global : return "@" + self.text
        default        : return self.text
    }
}

func isspace(c byte) bool {
    return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isdigit(c byte) bool {
    return c >= '0' && c <= '9'
}

func isident0(c byte) bool {
    return c == '_' || c == '.' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isident(c byte) bool {
    return isident0(c) || isdigit(c) || c == '-'
}

func isnumber(c byte) bool {
    return isident(c) || c == '+'
}

type _Lexer struct {
    src  string
    pos  int
    line int
}

func newLexer(src string) *_Lexer {
    return &_Lexer {
        src  : src,
        line : 1,
    }
}

func (self *_Lexer) skip() {
    for self.pos < len(self.src) {
        if c := self.src[self.pos]; c == ';' {
            for self.pos < len(self.src) && self.src[self.pos] != '\n' {
                self.pos++
            }
        } else if !isspace(c) {
            break
        } else {
            if c == '\n' { self.line++ }
            self.pos++
        }
    }
}

func (self *_Lexer) span(fn func(c byte) bool) string {
    p := self.pos
    for self.pos < len(self.src) && fn(self.src[self.pos]) {
        self.pos++
    }
    return self.src[p:self.pos]
}

func (self *_Lexer) next() (_Token, error) {
    self.skip()
    tk := _Token { pos: self.pos, line: self.line }

    /* check for EOF */
    if self.pos == len(self.src) {
        return tk, nil
    }

    /* dispatch on the first character */
    switch c := self.src[self.pos]; {
        case c == '%' || c == '@': {
            self.pos++
            if tk.text = self.span(isident); tk.text == "" {
                return tk, utils.ESyntax(tk.pos, tk.line, "empty name after " + string(c))
            }
            if c == '%' {
                tk.kind = _T_local
            } else {
                tk.kind = _T_global
            }
        }
        case isdigit(c) || ((c == '-' || c == '+') && self.pos + 1 < len(self.src) && isident(self.src[self.pos + 1])): {
            self.pos++
            tk.kind = _T_number
            tk.text = string(c) + self.span(isnumber)
        }
        case isident0(c): {
            tk.kind = _T_ident
            tk.text = self.span(isident)

            /* the variadic marker */
            if tk.text == "..." {
                tk.kind = _T_punct
            }
        }
        case strings.IndexByte("=,()[]{}:*", c) >= 0: {
            self.pos++
            tk.kind = _T_punct
            tk.text = string(c)
        }
        default: {
            return tk, utils.ESyntax(tk.pos, tk.line, "invalid character " + string(c))
        }
    }
    return tk, nil
}

func tokenize(src string) ([]_Token, error) {
    var ret []_Token
    lex := newLexer(src)

    /* read until EOF */
    for {
        if tk, err := lex.next(); err != nil {
            return nil, err
        } else if ret = append(ret, tk); tk.kind == _T_eof {
            return ret, nil
        }
    }
}
