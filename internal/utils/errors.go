/*
 * Copyright 2021 ByteDance Inc.
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

package utils

import (
    `fmt`

    `github.com/cloudwego/iropt`
)

func ESyntax(pos int, line int, reason string) iropt.SyntaxError {
    return iropt.SyntaxError {
        Pos    : pos,
        Line   : line,
        Reason : reason,
    }
}

func EUnexpected(pos int, line int, want string, got string) iropt.SyntaxError {
    return ESyntax(pos, line, fmt.Sprintf("%s expected, got %q", want, got))
}

func EFormat(off int, reason string) iropt.FormatError {
    return iropt.FormatError {
        Offset : off,
        Reason : reason,
    }
}

func EBadTag(off int, what string, tag int) iropt.FormatError {
    return EFormat(off, fmt.Sprintf("invalid %s tag %d", what, tag))
}
