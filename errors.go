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

package iropt

import (
    `fmt`

    `github.com/cloudwego/iropt/ir`
)

// SyntaxError occures when failed to parse the textual IR.
type SyntaxError struct {
    Pos    int
    Line   int
    Reason string
}

func (self SyntaxError) Error() string {
    return fmt.Sprintf("Syntax error at line %d (position %d): %s", self.Line, self.Pos, self.Reason)
}

// FormatError occures when the binary IR is truncated or malformed.
type FormatError struct {
    Offset int
    Reason string
}

func (self FormatError) Error() string {
    return fmt.Sprintf("Format error at offset %d: %s", self.Offset, self.Reason)
}

// VerifyError is a single structural violation found after the transformations.
type VerifyError = ir.VerifyError

// VerifyErrors collects every violation found in one verification run.
type VerifyErrors = ir.VerifyErrors
