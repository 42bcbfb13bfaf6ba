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

// Package irtext reads and writes the textual form of IR modules.
package irtext

import (
    `bufio`
    `io`
    `os`

    `github.com/cloudwego/iropt/ir`
)

// Load parses the module stored at path.
func Load(path string) (*ir.Module, error) {
    if buf, err := os.ReadFile(path); err != nil {
        return nil, err
    } else {
        return Parse(path, string(buf))
    }
}

// Write writes the textual form of m to w.
func Write(w io.Writer, m *ir.Module) error {
    wr := bufio.NewWriter(w)
    if err := ir.Fprint(wr, m); err != nil {
        return err
    } else {
        return wr.Flush()
    }
}

// Save writes the textual form of m to the file at path.
func Save(path string, m *ir.Module) error {
    fp, err := os.Create(path)
    if err != nil {
        return err
    }

    /* write the module and close the file */
    if err = Write(fp, m); err != nil {
        _ = fp.Close()
        return err
    } else {
        return fp.Close()
    }
}
