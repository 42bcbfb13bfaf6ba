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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudwego/iropt/internal/bitcode"
	"github.com/cloudwego/iropt/internal/irtext"
	"github.com/cloudwego/iropt/ir"
)

const (
	formatText    = "text"
	formatBitcode = "bitcode"
)

// loadModule reads a module in either format, and reports which one it was.
func loadModule(path string) (*ir.Module, string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	if bitcode.IsBitcode(buf) {
		m, err := bitcode.Decode(buf)
		return m, formatBitcode, err
	}
	m, err := irtext.Parse(path, string(buf))
	return m, formatText, err
}

// outputFormat picks the explicit format if any, then the one implied by the file
// extension, and falls back to the input format.
func outputFormat(explicit string, path string, input string) (string, error) {
	switch explicit {
	case "":
		break
	case formatText, formatBitcode:
		return explicit, nil
	default:
		return "", fmt.Errorf("unknown output format: %q", explicit)
	}
	switch filepath.Ext(path) {
	case ".ll":
		return formatText, nil
	case ".bc":
		return formatBitcode, nil
	default:
		return input, nil
	}
}

func saveModule(path string, format string, m *ir.Module) error {
	if format == formatBitcode {
		return bitcode.Save(path, m)
	} else {
		return irtext.Save(path, m)
	}
}

// writeDots writes "<dir>/<function>.dot" for every defined function of m.
func writeDots(dir string, m *ir.Module) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, fn := range m.Funcs {
		if fn.IsDeclaration() {
			continue
		}
		fp, err := os.Create(filepath.Join(dir, fn.Name + ".dot"))
		if err != nil {
			return err
		}
		if err = ir.WriteDot(fp, fn); err != nil {
			_ = fp.Close()
			return err
		}
		if err = fp.Close(); err != nil {
			return err
		}
	}
	return nil
}
