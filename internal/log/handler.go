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

package log

import (
    `io`
    `os`
    `sync`
    `sync/atomic`

    `github.com/mattn/go-colorable`
    `github.com/mattn/go-isatty`
)

// Handler consumes log records.
type Handler interface {
    Log(r *Record) error
}

// FuncHandler adapts a function to a Handler.
type FuncHandler func(r *Record) error

func (self FuncHandler) Log(r *Record) error {
    return self(r)
}

type _SwapHandler struct {
    h atomic.Value
}

type _HandlerBox struct {
    Handler
}

func (self *_SwapHandler) Log(r *Record) error {
    return self.h.Load().(_HandlerBox).Log(r)
}

func (self *_SwapHandler) Swap(h Handler) {
    self.h.Store(_HandlerBox{h})
}

// DiscardHandler drops every record.
func DiscardHandler() Handler {
    return FuncHandler(func(*Record) error {
        return nil
    })
}

// StreamHandler formats every record with fmt and writes it to w.
func StreamHandler(w io.Writer, fmt Format) Handler {
    mu := new(sync.Mutex)
    return FuncHandler(func(r *Record) error {
        mu.Lock()
        defer mu.Unlock()
        _, err := w.Write(fmt.Format(r))
        return err
    })
}

// LvlFilterHandler passes on the records that are at least as severe as max.
func LvlFilterHandler(max Lvl, h Handler) Handler {
    return FuncHandler(func(r *Record) error {
        if r.Lvl <= max {
            return h.Log(r)
        } else {
            return nil
        }
    })
}

// TerminalHandler writes to stderr, colored when stderr is a terminal.
func TerminalHandler(max Lvl) Handler {
    tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
    return LvlFilterHandler(max, StreamHandler(colorable.NewColorableStderr(), TerminalFormat(tty)))
}
