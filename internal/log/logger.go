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
    `fmt`
    `time`

    `github.com/go-stack/stack`
)

// Lvl is the severity of a log record.
type Lvl int

const (
    LvlCrit Lvl = iota
    LvlError
    LvlWarn
    LvlInfo
    LvlDebug
)

func (self Lvl) String() string {
    switch self {
        case LvlCrit  : return "CRIT"
        case LvlError : return "EROR"
        case LvlWarn  : return "WARN"
        case LvlInfo  : return "INFO"
        case LvlDebug : return "DBUG"
        default       : return fmt.Sprintf("LVL(%d)", int(self))
    }
}

// LvlFromString parses a level name as accepted on the command line.
func LvlFromString(name string) (Lvl, error) {
    switch name {
        case "crit"                   : return LvlCrit, nil
        case "error", "eror"          : return LvlError, nil
        case "warn"                   : return LvlWarn, nil
        case "info"                   : return LvlInfo, nil
        case "debug", "dbug"          : return LvlDebug, nil
        default                       : return LvlDebug, fmt.Errorf("log: unknown level: %s", name)
    }
}

// Record is a single log entry.
type Record struct {
    Time time.Time
    Lvl  Lvl
    Msg  string
    Ctx  []interface{}
    Call stack.Call
}

// Logger writes key/value pairs to a Handler.
type Logger interface {
    New(ctx ...interface{}) Logger
    SetHandler(h Handler)
    Debug(msg string, ctx ...interface{})
    Info(msg string, ctx ...interface{})
    Warn(msg string, ctx ...interface{})
    Error(msg string, ctx ...interface{})
    Crit(msg string, ctx ...interface{})
}

type _Logger struct {
    ctx []interface{}
    h   *_SwapHandler
}

func (self *_Logger) write(lvl Lvl, msg string, ctx []interface{}, skip int) {
    self.h.Log(&Record {
        Time : time.Now(),
        Lvl  : lvl,
        Msg  : msg,
        Ctx  : append(append(make([]interface{}, 0, len(self.ctx) + len(ctx)), self.ctx...), normalize(ctx)...),
        Call : stack.Caller(skip),
    })
}

func (self *_Logger) New(ctx ...interface{}) Logger {
    return &_Logger {
        ctx : append(append([]interface{}(nil), self.ctx...), normalize(ctx)...),
        h   : self.h,
    }
}

func (self *_Logger) SetHandler(h Handler) {
    self.h.Swap(h)
}

func (self *_Logger) Debug(msg string, ctx ...interface{}) { self.write(LvlDebug, msg, ctx, 2) }
func (self *_Logger) Info(msg string, ctx ...interface{})  { self.write(LvlInfo, msg, ctx, 2) }
func (self *_Logger) Warn(msg string, ctx ...interface{})  { self.write(LvlWarn, msg, ctx, 2) }
func (self *_Logger) Error(msg string, ctx ...interface{}) { self.write(LvlError, msg, ctx, 2) }
func (self *_Logger) Crit(msg string, ctx ...interface{})  { self.write(LvlCrit, msg, ctx, 2) }

const _ErrorKey = "LOG_ERROR"

func normalize(ctx []interface{}) []interface{} {
    if len(ctx) % 2 != 0 {
        ctx = append(ctx, nil, _ErrorKey, "normalized odd number of arguments by adding nil")
    }
    return ctx
}

var root = &_Logger {
    h: new(_SwapHandler),
}

func init() {
    root.SetHandler(DiscardHandler())
}

// Root returns the root logger. Nothing is printed until a handler is installed.
func Root() Logger {
    return root
}

// New returns a child of the root logger with the given context.
func New(ctx ...interface{}) Logger {
    return root.New(ctx...)
}

func Debug(msg string, ctx ...interface{}) { root.write(LvlDebug, msg, ctx, 2) }
func Info(msg string, ctx ...interface{})  { root.write(LvlInfo, msg, ctx, 2) }
func Warn(msg string, ctx ...interface{})  { root.write(LvlWarn, msg, ctx, 2) }
func Error(msg string, ctx ...interface{}) { root.write(LvlError, msg, ctx, 2) }
func Crit(msg string, ctx ...interface{})  { root.write(LvlCrit, msg, ctx, 2) }
