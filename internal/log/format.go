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
    `bytes`
    `fmt`
    `strconv`
    `strings`

    `github.com/fatih/color`
)

const (
    _TimeFormat  = "01-02|15:04:05.000"
    _MsgJustify  = 40
)

// Format turns a record into bytes.
type Format interface {
    Format(r *Record) []byte
}

// FormatFunc adapts a function to a Format.
type FormatFunc func(r *Record) []byte

func (self FormatFunc) Format(r *Record) []byte {
    return self(r)
}

var _LvlColors = map[Lvl]*color.Color {
    LvlCrit  : color.New(color.FgMagenta),
    LvlError : color.New(color.FgRed),
    LvlWarn  : color.New(color.FgYellow),
    LvlInfo  : color.New(color.FgGreen),
    LvlDebug : color.New(color.FgCyan),
}

func colorize(lvl Lvl, s string, usecolor bool) string {
    if c, ok := _LvlColors[lvl]; !ok || !usecolor {
        return s
    } else {
        c.EnableColor()
        return c.Sprint(s)
    }
}

// TerminalFormat renders records for humans:
//
//     INFO [01-02|15:04:05.000] optimized module         funcs=3 instrs=120
//
func TerminalFormat(usecolor bool) Format {
    return FormatFunc(func(r *Record) []byte {
        buf := new(bytes.Buffer)
        lvl := colorize(r.Lvl, r.Lvl.String(), usecolor)

        /* header, debug records also carry the call site */
        if r.Lvl == LvlDebug {
            fmt.Fprintf(buf, "%s[%s|%v] %s ", lvl, r.Time.Format(_TimeFormat), r.Call, r.Msg)
        } else {
            fmt.Fprintf(buf, "%s [%s] %s ", lvl, r.Time.Format(_TimeFormat), r.Msg)
        }

        /* pad the message so the context lines up */
        if len(r.Ctx) > 0 && len(r.Msg) < _MsgJustify {
            buf.WriteString(strings.Repeat(" ", _MsgJustify - len(r.Msg)))
        }

        /* key/value pairs */
        for i := 0; i + 1 < len(r.Ctx); i += 2 {
            if i != 0 { buf.WriteByte(' ') }
            buf.WriteString(colorize(r.Lvl, formatValue(r.Ctx[i]), usecolor))
            buf.WriteByte('=')
            buf.WriteString(formatValue(r.Ctx[i + 1]))
        }

        /* terminate the line */
        buf.WriteByte('\n')
        return buf.Bytes()
    })
}

// LogfmtFormat renders records as logfmt lines without colors.
func LogfmtFormat() Format {
    return FormatFunc(func(r *Record) []byte {
        buf := new(bytes.Buffer)
        fmt.Fprintf(buf, "t=%s lvl=%s msg=%s", r.Time.Format(_TimeFormat), strings.ToLower(r.Lvl.String()), strconv.Quote(r.Msg))
        for i := 0; i + 1 < len(r.Ctx); i += 2 {
            fmt.Fprintf(buf, " %s=%s", formatValue(r.Ctx[i]), formatValue(r.Ctx[i + 1]))
        }
        buf.WriteByte('\n')
        return buf.Bytes()
    })
}

func formatValue(v interface{}) string {
    var s string
    switch vv := v.(type) {
        case nil          : return "nil"
        case string       : s = vv
        case error        : s = vv.Error()
        case fmt.Stringer : s = vv.String()
        case float64      : return strconv.FormatFloat(vv, 'f', 3, 64)
        case float32      : return strconv.FormatFloat(float64(vv), 'f', 3, 64)
        default           : s = fmt.Sprintf("%+v", v)
    }
    if strings.ContainsAny(s, " =\"\t\n") {
        return strconv.Quote(s)
    } else {
        return s
    }
}
