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

// Package stats collects the named counters of one optimizer run and writes them out, either
// as a "name,value" CSV file next to the output or as a table for humans.
package stats

import (
    `encoding/csv`
    `io`
    `os`
    `strconv`

    `github.com/olekukonko/tablewriter`

    `github.com/cloudwego/iropt/internal/inline`
    `github.com/cloudwego/iropt/internal/opt`
    `github.com/cloudwego/iropt/ir`
)

const (
    InstrBeforeOpt   = "nInstrBeforeOpt"
    InstrPreInline   = "nInstrPreInline"
    InstrAfterInline = "nInstrAfterInline"
    InstrPostOpt     = "nInstrPostOpt"
)

// Suffix is appended to the output file name to get the statistics file name.
const Suffix = ".stats"

// Summary describes the final shape of a module.
type Summary struct {
    Functions    int
    Instructions int
    Loads        int
    Stores       int
}

// Summarize counts the defined functions, the instructions, the loads and the stores of m.
func Summarize(m *ir.Module) (ret Summary) {
    for _, fn := range m.Funcs {
        if !fn.IsDeclaration() {
            ret.Functions++
        }
        for _, bb := range fn.Blocks {
            for _, p := range bb.Ins {
                ret.Instructions++
                switch p.Op {
                    case ir.OpLoad  : ret.Loads++
                    case ir.OpStore : ret.Stores++
                }
            }
        }
    }
    return
}

// Stats is an ordered set of named counters. Counters keep the order they were first set in.
type Stats struct {
    names []string
    vals  map[string]float64
}

func New() *Stats {
    return &Stats {
        vals: make(map[string]float64),
    }
}

func (self *Stats) Set(name string, val float64) {
    if _, ok := self.vals[name]; !ok {
        self.names = append(self.names, name)
    }
    self.vals[name] = val
}

func (self *Stats) Add(name string, val float64) {
    self.Set(name, self.vals[name] + val)
}

func (self *Stats) Get(name string) float64 {
    return self.vals[name]
}

func (self *Stats) Has(name string) bool {
    _, ok := self.vals[name]
    return ok
}

func (self *Stats) Names() []string {
    return append([]string(nil), self.names...)
}

// Snapshot records the current instruction count of m under name.
func (self *Stats) Snapshot(name string, m *ir.Module) {
    self.Set(name, float64(m.NumInstructions()))
}

// RecordSummary records the counters of a module summary.
func (self *Stats) RecordSummary(s Summary) {
    self.Set("Functions", float64(s.Functions))
    self.Set("Instructions", float64(s.Instructions))
    self.Set("Loads", float64(s.Loads))
    self.Set("Stores", float64(s.Stores))
}

// RecordOpt accumulates the counters of one pipeline run, so the pre- and post-inlining
// runs add up under the same names.
func (self *Stats) RecordOpt(st opt.Stats) {
    self.Add("Dead", float64(st.Dead))
    self.Add("Simplified", float64(st.Simplified))
    self.Add("CSEMerged", float64(st.CSEMerged))
    self.Add("LoadsElim", float64(st.LoadsElim))
    self.Add("StoresElim", float64(st.StoresElim))
    self.Add("Store2LoadFwd", float64(st.Store2LoadFwd))
}

// RecordInline records the counters of an inlining run.
func (self *Stats) RecordInline(st inline.Stats) {
    self.Add("Inlined", float64(st.Inlined))
    self.Add("ConstArg", float64(st.ConstArg))
    self.Add("RejectedConstArg", float64(st.RejectedConstArg))
    self.Add("RejectedSize", float64(st.RejectedSize))
    self.Add("RejectedViability", float64(st.RejectedViability))
    self.Add("RejectedGrowth", float64(st.RejectedGrowth))
    self.Set("SizeRatio", st.SizeRatio)
}

func format(v float64) string {
    return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes one "name,value" record per counter.
func (self *Stats) WriteCSV(w io.Writer) error {
    cw := csv.NewWriter(w)
    for _, name := range self.names {
        if err := cw.Write([]string { name, format(self.vals[name]) }); err != nil {
            return err
        }
    }
    cw.Flush()
    return cw.Error()
}

// SaveCSV writes the counters to the statistics file that belongs to output.
func (self *Stats) SaveCSV(output string) error {
    fp, err := os.Create(output + Suffix)
    if err != nil {
        return err
    }
    if err = self.WriteCSV(fp); err != nil {
        _ = fp.Close()
        return err
    }
    return fp.Close()
}

// WriteTable renders the counters as a two-column table.
func (self *Stats) WriteTable(w io.Writer) {
    tab := tablewriter.NewWriter(w)
    tab.SetHeader([]string { "Statistic", "Value" })
    tab.SetColumnAlignment([]int { tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT })
    for _, name := range self.names {
        tab.Append([]string { name, format(self.vals[name]) })
    }
    tab.Render()
}
