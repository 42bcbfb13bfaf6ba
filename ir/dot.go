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

package ir

import (
    `fmt`
    `html`
    `io`
    `strings`

    `github.com/oleiade/lane`
)

func dotrow(ss string) string {
    return fmt.Sprintf("<tr><td align=\"left\">%s</td></tr>\n", html.EscapeString(ss))
}

func dotblock(nm *_Namer, dt *DominatorTree, preds []*BasicBlock, bb *BasicBlock) string {
    var pred []string
    var idomof []string

    /* dominance metadata */
    for _, d := range preds {
        pred = append(pred, nm.value(d))
    }
    for _, d := range dt.Children(bb) {
        idomof = append(idomof, nm.value(d))
    }

    /* root and unreachable blocks have no immediate dominator */
    idomby := "-"
    if d := dt.Idom(bb); d != nil {
        idomby = nm.value(d)
    }

    /* build the table */
    buf := []string {
        "<table border=\"1\" cellborder=\"0\" cellspacing=\"0\">\n",
        fmt.Sprintf("<tr><td>%s</td></tr>\n", html.EscapeString(nm.value(bb))),
        "<hr/>\n",
        dotrow(fmt.Sprintf("# pred = {%s}", strings.Join(pred, ", "))),
        dotrow(fmt.Sprintf("# idom_by = %s", idomby)),
        dotrow(fmt.Sprintf("# idom_of = {%s}", strings.Join(idomof, ", "))),
    }

    /* the instructions */
    if len(bb.Ins) != 0 {
        buf = append(buf, "<hr/>\n")
        for _, p := range bb.Ins {
            buf = append(buf, dotrow(nm.instr(p)))
        }
    }

    /* close the table */
    buf = append(buf, "</table>")
    return strings.Join(buf, "")
}

// WriteDot writes the CFG of fn in Graphviz format, annotated with dominator metadata.
func WriteDot(w io.Writer, fn *Function) error {
    if fn.IsDeclaration() {
        return fmt.Errorf("ir: @%s is a declaration", fn.Name)
    }

    /* graph header */
    q := lane.NewQueue()
    n := make(map[int]bool)
    e := make(map[struct{A, B int}]bool)
    nm := newNamer(fn)
    dt := BuildDominatorTree(fn)
    preds := fn.Preds()
    buf := []string {
        "digraph CFG {",
        `    xdotversion = "15"`,
        `    graph [ fontname = "Fira Code" ]`,
        `    node [ fontname = "Fira Code" fontsize="16" shape = "plaintext" ]`,
        `    edge [ fontname = "Fira Code" ]`,
        `    START [ shape = "circle" ]`,
        fmt.Sprintf(`    START -> bb_%d`, fn.Entry().Id),
    }

    /* breadth-first over the reachable blocks */
    for q.Enqueue(fn.Entry()); !q.Empty(); {
        p := q.Dequeue().(*BasicBlock)
        if n[p.Id] {
            continue
        }

        /* emit the node */
        n[p.Id] = true
        buf = append(buf, fmt.Sprintf(`    bb_%d [ label = < %s > ]`, p.Id, dotblock(nm, dt, preds[p], p)))

        /* and the edges, condbr edges are labelled with the branch direction */
        for i, ln := range p.Succs() {
            if !n[ln.Id] {
                q.Enqueue(ln)
            }
            edge := struct{A, B int}{p.Id, ln.Id}
            if !e[edge] {
                e[edge] = true
                if p.Term().Op == OpBr {
                    buf = append(buf, fmt.Sprintf(`    bb_%d -> bb_%d [ label = "goto" ]`, p.Id, ln.Id))
                } else if i == 0 {
                    buf = append(buf, fmt.Sprintf(`    bb_%d -> bb_%d [ label = "true" ]`, p.Id, ln.Id))
                } else {
                    buf = append(buf, fmt.Sprintf(`    bb_%d -> bb_%d [ label = "false" ]`, p.Id, ln.Id))
                }
            }
        }
    }

    /* close the graph */
    buf = append(buf, "}\n")
    _, err := io.WriteString(w, strings.Join(buf, "\n"))
    return err
}
