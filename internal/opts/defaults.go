/*
 * Copyright 2022 CloudWeGo Authors
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

package opts

import (
	"math"
	"os"
	"strconv"
)

const (
	_DefaultInlineSizeLimit    = 200 // callees larger than 200 instructions are not inlined by the heuristic
	_DefaultInlineGrowthFactor = 20  // the module may grow up to 20 times its initial size
)

var (
	InlineSizeLimit       = parseOrDefault("IROPT_INLINE_SIZE_LIMIT", _DefaultInlineSizeLimit, -1)
	InlineGrowthFactor    = parseFloatOrDefault("IROPT_INLINE_GROWTH_FACTOR", _DefaultInlineGrowthFactor)
	InlineHeuristic       = parseBoolOrDefault("IROPT_INLINE_HEURISTIC", false)
	InlineRequireConstArg = parseBoolOrDefault("IROPT_INLINE_REQUIRE_CONST_ARG", false)
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("iropt: invalid value for " + key)
	} else if ret := int(val); ret <= min {
		panic("iropt: value too small for " + key)
	} else {
		return ret
	}
}

func parseFloatOrDefault(key string, def float64) float64 {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseFloat(env, 64); err != nil {
		panic("iropt: invalid value for " + key)
	} else if val < 0 || math.IsNaN(val) || math.IsInf(val, 0) {
		panic("iropt: value out of range for " + key)
	} else {
		return val
	}
}

func parseBoolOrDefault(key string, def bool) bool {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseBool(env); err != nil {
		panic("iropt: invalid value for " + key)
	} else {
		return val
	}
}
