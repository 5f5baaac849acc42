// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestionDistance is the largest edit distance still offered as
// a "did you mean" hint.
const maxSuggestionDistance = 3

// suggestCommand returns the subcommand name closest to unknown, or ""
// when none is close enough.
func suggestCommand(unknown string, commands []*Command) string {
	names := make([]string, len(commands))
	for i, command := range commands {
		names[i] = command.Name
	}
	return closest(unknown, names)
}

// suggestFlag picks the first flag in args that flagSet does not
// define and returns the nearest defined flag, dashes included.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	var names []string
	flagSet.VisitAll(func(defined *pflag.Flag) {
		names = append(names, defined.Name)
	})

	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if flagSet.Lookup(name) != nil {
			continue
		}
		match := closest(name, names)
		switch {
		case match == "":
			return ""
		case len(match) == 1:
			return "-" + match
		default:
			return "--" + match
		}
	}
	return ""
}

// closest returns the first candidate with the smallest edit distance
// from target, provided that distance is within maxSuggestionDistance.
func closest(target string, candidates []string) string {
	match, best := "", maxSuggestionDistance+1
	for _, candidate := range candidates {
		if distance := levenshtein(target, candidate); distance < best {
			match, best = candidate, distance
		}
	}
	return match
}

// levenshtein is the insert/delete/substitute edit distance, computed
// one row at a time over the shorter string.
func levenshtein(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(a) == 0 {
		return len(b)
	}

	row := make([]int, len(a)+1)
	for i := range row {
		row[i] = i
	}
	next := make([]int, len(a)+1)
	for j := 1; j <= len(b); j++ {
		next[0] = j
		for i := 1; i <= len(a); i++ {
			substitution := row[i-1]
			if a[i-1] != b[j-1] {
				substitution++
			}
			next[i] = min(row[i]+1, next[i-1]+1, substitution)
		}
		row, next = next, row
	}
	return row[len(a)]
}
