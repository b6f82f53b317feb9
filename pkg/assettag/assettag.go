// Package assettag derives per-slot asset tags from a workstation set name.
package assettag

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DefaultPrefix is used when the set name contains no letters.
const DefaultPrefix = "TGA"

// Set holds one tag per hardware slot of an asset set.
type Set struct {
	CPU       string `json:"cpu"`
	Display1  string `json:"display1"`
	Display2  string `json:"display2"`
	Mouse     string `json:"mouse"`
	Keyboard  string `json:"keyboard"`
	Headphone string `json:"headphone"`
	Camera    string `json:"camera"`
}

// slot short codes used in every tag except the CPU one
var slotCodes = []struct {
	code  string
	field func(*Set) *string
}{
	{"D1", func(s *Set) *string { return &s.Display1 }},
	{"D2", func(s *Set) *string { return &s.Display2 }},
	{"M", func(s *Set) *string { return &s.Mouse }},
	{"KB", func(s *Set) *string { return &s.Keyboard }},
	{"HP", func(s *Set) *string { return &s.Headphone }},
	{"CAM", func(s *Set) *string { return &s.Camera }},
}

// Generate derives the full tag set for a set name like "TGA01".
// The alphabetic prefix and the digits are collected in order; the CPU tag
// keeps the numeric part as a string left-padded to two digits, every other
// slot uses the parsed integer without padding. An empty name yields an
// empty tag for every slot.
func Generate(setName string) Set {
	if setName == "" {
		return Set{}
	}

	var prefix, digits strings.Builder
	for _, r := range setName {
		switch {
		case unicode.IsLetter(r):
			prefix.WriteRune(r)
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		}
	}

	p := prefix.String()
	if p == "" {
		p = DefaultPrefix
	}

	numStr := digits.String()
	if numStr == "" {
		numStr = "0"
	}
	n, _ := strconv.Atoi(numStr)

	padded := numStr
	for len(padded) < 2 {
		padded = "0" + padded
	}

	out := Set{CPU: fmt.Sprintf("%s-C-%s", p, padded)}
	for _, sc := range slotCodes {
		*sc.field(&out) = fmt.Sprintf("%s-%s-%d", p, sc.code, n)
	}
	return out
}
