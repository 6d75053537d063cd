// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess

import "strings"

// HeapAllocators names the calls recognised as heap allocation sites.
// Carriers of a call to one of these are classified Heap.
var HeapAllocators = map[string]bool{
	"malloc":  true,
	"realloc": true,
}

// IsHeapAllocator reports whether name is a recognised heap allocator.
func IsHeapAllocator(name string) bool {
	return HeapAllocators[name]
}

// predefinedExact lists function names short-circuited to an empty,
// non-summarisable summary regardless of body.
var predefinedExact = map[string]bool{
	"__assert_fail":       true,
	"__cxa_guard_acquire": true,
	"exit":                true,
	"_exit":               true,
	"malloc":              true,
	"realloc":             true,
	"free":                true,
}

var predefinedPrefixes = []string{"klee_", "__cxa", "__cxx"}

// IsPredefined reports whether name matches one of the predefined /
// intrinsic function patterns: prefixes klee_, __cxa, __cxx, or an exact
// match against a short list of well-known runtime functions.
func IsPredefined(name string) bool {
	if predefinedExact[name] {
		return true
	}
	for _, p := range predefinedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
