// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality

import "github.com/omeranson/memlocality/go/memaccess"

// AllocatorIdentifier is the host's allocator-identification service:
// given a called function's name, report whether it is a recognised
// heap allocator.
type AllocatorIdentifier interface {
	IsAllocator(name string) bool
}

// DefaultAllocatorIdentifier recognises the same allocator names the
// memory-access classifier uses (malloc, realloc).
type DefaultAllocatorIdentifier struct{}

func (DefaultAllocatorIdentifier) IsAllocator(name string) bool {
	return memaccess.IsHeapAllocator(name)
}
