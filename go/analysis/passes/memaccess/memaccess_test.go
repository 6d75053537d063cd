// Copyright 2024 The memlocality Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memaccess_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/omeranson/memlocality/go/analysis/passes/memaccess"
)

func Test(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), memaccess.Analyzer, "a")
}
