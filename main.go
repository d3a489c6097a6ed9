// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/nycapts/aptsearch/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
