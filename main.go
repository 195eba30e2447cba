// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/pharmafinder/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
