package main

import (
	"os"
)

// @title Properties Merge Resolution API
// @version 1.0
// @description Manual resolution of conflicting keys left by merging per-module properties files

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /
// @schemes http https

// @tag.name Resolution
// @tag.description Locale selection and conflict resolution

// @tag.name Outputs
// @tag.description Read access to merged outputs

// @tag.name System
// @tag.description Service health

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
