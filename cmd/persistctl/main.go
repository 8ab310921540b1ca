// Command persistctl inspects and removes persisted slice envelopes in a
// file-backed store.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
