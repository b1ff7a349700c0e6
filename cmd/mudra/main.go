// Command mudra recognizes hand gestures from a camera and turns them into
// actions, events and notifications.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
