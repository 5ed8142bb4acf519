// The femcore command inspects tag recordings produced by model sessions.
package main

import "github.com/sarchlab/femcore/femcore/cmd"

func main() {
	cmd.Execute()
}
