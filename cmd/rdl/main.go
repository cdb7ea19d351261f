package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

func main() {
	bin, err := exec.LookPath("roadloom")
	if err != nil {
		fmt.Fprintln(os.Stderr, "rdl: roadloom not found on PATH")
		os.Exit(1)
	}
	if err := syscall.Exec(bin, append([]string{"roadloom"}, os.Args[1:]...), os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "rdl: %v\n", err)
		os.Exit(1)
	}
}
