package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Dispatch(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
