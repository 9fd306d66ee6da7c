package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
)

const serviceName = "store-auth"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
