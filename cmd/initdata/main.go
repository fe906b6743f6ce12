package main

import (
	"log"
	"os"

	"github.com/dmitrijs2005/swappy/internal/client/initdata"
)

func main() {
	if err := initdata.Run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}
