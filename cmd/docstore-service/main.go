package main

import (
	"os"

	"github.com/inkwell-app/inkwell/docstoreservice"
)

func main() {
	if err := docstoreservice.Run(); err != nil {
		os.Exit(1)
	}
}
