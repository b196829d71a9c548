package closer_test

import (
	"fmt"
	"io"
	"os"

	"github.com/cadencehq/mongoconn/closer"
)

func ExampleErrorHandler() {
	output, err := readAll("example_test.go")
	if err != nil {
		os.Exit(1)
	}
	fmt.Println(output[:19])

	// output: package closer_test
}

func readAll(name string) (_ string, err error) {
	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer closer.ErrorHandler(f, &err)

	b, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	return string(b), nil
}
