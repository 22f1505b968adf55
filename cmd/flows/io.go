package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// readInput returns the joined args, or stdin when args is empty or "-".
func readInput(args []string) (string, error) {
	return readInputFrom(os.Stdin, args)
}

func readInputFrom(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.Join(args, " "), nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
