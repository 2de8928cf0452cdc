package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultProgressInterval = 2 * time.Second

type runPaths struct {
	Input        string
	Output       string
	OutputExists bool
}

// resolvePaths checks the input and output paths before any work is done.
// An empty output means overwriting the input.
func resolvePaths(input, output string) (runPaths, error) {
	in, err := filepath.Abs(input)
	if err != nil {
		return runPaths{}, fmt.Errorf("input path %q: %w", input, err)
	}
	info, err := os.Stat(in)
	if err != nil {
		return runPaths{}, fmt.Errorf("could not find input path: %s", input)
	}
	if info.IsDir() {
		return runPaths{}, fmt.Errorf("input path %s is a directory", in)
	}
	if !hasP3DExt(in) {
		return runPaths{}, errors.New("input must be a P3D file")
	}

	if output == "" {
		output = in
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return runPaths{}, fmt.Errorf("output path %q: %w", output, err)
	}
	if !hasP3DExt(out) {
		return runPaths{}, errors.New("output must be a P3D file")
	}

	dir := filepath.Dir(out)
	if d, err := os.Stat(dir); err != nil || !d.IsDir() {
		return runPaths{}, fmt.Errorf("output directory %q doesn't exist", dir)
	}

	p := runPaths{Input: in, Output: out}
	if oi, err := os.Stat(out); err == nil {
		if oi.IsDir() {
			return runPaths{}, fmt.Errorf("output path %s is a directory", out)
		}
		if oi.Mode().Perm()&0200 == 0 {
			return runPaths{}, fmt.Errorf("output path %q is read only", out)
		}
		p.OutputExists = true
	}
	return p, nil
}

func hasP3DExt(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".p3d")
}

// confirmOverwrite asks until the answer is yes or no. End of input means no.
func confirmOverwrite(in io.Reader, out io.Writer, path string) (bool, error) {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Output file %q already exists. Do you want to overwrite? [Yes/No]\n", path)
		if !sc.Scan() {
			return false, sc.Err()
		}
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
	}
}
