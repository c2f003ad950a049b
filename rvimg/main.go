// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Rvimg packs a directory of assembly programs into the txtar
// application archive read by the loader package and related commands.
//
// Usage:
//
//	rvimg [-o out.txtar] dir
//	rvimg -x [-o dir] archive
//	rvimg -l archive
//
// Each file name.s in dir becomes the application name. A first line of
// the form
//
//	#: text=0x20000 data=0x40000
//
// sets the section bases of that application. Every program is
// assembled before the archive is written.
//
// The -o flag specifies the name of the output file to write (default standard output).
//
// The -x flag inverts the operation: archive is now a txtar archive, and -o is the
// name of a directory to write the programs into (default _apps).
//
// The -l flag lists the applications in archive with their entry points
// and segment sizes.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"golang.org/x/tools/txtar"

	"rsc.io/rvkern/loader"
)

var (
	outfile = flag.String("o", "", "write output to `file` (default standard output)")
	xflag   = flag.Bool("x", false, "extract txtar archive")
	lflag   = flag.Bool("l", false, "list txtar archive")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: rvimg [-o out.txtar] dir\n       rvimg -x [-o dir] archive\n       rvimg -l archive\n")
	os.Exit(2)
}

// headerPrefix marks the line of a program file holding its archive keys.
const headerPrefix = "#: "

func main() {
	log.SetPrefix("rvimg: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 || *xflag && *lflag {
		usage()
	}

	switch {
	case *lflag:
		data, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatal(err)
		}
		if err := list(os.Stdout, data); err != nil {
			log.Fatal(err)
		}

	case *xflag:
		if *outfile == "" {
			*outfile = "_apps"
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatal(err)
		}
		if err := extract(data, *outfile); err != nil {
			log.Fatal(err)
		}

	default:
		data, err := pack(args[0])
		if err != nil {
			log.Fatal(err)
		}
		if *outfile == "" {
			os.Stdout.Write(data)
			return
		}
		if err := os.WriteFile(*outfile, data, 0666); err != nil {
			log.Fatal(err)
		}
	}
}

// pack builds an archive from the .s files in dir.
func pack(dir string) ([]byte, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.s"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .s files in %s", dir)
	}
	slices.Sort(files)
	ar := new(txtar.Archive)
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(file), ".s")
		if first, rest, ok := bytes.Cut(src, []byte("\n")); ok && bytes.HasPrefix(first, []byte(headerPrefix)) {
			name += " " + strings.TrimSpace(string(first[len(headerPrefix):]))
			src = rest
		}
		if len(src) > 0 && !bytes.HasSuffix(src, []byte("\n")) {
			src = append(src, '\n')
		}
		ar.Files = append(ar.Files, txtar.File{Name: name, Data: src})
	}
	data := txtar.Format(ar)
	if _, err := loader.Parse(data); err != nil {
		return nil, err
	}
	return data, nil
}

// extract writes each program of the archive to dir as name.s.
func extract(data []byte, dir string) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}
	for _, f := range txtar.Parse(data).Files {
		name, _, _, err := loader.ParseHeader(f.Name)
		if err != nil {
			return err
		}
		src := f.Data
		if _, keys, ok := strings.Cut(strings.TrimSpace(f.Name), " "); ok {
			src = append([]byte(headerPrefix+strings.TrimSpace(keys)+"\n"), src...)
		}
		if err := os.WriteFile(filepath.Join(dir, name+".s"), src, 0666); err != nil {
			return err
		}
	}
	return nil
}

// list prints the applications in the archive.
func list(w io.Writer, data []byte) error {
	a, err := loader.Parse(data)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tENTRY\tSEGMENTS\tSIZE\n")
	for _, name := range a.Names() {
		img, _ := a.Lookup(name)
		var segs []string
		for _, s := range img.Segments {
			segs = append(segs, fmt.Sprintf("%#x/%s", s.Vaddr, s.Perm))
		}
		fmt.Fprintf(tw, "%s\t%#x\t%s\t%d\n", name, img.Entry, strings.Join(segs, " "), img.Size())
	}
	return tw.Flush()
}
