// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	_ "embed"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/tools/txtar"
)

//go:embed apps.txtar
var appsTxtar []byte

// An Archive is a set of named application images.
type Archive struct {
	images map[string]*Image
}

// Parse builds every application in a txtar archive. Each file is
//
//	-- name [text=0x...] [data=0x...] --
//
// followed by the program's assembly source.
func Parse(archive []byte) (*Archive, error) {
	return fromTxtar(txtar.Parse(archive))
}

// Load reads and parses the archive in file.
func Load(file string) (*Archive, error) {
	ar, err := txtar.ParseFile(file)
	if err != nil {
		return nil, err
	}
	return fromTxtar(ar)
}

func fromTxtar(ar *txtar.Archive) (*Archive, error) {
	a := &Archive{images: make(map[string]*Image)}
	for _, file := range ar.Files {
		name, text, data, err := ParseHeader(file.Name)
		if err != nil {
			return nil, err
		}
		if _, dup := a.images[name]; dup {
			return nil, fmt.Errorf("duplicate app %s", name)
		}
		img, err := Build(name, string(file.Data), text, data)
		if err != nil {
			return nil, err
		}
		a.images[name] = img
	}
	return a, nil
}

// ParseHeader splits a txtar file name into the app name and its
// section bases.
func ParseHeader(hdr string) (name string, text, data uint64, err error) {
	f := strings.Fields(hdr)
	if len(f) == 0 {
		return "", 0, 0, fmt.Errorf("empty app name")
	}
	name = f[0]
	for _, arg := range f[1:] {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return "", 0, 0, fmt.Errorf("%s: invalid txtar k=v: %s", name, arg)
		}
		n, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return "", 0, 0, fmt.Errorf("%s: invalid txtar k=v: %s", name, arg)
		}
		switch k {
		default:
			return "", 0, 0, fmt.Errorf("%s: invalid txtar k=v: %s", name, arg)
		case "text":
			text = n
		case "data":
			data = n
		}
	}
	return name, text, data, nil
}

// Lookup returns the image with the given name.
func (a *Archive) Lookup(name string) (*Image, bool) {
	img, ok := a.images[name]
	return img, ok
}

// Names returns the application names in sorted order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.images))
	for name := range a.images {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Default returns the built-in applications.
var Default = sync.OnceValue(func() *Archive {
	a, err := Parse(appsTxtar)
	if err != nil {
		panic("loader: built-in apps: " + err.Error())
	}
	return a
})
