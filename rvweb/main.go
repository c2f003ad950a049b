// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build js && wasm

//go:generate cp $GOROOT/lib/wasm/wasm_exec.js .
//go:generate env GOOS=js GOARCH=wasm go build -o main.wasm

// Rvweb runs the kernel in a browser page. The page lists the built-in
// applications; Run boots the selected ones and shows their output and
// exit codes.
package main

import (
	"fmt"
	"html"
	"log"
	"log/slog"
	"os"
	"syscall/js"

	"rsc.io/rvkern/config"
	"rsc.io/rvkern/kernel"
	"rsc.io/rvkern/loader"
)

var (
	doc     js.Value
	console js.Value
	bottom  js.Value
)

// consoleWriter appends task output to the page.
type consoleWriter struct{}

func (consoleWriter) Write(b []byte) (int, error) {
	text := html.EscapeString(string(b))
	console.Set("innerHTML", js.ValueOf(console.Get("innerHTML").String()+text))
	bottom.Call("scrollIntoView", js.ValueOf(false))
	return len(b), nil
}

func selected(sel js.Value) []string {
	var names []string
	opts := sel.Get("options")
	for i := range opts.Length() {
		if o := opts.Index(i); o.Get("selected").Bool() {
			names = append(names, o.Get("value").String())
		}
	}
	return names
}

func run(boot []string, policy string) {
	c := config.Default()
	c.Scheduler = policy
	if len(boot) > 0 {
		c.Boot = boot
	}
	kc, err := c.Kernel()
	if err != nil {
		consoleWriter{}.Write([]byte(err.Error() + "\n"))
		return
	}
	kc.Console = consoleWriter{}
	kc.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	m := kernel.New(kc)
	if err := m.Boot(c.Boot...); err != nil {
		consoleWriter{}.Write([]byte(err.Error() + "\n"))
		return
	}
	m.Start()

	table := doc.Call("getElementById", "exits")
	rows := "<tr><th>pid</th><th>app</th><th>code</th><th>time</th></tr>"
	for _, e := range m.Exits() {
		rows += fmt.Sprintf("<tr><td>%d</td><td>%s</td><td>%d</td><td>%v</td></tr>", e.Pid, html.EscapeString(e.Name), e.Code, e.Time)
	}
	table.Set("innerHTML", js.ValueOf(rows))
}

func main() {
	log.SetPrefix("rvweb: ")
	log.SetFlags(0)

	doc = js.Global().Get("document")
	console = doc.Call("getElementById", "console")
	bottom = doc.Call("getElementById", "bottom")
	apps := doc.Call("getElementById", "apps")
	policy := doc.Call("getElementById", "policy")
	button := doc.Call("getElementById", "run")
	if console.IsNull() || apps.IsNull() || button.IsNull() {
		log.Fatal("page is missing its elements")
	}

	for _, name := range loader.Default().Names() {
		o := doc.Call("createElement", "option")
		o.Set("value", name)
		o.Set("textContent", name)
		if name == "initproc" {
			o.Set("selected", true)
		}
		apps.Call("appendChild", o)
	}

	busy := false
	done := make(chan bool)
	button.Call("addEventListener", "click", js.FuncOf(func(this js.Value, args []js.Value) any {
		if busy {
			return nil
		}
		busy = true
		button.Set("disabled", true)
		console.Set("innerHTML", "")
		boot, pol := selected(apps), policy.Get("value").String()
		go func() {
			run(boot, pol)
			done <- true
		}()
		return nil
	}))
	button.Set("disabled", false)
	fmt.Printf("started\n")

	for range done {
		busy = false
		button.Set("disabled", false)
	}
}
