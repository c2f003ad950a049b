// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config reads the boot configuration of the kernel runner.
//
// A configuration is an HCL file of top-level attributes:
//
//	scheduler        = "stride"      # or "round_robin"
//	big_stride       = 65536
//	default_priority = 16
//	quantum          = 1000          # instructions per timer tick
//	frames           = 32 * mib / page_size
//	boot             = ["initproc"]
//	apps             = "apps.txtar"  # optional, relative to the file
//	trace            = false
//
// Expressions may use page_size, kib and mib, and the min and max functions.
// Every attribute is optional.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"rsc.io/rvkern/kernel"
	"rsc.io/rvkern/loader"
	"rsc.io/rvkern/mm"
)

// Scheduler names.
const (
	Stride     = "stride"
	RoundRobin = "round_robin"
)

// A Config is a decoded boot configuration.
type Config struct {
	Scheduler       string   `hcl:"scheduler,optional"`
	BigStride       uint64   `hcl:"big_stride,optional"`
	DefaultPriority int64    `hcl:"default_priority,optional"`
	Quantum         int      `hcl:"quantum,optional"`
	Frames          int      `hcl:"frames,optional"`
	Boot            []string `hcl:"boot,optional"`
	Apps            string   `hcl:"apps,optional"`
	Trace           bool     `hcl:"trace,optional"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Scheduler:       Stride,
		BigStride:       kernel.BigStride,
		DefaultPriority: kernel.DefaultPriority,
		Quantum:         kernel.Quantum,
		Frames:          kernel.Frames,
		Boot:            []string{"initproc"},
	}
}

var evalContext = &hcl.EvalContext{
	Variables: map[string]cty.Value{
		"page_size": cty.NumberIntVal(mm.PageSize),
		"kib":       cty.NumberIntVal(1 << 10),
		"mib":       cty.NumberIntVal(1 << 20),
	},
	Functions: map[string]function.Function{
		"min": stdlib.MinFunc,
		"max": stdlib.MaxFunc,
	},
}

// Parse decodes the configuration in src over the defaults.
// Filename is used in error messages.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", filename, diags)
	}
	c := Default()
	if diags := gohcl.DecodeBody(file.Body, evalContext, c); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %w", filename, diags)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}

// Load reads and parses the configuration file at path.
// A relative apps path is taken relative to the file.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(src, path)
	if err != nil {
		return nil, err
	}
	if c.Apps != "" && !filepath.IsAbs(c.Apps) {
		c.Apps = filepath.Join(filepath.Dir(path), c.Apps)
	}
	return c, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.Scheduler {
	case Stride, RoundRobin:
	default:
		errs = append(errs, fmt.Errorf("unknown scheduler %q", c.Scheduler))
	}
	if c.BigStride == 0 {
		errs = append(errs, fmt.Errorf("big_stride must be positive"))
	}
	if c.DefaultPriority < kernel.MinPriority {
		errs = append(errs, fmt.Errorf("default_priority %d below %d", c.DefaultPriority, kernel.MinPriority))
	}
	if c.Quantum <= 0 {
		errs = append(errs, fmt.Errorf("quantum must be positive"))
	}
	if c.Frames <= 0 {
		errs = append(errs, fmt.Errorf("frames must be positive"))
	}
	if len(c.Boot) == 0 {
		errs = append(errs, fmt.Errorf("nothing to boot"))
	}
	return errors.Join(errs...)
}

// Kernel returns the kernel configuration c describes, loading the
// application archive if one is named. The caller supplies the
// switcher, clock, console and logger.
func (c *Config) Kernel() (kernel.Config, error) {
	if err := c.validate(); err != nil {
		return kernel.Config{}, err
	}
	apps := loader.Default()
	if c.Apps != "" {
		a, err := loader.Load(c.Apps)
		if err != nil {
			return kernel.Config{}, fmt.Errorf("apps: %w", err)
		}
		apps = a
	}
	for _, name := range c.Boot {
		if _, ok := apps.Lookup(name); !ok {
			return kernel.Config{}, fmt.Errorf("boot: no app %q", name)
		}
	}
	var policy kernel.Policy = kernel.Stride{BigStride: c.BigStride}
	if c.Scheduler == RoundRobin {
		policy = kernel.RoundRobin{}
	}
	return kernel.Config{
		Apps:            apps,
		Policy:          policy,
		DefaultPriority: c.DefaultPriority,
		Quantum:         c.Quantum,
		Frames:          c.Frames,
		Trace:           c.Trace,
	}, nil
}
