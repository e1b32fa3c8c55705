// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command halinfo prints the adapters a HAL backend exposes: their
// features, limits, downlevel flags and texture format support.
//
// Usage:
//
//	halinfo [-backend noop] [-config noop.yaml] [-watch] [-v]
//
// With -config the noop backend is built from a YAML or TOML file. With
// -watch the report is printed again every time that file changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/fsnotify/fsnotify"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/hal"
	"github.com/gogpu/hal/noop"
)

// reportedFormats are the formats listed in the capability table.
var reportedFormats = []gputypes.TextureFormat{
	gputypes.TextureFormatR8Unorm,
	gputypes.TextureFormatRG8Unorm,
	gputypes.TextureFormatRGBA8Unorm,
	gputypes.TextureFormatRGBA8UnormSrgb,
	gputypes.TextureFormatBGRA8Unorm,
	gputypes.TextureFormatBGRA8UnormSrgb,
	gputypes.TextureFormatR32Float,
	gputypes.TextureFormatRGBA16Float,
	gputypes.TextureFormatRGBA32Float,
	gputypes.TextureFormatDepth16Unorm,
	gputypes.TextureFormatDepth24PlusStencil8,
	gputypes.TextureFormatDepth32Float,
}

func main() {
	var (
		backend = flag.String("backend", "", "backend to query (default: best registered)")
		config  = flag.String("config", "", "noop backend config file (.yaml or .toml)")
		watch   = flag.Bool("watch", false, "print again whenever -config changes")
		verbose = flag.Bool("v", false, "log HAL diagnostics to stderr")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	hal.SetLogger(logger)

	if *watch && *config == "" {
		logger.Error("-watch requires -config")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if *watch {
		err = watchConfig(ctx, *config, os.Stdout)
	} else {
		err = run(*backend, *config, os.Stdout)
	}
	if err != nil {
		logger.Error("halinfo failed", "err", err)
		os.Exit(1)
	}
}

// run prints the report of one backend.
func run(name, config string, w io.Writer) error {
	b, err := selectBackend(name, config)
	if err != nil {
		return err
	}
	return report(w, b)
}

// selectBackend returns the noop backend built from config when one is
// given, the backend called name otherwise, or the default backend.
func selectBackend(name, config string) (hal.Backend, error) {
	if config != "" {
		c, err := noop.LoadConfig(config)
		if err != nil {
			return nil, err
		}
		return noop.New(c.Options()...), nil
	}
	if name == "" {
		return hal.DefaultBackend()
	}
	for _, v := range hal.AvailableBackends() {
		if v.String() == name {
			b, _ := hal.GetBackend(v)
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", hal.ErrBackendNotAvailable, name)
}

// report creates an instance of b and describes each adapter.
func report(w io.Writer, b hal.Backend) error {
	inst, err := b.CreateInstance(&hal.InstanceDescriptor{Name: "halinfo"})
	if err != nil {
		return err
	}
	defer inst.Destroy()

	var surface hal.Surface
	if s, err := inst.CreateSurface(0, 1); err == nil {
		surface = s
		defer inst.DestroySurface(s)
	} else {
		hal.Logger().Debug("halinfo: no surface", "err", err)
	}

	adapters := inst.EnumerateAdapters(nil)
	fmt.Fprintf(w, "backend %v: %d adapter(s)\n", b.Variant(), len(adapters))
	if len(adapters) == 0 {
		return errors.New("halinfo: backend exposes no adapters")
	}
	for i, a := range adapters {
		fmt.Fprintln(w)
		describe(w, i, a, surface)
	}
	return nil
}

func describe(w io.Writer, index int, a hal.ExposedAdapter, surface hal.Surface) {
	info := a.Info
	fmt.Fprintf(w, "adapter %d: %s\n", index, info.Name)
	fmt.Fprintf(w, "  type:      %v\n", info.DeviceType)
	fmt.Fprintf(w, "  vendor:    %#x device %#x\n", info.Vendor, info.Device)
	if info.Driver != "" {
		fmt.Fprintf(w, "  driver:    %s %s\n", info.Driver, info.DriverInfo)
	}
	fmt.Fprintf(w, "  features:  %#x\n", uint64(a.Features))
	fmt.Fprintf(w, "  downlevel: %v (shader model %v)\n",
		a.Capabilities.Downlevel.Flags, a.Capabilities.Downlevel.ShaderModel)

	l := a.Capabilities.Limits
	fmt.Fprintln(w, "  limits:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "    max_texture_dimension_2d\t%d\n", l.MaxTextureDimension2D)
	fmt.Fprintf(tw, "    max_buffer_size\t%d\n", l.MaxBufferSize)
	fmt.Fprintf(tw, "    max_bind_groups\t%d\n", l.MaxBindGroups)
	fmt.Fprintf(tw, "    max_vertex_buffers\t%d\n", l.MaxVertexBuffers)
	fmt.Fprintf(tw, "    max_color_attachments\t%d\n", l.MaxColorAttachments)
	fmt.Fprintf(tw, "    max_compute_workgroup_size_x\t%d\n", l.MaxComputeWorkgroupSizeX)
	_ = tw.Flush()

	fmt.Fprintln(w, "  formats:")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range reportedFormats {
		fmt.Fprintf(tw, "    %v\t%v\n", f, a.Adapter.TextureFormatCapabilities(f))
	}
	_ = tw.Flush()

	if surface == nil {
		return
	}
	caps := a.Adapter.SurfaceCapabilities(surface)
	if caps == nil {
		fmt.Fprintln(w, "  surface:   cannot present")
		return
	}
	fmt.Fprintf(w, "  surface:   %v, latency %d..%d, modes %v\n",
		caps.Formats, caps.MinFrameLatency, caps.MaxFrameLatency, caps.PresentModes)
}

// watchConfig prints the report for config, then again after each change
// until ctx is done. A config that fails to load is logged and the
// previous report stays valid.
func watchConfig(ctx context.Context, config string, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace files, so watch the directory.
	if err := watcher.Add(filepath.Dir(config)); err != nil {
		return err
	}
	target := filepath.Clean(config)

	if err := run("", config, w); err != nil {
		hal.Logger().Warn("halinfo: report failed", "config", config, "err", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			fmt.Fprintf(w, "\n--- %s changed\n", config)
			if err := run("", config, w); err != nil {
				hal.Logger().Warn("halinfo: report failed", "config", config, "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			hal.Logger().Warn("halinfo: watcher", "err", err)
		}
	}
}
