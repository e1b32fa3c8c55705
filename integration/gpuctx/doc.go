// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpuctx exposes an opened HAL device as a
// gpucontext.DeviceProvider, so that libraries written against gpucontext
// (gg, gogpu) can share a device created through hal.
//
// A Provider owns the device, its queue and a fence. Work submitted
// through the provider signals the fence, and Device.Poll waits on it:
//
//	inst, _ := noop.New().CreateInstance(nil)
//	p, err := gpuctx.Open(inst)
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	if _, err := p.Submit(cmds); err != nil {
//		return err
//	}
//	p.Device().Poll(true) // blocks until cmds completed
//
// Consumers that need the HAL objects themselves use HalDevice and
// HalQueue, the same hook gg accelerators look for.
package gpuctx
