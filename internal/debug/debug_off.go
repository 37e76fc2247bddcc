//go:build !debug

// Package debug provides zero-cost (in release builds) assertions used
// to catch fabric invariant violations during development.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package debug

func ON() bool { return false }

func Assert(_ bool, _ ...any)            {}
func Assertf(_ bool, _ string, _ ...any) {}
func AssertNoErr(_ error)                {}
func Func(_ func())                      {}

// EnterHandler/ExitHandler/InHandler support a best-effort debug-only
// check that a sink handler does not itself release the payload it was
// handed (spec §9 open question) - no-ops in release builds.
func EnterHandler()      {}
func ExitHandler()       {}
func InHandler() bool    { return false }
func AssertNotInHandler(_ ...any) {}
