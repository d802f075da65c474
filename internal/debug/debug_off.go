//go:build !debug

// Package debug provides cheap invariant assertions compiled out of
// production builds; build with -tags debug to enable them. Adapted from
// the teacher's cmn/debug.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package debug

func ON() bool { return false }

func Assert(_ bool, _ ...any)            {}
func Assertf(_ bool, _ string, _ ...any) {}
func AssertNoErr(_ error)                {}
