// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runsweep launches the generated commands as independent OS
// processes and collects their results. All launches are issued before any
// result is collected, so the children overlap in wall-clock time, then the
// processes are drained strictly in launch order. Draining in launch order
// keeps console echo and log rows deterministic at the cost of a fast
// process launched late waiting behind slower earlier ones.
package runsweep
