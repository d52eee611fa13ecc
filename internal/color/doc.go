// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color provides ANSI color codes for terminal text output.
// Color output is disabled when NO_COLOR is set or when stdout is not a
// terminal, and can be forced on with FORCE_COLOR.
package color
