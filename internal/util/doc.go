// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across elysian packages.
//
//   - AtomicWriteFile: crash-safe file writes (temp file, fsync, rename)
//   - RemoveIfExists: delete that tolerates a missing file
//   - TruncateRunes, TruncateWidth: UTF-8 and cell-width safe truncation
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	label := util.TruncateWidth(title, 40)
package util
