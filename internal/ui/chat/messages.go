// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/elysian-tui/internal/config"
	"github.com/jeranaias/elysian-tui/internal/coordinator"
)

// OutcomeMsg carries a settled submission back into the update loop.
type OutcomeMsg struct {
	Outcome coordinator.Outcome
}

// ClearedMsg reports the result of a clear request.
type ClearedMsg struct {
	Err error
}

// ConfigReloadedMsg delivers a reloaded configuration from the file watcher.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// scrollTickMsg advances the smooth scroll animation. Ticks from an
// animation that has since been replaced are ignored by generation.
type scrollTickMsg struct {
	gen int
}
