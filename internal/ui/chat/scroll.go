// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
)

const (
	scrollFPS       = 60
	scrollFrequency = 7.0
	scrollDamping   = 1.0 // critically damped: no overshoot past the last line
)

// scroller animates the viewport offset toward a target line.
type scroller struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64
	active bool
	gen    int
}

func newScroller() scroller {
	return scroller{
		spring: harmonica.NewSpring(harmonica.FPS(scrollFPS), scrollFrequency, scrollDamping),
	}
}

// start aims the animation at target from the current offset and returns the
// first tick.
func (s *scroller) start(from, target int) tea.Cmd {
	if !s.active {
		s.pos = float64(from)
		s.vel = 0
	}
	s.target = float64(target)
	s.active = true
	s.gen++
	return s.tick()
}

// step advances one frame and reports the offset to show. done is true once
// the offset has settled on the target.
func (s *scroller) step() (offset int, done bool) {
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, s.target)
	if math.Abs(s.target-s.pos) < 0.5 && math.Abs(s.vel) < 0.5 {
		s.pos = s.target
		s.vel = 0
		s.active = false
		return int(s.target), true
	}
	return int(math.Round(s.pos)), false
}

func (s *scroller) stop() {
	s.active = false
	s.vel = 0
	s.gen++
}

func (s *scroller) tick() tea.Cmd {
	gen := s.gen
	return tea.Tick(time.Second/scrollFPS, func(time.Time) tea.Msg {
		return scrollTickMsg{gen: gen}
	})
}
