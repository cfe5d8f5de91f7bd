// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// ReleaseFunc frees one resource. A returned error is only reported.
type ReleaseFunc func() error

type releaseEntry struct {
	name string
	fn   ReleaseFunc
}

// NewReleaseStack creates an empty stack reporting to log.
func NewReleaseStack(log logrus.FieldLogger) *ReleaseStack {
	return &ReleaseStack{
		log: log,
	}
}

// ReleaseStack records resources in creation order and releases
// them in reverse. Errors during release are logged as warnings and
// the remaining entries are still released.
type ReleaseStack struct {
	log logrus.FieldLogger

	mutex   sync.Mutex
	entries []releaseEntry
}

// Push records a resource. The name is used for logging.
func (s *ReleaseStack) Push(name string, fn ReleaseFunc) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entries = append(s.entries, releaseEntry{name: name, fn: fn})
}

// PushReleasable records r, its Release is never expected to fail.
func (s *ReleaseStack) PushReleasable(name string, r Releasable) {
	s.Push(name, func() error {
		r.Release()
		return nil
	})
}

// Len returns the number of resources still held.
func (s *ReleaseStack) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.entries)
}

// Release destroys every recorded resource, last pushed first.
// The stack is empty afterwards, so calling it again does nothing.
func (s *ReleaseStack) Release() {
	s.mutex.Lock()
	entries := s.entries
	s.entries = nil
	s.mutex.Unlock()

	for idx := len(entries) - 1; idx >= 0; idx-- {
		e := entries[idx]
		if err := e.fn(); err != nil {
			s.log.WithError(err).Warnf("release %s", e.name)
			continue
		}
		s.log.Debugf("released %s", e.name)
	}
}
