package main

import (
	"code.hybscloud.com/atomix"
	"github.com/google/uuid"
)

// sessionState accumulates what the pipeline has seen for one session. Tasks of
// one session run sequentially, but an eviction can read the state while a task
// of that session still updates it, hence the atomics.
type sessionState struct {
	frames  atomix.Uint64
	bytes   atomix.Uint64
	lastSeq atomix.Uint64
}

func (s *sessionState) apply(f frame) {
	s.frames.AddAcqRel(1)
	s.bytes.AddAcqRel(uint64(len(f.payload)))
	s.lastSeq.StoreRelease(f.seq)
}

// sessionSummary is an immutable copy of a sessionState.
type sessionSummary struct {
	Session uuid.UUID `json:"session"`
	Frames  uint64    `json:"frames"`
	Bytes   uint64    `json:"bytes"`
	LastSeq uint64    `json:"last_seq"`
}

func (s *sessionState) summary(id uuid.UUID) sessionSummary {
	return sessionSummary{
		Session: id,
		Frames:  s.frames.LoadAcquire(),
		Bytes:   s.bytes.LoadAcquire(),
		LastSeq: s.lastSeq.LoadAcquire(),
	}
}

// journalEntry records one applied frame.
type journalEntry struct {
	session uuid.UUID
	seq     uint64
}
