// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carillon-foundation/carillon/call"
	"github.com/carillon-foundation/carillon/lib/codec"
)

// Type tags the payload carried by an Envelope.
type Type string

const (
	TypeOffer     Type = "offer"
	TypeAnswer    Type = "answer"
	TypeIceUpdate Type = "ice-update"
	TypeHangup    Type = "hangup"
	TypeBusy      Type = "busy"
)

// IceCandidate is the wire form of one ICE candidate.
type IceCandidate struct {
	Mid       string `cbor:"mid"`
	LineIndex int32  `cbor:"line_index"`
	SDP       string `cbor:"sdp"`
}

// CandidateFromCall converts an engine candidate to wire form.
func CandidateFromCall(candidate call.IceCandidate) IceCandidate {
	return IceCandidate{
		Mid:       candidate.SDPMid,
		LineIndex: candidate.SDPMLineIndex,
		SDP:       candidate.SDP,
	}
}

// ToCall converts a wire candidate back to the engine form.
func (c IceCandidate) ToCall() call.IceCandidate {
	return call.IceCandidate{
		SDPMid:        c.Mid,
		SDPMLineIndex: c.LineIndex,
		SDP:           c.SDP,
	}
}

// Offer asks the remote party to take a call. Timestamp is the
// composer's wall clock; the receiving engine uses it for expiry.
type Offer struct {
	CallID    uint64   `cbor:"call_id"`
	SDP       string   `cbor:"sdp"`
	Devices   []uint32 `cbor:"devices,omitempty"`
	Timestamp int64    `cbor:"timestamp"` // Unix milliseconds
}

// Time returns the offer's composition time.
func (o *Offer) Time() time.Time { return time.UnixMilli(o.Timestamp) }

// Answer accepts an offer from one specific device.
type Answer struct {
	CallID    uint64 `cbor:"call_id"`
	SrcDevice uint32 `cbor:"src_device"`
	SDP       string `cbor:"sdp"`
}

// IceUpdate carries a batch of trickled candidates.
type IceUpdate struct {
	CallID     uint64         `cbor:"call_id"`
	SrcDevice  uint32         `cbor:"src_device"`
	Candidates []IceCandidate `cbor:"candidates"`
}

// Hangup ends a call.
type Hangup struct {
	CallID uint64 `cbor:"call_id"`
}

// Busy rejects an offer because another call is active.
type Busy struct {
	CallID uint64 `cbor:"call_id"`
}

// Envelope is one signaling message in transit. Exactly one payload
// pointer is set, matching Type. ID is assigned at construction so
// transports can deduplicate and trace deliveries.
type Envelope struct {
	ID        uuid.UUID  `cbor:"id"`
	Type      Type       `cbor:"type"`
	Offer     *Offer     `cbor:"offer,omitempty"`
	Answer    *Answer    `cbor:"answer,omitempty"`
	IceUpdate *IceUpdate `cbor:"ice_update,omitempty"`
	Hangup    *Hangup    `cbor:"hangup,omitempty"`
	Busy      *Busy      `cbor:"busy,omitempty"`
}

// NewOffer wraps an offer in a fresh envelope.
func NewOffer(offer Offer) Envelope {
	return Envelope{ID: uuid.New(), Type: TypeOffer, Offer: &offer}
}

// NewAnswer wraps an answer in a fresh envelope.
func NewAnswer(answer Answer) Envelope {
	return Envelope{ID: uuid.New(), Type: TypeAnswer, Answer: &answer}
}

// NewIceUpdate wraps a candidate batch in a fresh envelope.
func NewIceUpdate(update IceUpdate) Envelope {
	return Envelope{ID: uuid.New(), Type: TypeIceUpdate, IceUpdate: &update}
}

// NewHangup wraps a hangup in a fresh envelope.
func NewHangup(hangup Hangup) Envelope {
	return Envelope{ID: uuid.New(), Type: TypeHangup, Hangup: &hangup}
}

// NewBusy wraps a busy rejection in a fresh envelope.
func NewBusy(busy Busy) Envelope {
	return Envelope{ID: uuid.New(), Type: TypeBusy, Busy: &busy}
}

// validate checks that the payload pointer matches the type tag.
func (e *Envelope) validate() error {
	var ok bool
	switch e.Type {
	case TypeOffer:
		ok = e.Offer != nil
	case TypeAnswer:
		ok = e.Answer != nil
	case TypeIceUpdate:
		ok = e.IceUpdate != nil
	case TypeHangup:
		ok = e.Hangup != nil
	case TypeBusy:
		ok = e.Busy != nil
	default:
		return fmt.Errorf("signaling: unknown message type %q", e.Type)
	}
	if !ok {
		return fmt.Errorf("signaling: envelope of type %q has no matching payload", e.Type)
	}
	return nil
}

// Encode renders the envelope in canonical CBOR.
func Encode(envelope Envelope) ([]byte, error) {
	if err := envelope.validate(); err != nil {
		return nil, err
	}
	data, err := codec.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("signaling: encoding %s envelope: %w", envelope.Type, err)
	}
	return data, nil
}

// Decode parses a canonical CBOR envelope and checks its payload
// matches the type tag.
func Decode(data []byte) (Envelope, error) {
	var envelope Envelope
	if err := codec.Unmarshal(data, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("signaling: decoding envelope: %w", err)
	}
	if err := envelope.validate(); err != nil {
		return Envelope{}, err
	}
	return envelope, nil
}
