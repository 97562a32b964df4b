/*
 * MIT License
 *
 * Copyright (c) 2025-2026  Hive Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package hive

import (
	"encoding/binary"
	"fmt"

	"github.com/hivekit/hive/errors"
)

// MessageClass identifies the kind of a mailbox message.
type MessageClass int32

const (
	// ClassAny is the wildcard class usable in receive filters. It is never
	// carried by an actual message.
	ClassAny MessageClass = iota - 1
	// ClassNotify identifies a plain asynchronous notification.
	ClassNotify
	// ClassRequest identifies one half of a correlated request/reply pair.
	ClassRequest
	// ClassReply identifies the reply half of a correlated request/reply pair.
	ClassReply
	// ClassTimer identifies a timer expiry; the message tag is the timer id.
	ClassTimer
	// ClassExit identifies a death notification produced by links and
	// monitors; the payload carries the dead actor id and its exit reason.
	ClassExit
)

// String returns the string representation of the message class.
func (c MessageClass) String() string {
	switch c {
	case ClassAny:
		return "ANY"
	case ClassNotify:
		return "NOTIFY"
	case ClassRequest:
		return "REQUEST"
	case ClassReply:
		return "REPLY"
	case ClassTimer:
		return "TIMER"
	case ClassExit:
		return "EXIT"
	default:
		return ""
	}
}

// Tag correlates requests with replies and identifies timers and monitor
// references. The high bit marks tags generated by the runtime; user tags
// must leave it clear.
type Tag uint32

const (
	// TagAny is the wildcard tag usable in receive filters. It is never
	// allocated to a message.
	TagAny Tag = 1<<32 - 1

	runtimeTagBit Tag = 1 << 31
)

// RuntimeGenerated reports whether the tag was produced by the runtime
// (request correlation, timer ids, monitor references) rather than supplied
// by user code.
func (t Tag) RuntimeGenerated() bool {
	return t != TagAny && t&runtimeTagBit != 0
}

// Message is the in-process message header handed to receivers. Payload is an
// owned copy; the receiver may retain or mutate it freely.
type Message struct {
	Sender  ActorID
	Class   MessageClass
	Tag     Tag
	Payload []byte
}

// AnySender is the wildcard sender usable in receive filters. Actor ids are
// never zero.
const AnySender ActorID = 0

// Filter selects mailbox messages by sender, class, and tag. Each field may
// independently be a wildcard (AnySender, ClassAny, TagAny).
type Filter struct {
	Sender ActorID
	Class  MessageClass
	Tag    Tag
}

// MatchAny returns a filter that matches every message.
func MatchAny() Filter {
	return Filter{Sender: AnySender, Class: ClassAny, Tag: TagAny}
}

func (f Filter) match(sender ActorID, class MessageClass, tag Tag) bool {
	if f.Sender != AnySender && f.Sender != sender {
		return false
	}
	if f.Class != ClassAny && f.Class != class {
		return false
	}
	if f.Tag != TagAny && f.Tag != tag {
		return false
	}
	return true
}

const exitPayloadSize = 8

func encodeExit(id ActorID, reason ExitReason) []byte {
	buf := make([]byte, exitPayloadSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(id))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(reason))
	return buf
}

// DecodeExit extracts the dead actor id and exit reason from an EXIT-class
// message delivered through a link or monitor.
func DecodeExit(msg *Message) (ActorID, ExitReason, error) {
	if msg == nil || msg.Class != ClassExit || len(msg.Payload) != exitPayloadSize {
		return 0, 0, fmt.Errorf("decode exit: %w", errors.ErrInvalidArgument)
	}
	id := ActorID(binary.LittleEndian.Uint32(msg.Payload[0:4]))
	reason := ExitReason(binary.LittleEndian.Uint32(msg.Payload[4:8]))
	return id, reason, nil
}
