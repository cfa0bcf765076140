package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"palaver/internal/crypto"
	"palaver/internal/domain"
)

// Prefix marks a protocol broadcast inside the plaintext room.
const Prefix = "?PLV:"

const (
	version   = 1
	magic     = "plv"
	sigBytes  = 64
	hashBytes = 32
)

// Envelope is a decoded frame plus the material needed to check its
// signature once the sender's ephemeral key is known.
type Envelope struct {
	Message

	signed []byte
	sig    []byte
}

// Verify checks the frame signature against the sender's ephemeral signing
// key.
func (e *Envelope) Verify(pub domain.Ed25519Public) bool {
	return crypto.VerifyEd25519(pub, e.signed, e.sig)
}

// IsProtocol reports whether a room string is a protocol broadcast.
func IsProtocol(raw string) bool {
	return strings.HasPrefix(raw, Prefix)
}

// Encode frames, signs and armors m.
func Encode(m Message, signKey domain.Ed25519Private) (string, error) {
	body, err := encodeBody(m)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.WriteByte(version)
	buf.WriteByte(byte(m.Type))
	if m.Type != TypeJoinRequest {
		buf.Write(m.SessionID[:])
	}
	if len(m.Sender) > 0xffff {
		return "", fmt.Errorf("encode %s: %w: nickname too long", m.Type, domain.ErrParse)
	}
	writeU16(&buf, uint16(len(m.Sender)))
	buf.WriteString(m.Sender)
	buf.Write(body)

	sig := crypto.SignEd25519(signKey, buf.Bytes())
	buf.Write(sig)

	return Prefix + crypto.B64(buf.Bytes()), nil
}

// Decode strips the armor and parses the frame. The signature is retained
// but not checked; callers verify once they have resolved the sender's
// ephemeral key.
func Decode(raw string) (*Envelope, error) {
	if !strings.HasPrefix(raw, Prefix) {
		return nil, fmt.Errorf("decode: %w: missing prefix", domain.ErrParse)
	}
	frame, err := base64.StdEncoding.DecodeString(raw[len(Prefix):])
	if err != nil {
		return nil, fmt.Errorf("decode: %w: %v", domain.ErrParse, err)
	}
	if len(frame) < len(magic)+2+sigBytes {
		return nil, fmt.Errorf("decode: %w: frame too short", domain.ErrParse)
	}

	sigStart := len(frame) - sigBytes
	env := &Envelope{
		signed: frame[:sigStart],
		sig:    frame[sigStart:],
	}

	r := &reader{b: frame[:sigStart]}
	if string(r.take(len(magic))) != magic || r.u8() != version {
		return nil, fmt.Errorf("decode: %w: bad magic or version", domain.ErrParse)
	}
	env.Type = Type(r.u8())
	if env.Type < TypeJoinRequest || env.Type > TypeAckQuery {
		return nil, fmt.Errorf("decode: %w: unknown type %d", domain.ErrParse, env.Type)
	}
	if env.Type != TypeJoinRequest {
		copy(env.SessionID[:], r.take(hashBytes))
	}
	env.Sender = string(r.take(int(r.u16())))
	if r.failed {
		return nil, fmt.Errorf("decode %s: %w: truncated header", env.Type, domain.ErrParse)
	}

	if err := decodeBody(&env.Message, r); err != nil {
		return nil, err
	}
	if r.failed || len(r.b) != 0 {
		return nil, fmt.Errorf("decode %s: %w: bad body length", env.Type, domain.ErrParse)
	}
	return env, nil
}

func encodeBody(m Message) ([]byte, error) {
	var buf bytes.Buffer
	switch m.Type {
	case TypeJoinRequest:
		buf.Write(m.JoinRequest.LongTerm.Bytes())
		buf.Write(m.JoinRequest.Ephemeral.Bytes())
	case TypeParticipantInfo:
		pi := m.ParticipantInfo
		writeU16(&buf, uint16(len(pi.Participants)))
		for _, p := range pi.Participants {
			writeU16(&buf, uint16(len(p.ID.Nickname)))
			buf.WriteString(p.ID.Nickname)
			buf.Write(p.ID.LongTerm.Bytes())
			buf.Write(p.Ephemeral.Bytes())
		}
		buf.Write(pi.JoinerToken[:])
		buf.Write(pi.Share[:])
	case TypeJoinerAuth:
		ja := m.JoinerAuth
		idx := make([]uint32, 0, len(ja.Tokens))
		for i := range ja.Tokens {
			idx = append(idx, i)
		}
		sort.Slice(idx, func(a, b int) bool { return idx[a] < idx[b] })
		writeU16(&buf, uint16(len(idx)))
		for _, i := range idx {
			writeU32(&buf, i)
			tok := ja.Tokens[i]
			buf.Write(tok[:])
		}
		buf.Write(ja.Share[:])
	case TypeReShare:
		buf.Write(m.ReShare.Share[:])
	case TypeSessionConfirmation:
		buf.Write(m.Confirmation.Confirmation[:])
	case TypeUser:
		buf.Write(m.User.TranscriptHash[:])
		buf.Write(m.User.Box)
	case TypeFarewell:
		buf.Write(m.Farewell.TranscriptHash[:])
		buf.WriteString(m.Farewell.Text)
	case TypeHeartbeat, TypeAck, TypeAckQuery:
	default:
		return nil, fmt.Errorf("encode: %w: unknown type %d", domain.ErrParse, m.Type)
	}
	return buf.Bytes(), nil
}

func decodeBody(m *Message, r *reader) error {
	switch m.Type {
	case TypeJoinRequest:
		var jr JoinRequest
		var ok bool
		if jr.LongTerm, ok = domain.PublicKeyFromBytes(r.take(domain.PublicKeySize)); !ok {
			r.failed = true
		}
		if jr.Ephemeral, ok = domain.PublicKeyFromBytes(r.take(domain.PublicKeySize)); !ok {
			r.failed = true
		}
		m.JoinRequest = &jr
	case TypeParticipantInfo:
		var pi ParticipantInfo
		n := int(r.u16())
		for i := 0; i < n && !r.failed; i++ {
			var p domain.UnauthenticatedParticipant
			p.ID.Nickname = string(r.take(int(r.u16())))
			var ok bool
			if p.ID.LongTerm, ok = domain.PublicKeyFromBytes(r.take(domain.PublicKeySize)); !ok {
				r.failed = true
			}
			if p.Ephemeral, ok = domain.PublicKeyFromBytes(r.take(domain.PublicKeySize)); !ok {
				r.failed = true
			}
			pi.Participants = append(pi.Participants, p)
		}
		copy(pi.JoinerToken[:], r.take(hashBytes))
		copy(pi.Share[:], r.take(hashBytes))
		m.ParticipantInfo = &pi
	case TypeJoinerAuth:
		ja := JoinerAuth{Tokens: make(map[uint32][32]byte)}
		n := int(r.u16())
		for i := 0; i < n && !r.failed; i++ {
			idx := r.u32()
			var tok [32]byte
			copy(tok[:], r.take(hashBytes))
			ja.Tokens[idx] = tok
		}
		copy(ja.Share[:], r.take(hashBytes))
		m.JoinerAuth = &ja
	case TypeReShare:
		var rs ReShare
		copy(rs.Share[:], r.take(hashBytes))
		m.ReShare = &rs
	case TypeSessionConfirmation:
		var sc SessionConfirmation
		copy(sc.Confirmation[:], r.take(hashBytes))
		m.Confirmation = &sc
	case TypeUser:
		var u User
		copy(u.TranscriptHash[:], r.take(hashBytes))
		u.Box = append([]byte(nil), r.rest()...)
		m.User = &u
	case TypeFarewell:
		var fw Farewell
		copy(fw.TranscriptHash[:], r.take(hashBytes))
		fw.Text = string(r.rest())
		m.Farewell = &fw
	case TypeHeartbeat, TypeAck, TypeAckQuery:
	}
	if r.failed {
		return fmt.Errorf("decode %s: %w: truncated body", m.Type, domain.ErrParse)
	}
	return nil
}

// reader consumes a frame front to back; any short read latches failed.
type reader struct {
	b      []byte
	failed bool
}

func (r *reader) take(n int) []byte {
	if r.failed || n < 0 || len(r.b) < n {
		r.failed = true
		return nil
	}
	out := r.b[:n]
	r.b = r.b[n:]
	return out
}

func (r *reader) rest() []byte {
	out := r.b
	r.b = nil
	return out
}

func (r *reader) u8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}
