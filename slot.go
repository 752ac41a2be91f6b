package rendezvous

import "fmt"

// Kind tags a Slot as a payload or an end-marker.
type Kind uint8

const (
	KindPayload Kind = iota
	KindEndMarker
)

func (k Kind) String() string {
	switch k {
	case KindPayload:
		return "payload"
	case KindEndMarker:
		return "end-marker"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Slot is one queue element. The end-marker is its own kind, so no payload
// value can ever be mistaken for it.
type Slot struct {
	Kind     Kind
	Producer int
	Index    int // position in the producer's sequence; payloads only
	Payload  string
}

// NewPayload returns a payload slot.
func NewPayload(producer, index int, payload string) Slot {
	return Slot{Kind: KindPayload, Producer: producer, Index: index, Payload: payload}
}

// NewEndMarker returns the end-marker of producer.
func NewEndMarker(producer int) Slot {
	return Slot{Kind: KindEndMarker, Producer: producer}
}

func (s Slot) IsEndMarker() bool {
	return s.Kind == KindEndMarker
}

func (s Slot) String() string {
	if s.IsEndMarker() {
		return fmt.Sprintf("end-marker(producer %d)", s.Producer)
	}
	return s.Payload
}
