package log

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// ErrInvalidEvent is returned when a decoded event has a kind or stage this
// package does not write, or a payload that does not belong to its kind.
var ErrInvalidEvent = errors.New("invalid trace event")

// Trace events are flat: an event map holding at most one payload map of
// scalars. The decoder refuses anything much larger, so a corrupt or foreign
// file fails fast instead of allocating.
const (
	maxEventDepth  = 4
	maxEventFields = 32
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCoreDeterministic,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace encoder mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthForbidden,
		MaxNestedLevels: maxEventDepth,
		MaxMapPairs:     maxEventFields,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("trace decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR bytes using integer keys.
func EncodeEvent(event Event) ([]byte, error) {
	return encMode.Marshal(event)
}

// DecodeEvent decodes and validates one event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := decMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	if err := event.validate(); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder creates a CBOR encoder for trace events that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for trace events that reads from r.
// Decoded events are not validated; Reader does that.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

func (e *Event) validate() error {
	if e.Kind > KindDone {
		return fmt.Errorf("%w: kind %d", ErrInvalidEvent, e.Kind)
	}
	if e.Stage > StageEmit {
		return fmt.Errorf("%w: stage %d", ErrInvalidEvent, e.Stage)
	}

	payloads := map[Kind]bool{
		KindStart:     e.Start != nil,
		KindUnit:      e.Unit != nil,
		KindCollision: e.Collision != nil,
		KindError:     e.Error != nil,
		KindDone:      e.Done != nil,
	}
	for k, set := range payloads {
		if set && k != e.Kind {
			return fmt.Errorf("%w: %s payload on a %s event", ErrInvalidEvent, k, e.Kind)
		}
	}
	return nil
}
