package orders

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	// no 0/O/1/I
	displayIDAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	displayIDPrefix      = "ORD-"
	displayIDLength      = 6
	maxDisplayIDAttempts = 10
)

// NewDisplayID returns a random ORD-XXXXXX code.
func NewDisplayID() (string, error) {
	buf := make([]byte, displayIDLength)
	n := big.NewInt(int64(len(displayIDAlphabet)))
	for i := range buf {
		j, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		buf[i] = displayIDAlphabet[j.Int64()]
	}
	return displayIDPrefix + string(buf), nil
}

// Writer persists validated orders under a unique display id.
type Writer struct {
	Orders       OrderStore
	NewDisplayID func() (string, error)
}

// Write assigns a display id and stores o. A collision seen either by the
// lookup or by the insert consumes one attempt; running out of attempts
// fails with ErrDisplayIDExhausted and nothing is written.
func (w *Writer) Write(ctx context.Context, o *Order) error {
	gen := w.NewDisplayID
	if gen == nil {
		gen = NewDisplayID
	}
	for attempt := 0; attempt < maxDisplayIDAttempts; attempt++ {
		id, err := gen()
		if err != nil {
			return fmt.Errorf("generate display id: %w", err)
		}
		taken, err := w.Orders.DisplayIDExists(ctx, id)
		if err != nil {
			return err
		}
		if taken {
			continue
		}
		o.DisplayID = id
		err = w.Orders.CreateOrder(ctx, o)
		if errors.Is(err, ErrDuplicateDisplayID) {
			continue
		}
		return err
	}
	o.DisplayID = ""
	return ErrDisplayIDExhausted
}
