package service

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	referencePrefix   = "HB"
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceSuffix   = 6
)

// newBookingReference builds a human-facing reference like HB-20260825-K7Q2ZD.
// Six random characters keep the collision odds negligible; the UNIQUE
// column constraint and the retry loop in CreateBooking cover the rest.
func newBookingReference(now time.Time) string {
	var sb strings.Builder
	for i := 0; i < referenceSuffix; i++ {
		sb.WriteByte(referenceAlphabet[rand.IntN(len(referenceAlphabet))])
	}
	return fmt.Sprintf("%s-%s-%s", referencePrefix, now.Format("20060102"), sb.String())
}
