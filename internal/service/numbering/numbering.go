package numbering

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// Sequence выдаёт номера FAC-000001, FAC-000002, ... по порядку.
type Sequence struct {
	last atomic.Int64
}

// NewSequence создаёт последовательность; следующий номер будет after+1.
func NewSequence(after int64) *Sequence {
	s := &Sequence{}
	s.last.Store(after)
	return s
}

// Next возвращает следующий номер или ErrInvoiceNumberExhausted после FAC-999999.
func (s *Sequence) Next() (string, error) {
	return domain.FormatInvoiceNumber(s.last.Add(1))
}

// Random выдаёт случайные номера FAC-NNNNNN. Совпадения с журналом отсекает эмитент.
type Random struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom создаёт генератор; nil rnd означает глобальный источник.
func NewRandom(rnd *rand.Rand) *Random {
	return &Random{rnd: rnd}
}

func (r *Random) Next() (string, error) {
	var n int64
	if r.rnd == nil {
		n = rand.Int64N(domain.MaxInvoiceSequence) + 1
	} else {
		r.mu.Lock()
		n = r.rnd.Int64N(domain.MaxInvoiceSequence) + 1
		r.mu.Unlock()
	}
	return domain.FormatInvoiceNumber(n)
}

// Func адаптирует функцию к domain.NumberGenerator.
type Func func() (string, error)

func (f Func) Next() (string, error) {
	return f()
}

var (
	_ domain.NumberGenerator = (*Sequence)(nil)
	_ domain.NumberGenerator = (*Random)(nil)
	_ domain.NumberGenerator = Func(nil)
)
