// README: Ordered extraction strategies with a three-way result (found / absent / unparseable).
package slots

import "context"

type Outcome int

const (
	// Absent means the strategy established there is no value in the message.
	Absent Outcome = iota
	Found
	// Unparseable means the strategy failed or produced unusable output.
	Unparseable
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Absent:
		return "absent"
	default:
		return "unparseable"
	}
}

type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

func FoundValue[T any](v T) Result[T] { return Result[T]{Value: v, Outcome: Found} }

func NotPresent[T any]() Result[T] { return Result[T]{Outcome: Absent} }

func Failed[T any](err error) Result[T] { return Result[T]{Outcome: Unparseable, Err: err} }

type Strategy[T any] struct {
	Name    string
	Extract func(ctx context.Context, message string) Result[T]
}

// Chain runs strategies in order until one finds a value.
type Chain[T any] struct {
	Slot       string
	Strategies []Strategy[T]
	// Observe, if set, sees every strategy outcome.
	Observe func(slot, strategy string, r Outcome)
}

// Run returns the first Found result. When nothing is found the result is
// Absent if any strategy proved absence, otherwise Unparseable with the last error.
func (c Chain[T]) Run(ctx context.Context, message string) Result[T] {
	sawAbsent := false
	var lastErr error
	for _, s := range c.Strategies {
		r := s.Extract(ctx, message)
		if c.Observe != nil {
			c.Observe(c.Slot, s.Name, r.Outcome)
		}
		switch r.Outcome {
		case Found:
			return r
		case Absent:
			sawAbsent = true
		default:
			if r.Err != nil {
				lastErr = r.Err
			}
		}
	}
	if sawAbsent {
		return NotPresent[T]()
	}
	return Failed[T](lastErr)
}
