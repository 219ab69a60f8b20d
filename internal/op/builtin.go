package op

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Built-in operation catalogue. Division is protected: a divisor within
// divisionGuard of zero yields 1 so evolved programs cannot blow up a run.
// Bitwise operations act on the truncated integer value of their operands.

const divisionGuard = 1e-9

// expClamp bounds the exponent so exp never overflows to +Inf.
const expClamp = 64

func builtins[V constraints.Float]() []*Operation[V] {
	return []*Operation[V]{
		New[V]("add", "+", Binary, true, func(args []V) V { return args[0] + args[1] }),
		New[V]("sub", "-", Binary, true, func(args []V) V { return args[0] - args[1] }),
		New[V]("mul", "*", Binary, true, func(args []V) V { return args[0] * args[1] }),
		New[V]("div", "/", Binary, true, func(args []V) V {
			if math.Abs(float64(args[1])) < divisionGuard {
				return 1
			}
			return args[0] / args[1]
		}),
		New[V]("sin", "sin", Unary, false, func(args []V) V {
			return V(math.Sin(float64(args[0])))
		}),
		New[V]("exp", "exp", Unary, false, func(args []V) V {
			return V(math.Exp(math.Min(float64(args[0]), expClamp)))
		}),
		New[V]("and", "&", Binary, true, func(args []V) V {
			return V(int64(args[0]) & int64(args[1]))
		}),
		New[V]("or", "|", Binary, true, func(args []V) V {
			return V(int64(args[0]) | int64(args[1]))
		}),
		New[V]("xor", "^", Binary, true, func(args []V) V {
			return V(int64(args[0]) ^ int64(args[1]))
		}),
		New[V]("not", "not", Unary, false, func(args []V) V {
			if args[0] == 0 {
				return 1
			}
			return 0
		}),
		New[V]("id", "id", Unary, false, func(args []V) V { return args[0] }),
		NewBranch[V]("ifgt", ">", func(a, b V) bool { return a > b }),
		NewBranch[V]("ifle", "<=", func(a, b V) bool { return a <= b }),
	}
}
