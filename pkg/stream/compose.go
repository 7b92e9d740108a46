package stream

// ============================================================================
// STREAM COMPOSITION
// ============================================================================

// Append concatenates two streams.
func Append[A any](first, second Stream[A]) Stream[A] {
	inFirst := true
	return func() Step[A] {
		if inFirst {
			r := first()
			if r.kind != stepStop || r.err != nil {
				return r
			}
			inFirst = false
			return Skip[A]()
		}
		return second()
	}
}

// ConcatMap maps every element to a stream and flattens the results in
// order.
func ConcatMap[A, B any](fn func(A) Stream[B]) Transform[A, B] {
	return func(input Stream[A]) Stream[B] {
		var inner Stream[B]
		return func() Step[B] {
			if inner == nil {
				r := input()
				switch r.kind {
				case stepYield:
					inner = fn(r.item)
					return Skip[B]()
				case stepSkip:
					return Skip[B]()
				default:
					return StopWith[B](r.err)
				}
			}
			r := inner()
			if r.kind == stepStop {
				if r.err != nil {
					return StopWith[B](r.err)
				}
				inner = nil
				return Skip[B]()
			}
			return r
		}
	}
}

// ZipWith combines two streams elementwise; the shorter side ends the zip.
func ZipWith[A, B, C any](fn func(A, B) C, left Stream[A], right Stream[B]) Stream[C] {
	var pending *A
	return func() Step[C] {
		if pending == nil {
			r := left()
			switch r.kind {
			case stepYield:
				item := r.item
				pending = &item
			case stepSkip:
				return Skip[C]()
			default:
				return StopWith[C](r.err)
			}
		}
		for {
			r := right()
			switch r.kind {
			case stepYield:
				a := *pending
				pending = nil
				return Yield(fn(a, r.item))
			case stepSkip:
				continue
			default:
				return StopWith[C](r.err)
			}
		}
	}
}
