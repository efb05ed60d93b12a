package util

// Map applies a transformation function to each element of a slice and returns a new slice
// with the transformed values. This is a generic implementation of the map higher-order function.
//
// Type Parameters:
//   - A: The type of elements in the input slice
//   - B: The type of elements in the output slice
//
// Parameters:
//   - coll: The input slice to transform
//   - mapper: Function that transforms each element and receives the element's index
//
// Returns:
//   - []B: A new slice containing the transformed elements
func Map[A any, B any](coll []A, mapper func(i A, index uint64) B) []B {
	out := make([]B, len(coll))
	for i, item := range coll {
		out[i] = mapper(item, uint64(i))
	}
	return out
}

// Find returns the first element in a slice that satisfies the provided criteria function.
// If no element satisfies the criteria, nil is returned.
//
// Type Parameters:
//   - A: The type of elements in the slice
//
// Parameters:
//   - coll: The input slice to search
//   - criteria: Function that determines whether an element matches
//
// Returns:
//   - *A: Pointer to the first matching element, or nil if no match is found
func Find[A any](coll []A, criteria func(i A) bool) *A {
	for i := range coll {
		if criteria(coll[i]) {
			return &coll[i]
		}
	}
	return nil
}

// Filter returns the elements of a slice that satisfy the provided criteria function,
// preserving their order.
//
// Parameters:
//   - coll: The input slice to filter
//   - criteria: Function that determines whether an element is kept
//
// Returns:
//   - []A: A new slice containing the kept elements (never nil)
func Filter[A any](coll []A, criteria func(i A) bool) []A {
	out := make([]A, 0, len(coll))
	for _, item := range coll {
		if criteria(item) {
			out = append(out, item)
		}
	}
	return out
}

// Contains reports whether value is an element of coll.
func Contains[A comparable](coll []A, value A) bool {
	return Find(coll, func(i A) bool { return i == value }) != nil
}
