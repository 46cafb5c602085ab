package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Align4 rounds n up to the next multiple of 4, the alignment of GLB chunks, matrix columns and
// GPU buffer copies.
func Align4(n int) int {
	return (n + 3) &^ 3
}

// PadTo4 returns data extended with fill bytes to a multiple of 4. Aligned data is returned as is.
//
// Parameters:
//   - data: the bytes to pad
//   - fill: the padding byte
//
// Returns:
//   - []byte: data, or a padded copy of it
func PadTo4(data []byte, fill byte) []byte {
	n := Align4(len(data))
	if n == len(data) {
		return data
	}
	padded := make([]byte, n)
	copy(padded, data)
	for i := len(data); i < n; i++ {
		padded[i] = fill
	}
	return padded
}
