package assess

// Similarity counts positions where a and b hold the same character and
// divides by the longer length. It is positional: an inserted or dropped
// letter shifts every later position.
func Similarity(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	longer := max(len(ar), len(br))
	if longer == 0 {
		return 1
	}
	same := 0
	for i := 0; i < min(len(ar), len(br)); i++ {
		if ar[i] == br[i] {
			same++
		}
	}
	return float64(same) / float64(longer)
}
