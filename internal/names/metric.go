package names

// ratcliffObershelp scores two strings with Gestalt pattern matching: twice
// the number of matching characters over the combined length, where matches
// are found by recursively anchoring on the longest common substring. It
// satisfies strutil.StringMetric.
type ratcliffObershelp struct{}

func newRatcliffObershelp() ratcliffObershelp {
	return ratcliffObershelp{}
}

// Compare returns a similarity in [0, 1]. Both strings empty scores 1.
func (ratcliffObershelp) Compare(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return float64(2*matchingChars(ra, rb)) / float64(total)
}

// matchingChars counts characters covered by the longest common substring
// of a and b plus, recursively, those of the unmatched regions on either
// side of it.
func matchingChars(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	// lengths[j] holds the common suffix length ending at a[i-1], b[j-1]
	// for the current row i.
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return ai, bi, size
}
