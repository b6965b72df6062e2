package diff

// minCommonRun is the shortest common substring that counts toward the
// similarity bonus.
const minCommonRun = 3

// maxScoredRunes bounds the rune product of a pair similarity will score.
// Larger pairs score 0, so they only pair through the single-line rule.
const maxScoredRunes = 512 * 512

// similarity scores two lines in [0, 1]. It averages the ratio of
// position-aligned equal runes with the share of the longer line covered by
// distinct common substrings of at least minCommonRun runes.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 || len(ra)*len(rb) > maxScoredRunes {
		return 0
	}

	maxLen := max(len(ra), len(rb))
	minLen := min(len(ra), len(rb))

	aligned := 0
	for i := 0; i < minLen; i++ {
		if ra[i] == rb[i] {
			aligned++
		}
	}

	bonus := min(commonRunLength(ra, rb), minLen)
	return (float64(aligned)/float64(maxLen) + float64(bonus)/float64(maxLen)) / 2
}

// commonRunLength sums the lengths of the distinct longest common substrings
// found scanning a left to right. A run, once taken, is skipped so runs do
// not overlap in a.
func commonRunLength(a, b []rune) int {
	// longest[i] is the longest common substring of a and b starting at a[i],
	// filled from the last row of the common-prefix table up.
	longest := make([]int, len(a))
	next := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] != b[j] {
				cur[j] = 0
				continue
			}
			cur[j] = next[j+1] + 1
			longest[i] = max(longest[i], cur[j])
		}
		cur, next = next, cur
	}

	seen := make(map[string]struct{})
	total := 0
	for i := 0; i < len(a); {
		n := longest[i]
		if n < minCommonRun {
			i++
			continue
		}
		run := string(a[i : i+n])
		if _, dup := seen[run]; !dup {
			seen[run] = struct{}{}
			total += n
		}
		i += n
	}
	return total
}
