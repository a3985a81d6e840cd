package fec

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// LoadReliabilityTable loads a reliability table from a text file with two
// columns: index, rank. Indices are returned by DESCENDING rank (larger is
// more reliable). Blank lines and lines starting with '#' are ignored.
func LoadReliabilityTable(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	type row struct {
		idx int
		val int
	}
	rows := make([]row, 0, 1024)
	s := bufio.NewScanner(f)
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.Fields(text)
		if len(parts) < 2 {
			return nil, fmt.Errorf("reliability table %s:%d: want 2 columns", path, line)
		}
		i, err1 := strconv.Atoi(parts[0])
		v, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("reliability table %s:%d: non-integer field", path, line)
		}
		rows = append(rows, row{idx: i, val: v})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].val > rows[j].val })
	ordered := make([]int, len(rows))
	for i := range rows {
		ordered[i] = rows[i].idx
	}
	return ordered, nil
}

// InfoSetFromReliability keeps the entries of order that fall inside [0,N)
// and returns the first K of them, ascending. A table built for a larger
// mother code can therefore serve every shorter N.
func InfoSetFromReliability(order []int, N, K int) ([]int, error) {
	if _, ok := log2(N); !ok {
		return nil, configErr("N", "%d is not a power of two", N)
	}
	if K < 1 || K > N {
		return nil, configErr("K", "%d not in [1,%d]", K, N)
	}
	A := make([]int, 0, K)
	seen := make(map[int]struct{}, K)
	for _, idx := range order {
		if idx < 0 || idx >= N {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		A = append(A, idx)
		if len(A) == K {
			break
		}
	}
	if len(A) != K {
		return nil, configErr("reliability order", "only %d usable indices for N=%d, need %d", len(A), N, K)
	}
	sort.Ints(A)
	return A, nil
}
