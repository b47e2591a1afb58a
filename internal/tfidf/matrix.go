package tfidf

// Matrix is a fitted term-document matrix. Row 0 holds the first document
// passed to FitTransform.
type Matrix struct {
	vocab []string
	index map[string]int
	idf   []float64
	rows  []Vector
}

// Rows returns the number of documents.
func (m *Matrix) Rows() int { return len(m.rows) }

// Row returns the vector of document i.
func (m *Matrix) Row(i int) Vector { return m.rows[i] }

// Tail returns the rows from i onwards.
func (m *Matrix) Tail(i int) []Vector {
	if i >= len(m.rows) {
		return nil
	}
	return m.rows[i:]
}

// Vocabulary returns the sorted terms backing the matrix columns.
func (m *Matrix) Vocabulary() []string {
	out := make([]string, len(m.vocab))
	copy(out, m.vocab)
	return out
}

// IDF returns the inverse document frequency of term.
func (m *Matrix) IDF(term string) (float64, bool) {
	idx, ok := m.index[term]
	if !ok {
		return 0, false
	}
	return m.idf[idx], true
}
