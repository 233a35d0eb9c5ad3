package index

// Entry is one document's occurrences of a vocabulary word: how many times it
// appears and the absolute token offsets at which it appears.
type Entry struct {
	URL       string `json:"url"`
	Frequency int    `json:"frequency"`
	Positions []int  `json:"positions"`
}

func (e Entry) clone() Entry {
	e.Positions = append([]int(nil), e.Positions...)
	return e
}

type entryKey struct {
	id  int
	url string
}
