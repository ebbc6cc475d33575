package models

// Histogram maps an integer to the number of times it was seen.
type Histogram map[int]int

// Total returns the sum of all counts.
func (h Histogram) Total() int {
	total := 0
	for _, c := range h {
		total += c
	}
	return total
}

// RankedEntry is one line of the ranked report.
type RankedEntry struct {
	Number    int `yaml:"number" json:"number"`
	Frequency int `yaml:"frequency" json:"frequency"`
}
