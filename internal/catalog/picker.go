package catalog

import "math"

// noCandidate sorts after every real release id.
const noCandidate = int64(math.MaxInt64)

// PickCanonical selects one release to represent a set of search candidates.
// External searches return the same album many times across regional
// pressings; the lowest numeric id within a preferred region is a cheap proxy
// for the master release. US wins over UK on lower id; when neither region is
// present the first result stands.
func PickCanonical(results []SearchResult) (*SearchResult, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	usID, usIdx := noCandidate, -1
	ukID, ukIdx := noCandidate, -1

	for i, r := range results {
		switch r.Country {
		case "US":
			if r.ID < usID {
				usID, usIdx = r.ID, i
			}
		case "UK":
			if r.ID < ukID {
				ukID, ukIdx = r.ID, i
			}
		}
	}

	switch {
	case usID < ukID:
		return &results[usIdx], nil
	case ukID < usID:
		return &results[ukIdx], nil
	default:
		return &results[0], nil
	}
}
