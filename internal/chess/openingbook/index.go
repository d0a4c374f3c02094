package openingbook

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/park285/chess-insight/internal/chess"
	"github.com/park285/chess-insight/internal/domain"
)

// Index is the immutable set of reference opening positions. It is built
// once and then shared read-only by every Matcher.
type Index struct {
	openings []domain.Opening
	byFP     map[chess.Fingerprint]int
	digest   string
}

// NewIndex copies refs into an index keyed by fingerprint. When two
// references share a fingerprint the first one is kept.
func NewIndex(refs []domain.Opening) *Index {
	idx := &Index{
		openings: make([]domain.Opening, 0, len(refs)),
		byFP:     make(map[chess.Fingerprint]int, len(refs)),
	}
	for _, ref := range refs {
		if ref.Fingerprint == "" {
			continue
		}
		if _, dup := idx.byFP[ref.Fingerprint]; dup {
			continue
		}
		idx.byFP[ref.Fingerprint] = len(idx.openings)
		idx.openings = append(idx.openings, ref)
	}
	idx.digest = digestOf(idx.openings)
	return idx
}

// digestOf hashes every kept record sorted by fingerprint. Storage IDs and
// labels are part of the digest, so reloading the same positions under new
// IDs yields a new digest.
func digestOf(openings []domain.Opening) string {
	sorted := append([]domain.Opening(nil), openings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Fingerprint < sorted[j].Fingerprint })

	h := xxhash.New()
	for _, o := range sorted {
		_, _ = h.WriteString(string(o.Fingerprint))
		_, _ = h.WriteString("\t" + strconv.FormatInt(o.ID, 10) + "\t" + o.ECOCode + "\t" + o.Name + "\n")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Len returns the number of distinct reference fingerprints.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.openings)
}

func (x *Index) Contains(fp chess.Fingerprint) bool {
	if x == nil {
		return false
	}
	_, ok := x.byFP[fp]
	return ok
}

// Lookup returns a copy of the reference stored under fp.
func (x *Index) Lookup(fp chess.Fingerprint) (domain.Opening, bool) {
	if x == nil {
		return domain.Opening{}, false
	}
	i, ok := x.byFP[fp]
	if !ok {
		return domain.Opening{}, false
	}
	return x.openings[i], true
}

// Openings returns a copy of every reference, in insertion order.
func (x *Index) Openings() []domain.Opening {
	if x == nil {
		return nil
	}
	out := make([]domain.Opening, len(x.openings))
	copy(out, x.openings)
	return out
}

// Digest identifies the index content. Indexes holding the same records
// have the same digest regardless of load order.
func (x *Index) Digest() string {
	if x == nil {
		return digestOf(nil)
	}
	return x.digest
}
