package semantic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

type vector struct {
	entry Entry
	data  []float32
}

// Index is C9's live state: a flat inner-product scan over L2-normalized
// vectors, swapped atomically on rebuild (spec.md §4.9 step 4).
type Index struct {
	embedder Embedder

	mu      sync.RWMutex
	vectors []vector
}

func NewIndex(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// Rebuild produces a deduplicated, embedded, normalized vector set from
// entries and atomically replaces the live index, per the rebuild contract.
// Embedding failures skip that entry and continue; if nothing is
// indexable, the previous index remains live.
func (idx *Index) Rebuild(ctx context.Context, entries []Entry) {
	seen := make(map[string]bool, len(entries))
	next := make([]vector, 0, len(entries))

	for _, e := range entries {
		if e.Text == "" || seen[e.Text] {
			continue
		}
		seen[e.Text] = true

		emb, err := idx.embedder.Embed(ctx, e.Text)
		if err != nil {
			log.Warn().Err(err).Str("text", e.Text).Msg("semantic: embedding failed, skipping entry")
			continue
		}
		next = append(next, vector{entry: e, data: normalize(emb)})
	}

	if len(next) == 0 {
		log.Warn().Msg("semantic: rebuild produced no indexable entries, keeping previous index")
		return
	}

	idx.mu.Lock()
	idx.vectors = next
	idx.mu.Unlock()
}

// Ask embeds query, searches top k*3 (capped at index size), filters by
// threshold, and — if intent is set — partitions matches-first before
// truncating to k, per the query contract.
func (idx *Index) Ask(ctx context.Context, query string, threshold float32, k int, intent Intent) ([]Result, error) {
	emb, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	q := normalize(emb)

	idx.mu.RLock()
	vectors := idx.vectors
	idx.mu.RUnlock()

	type scored struct {
		v     vector
		score float32
	}
	all := make([]scored, 0, len(vectors))
	for _, v := range vectors {
		all = append(all, scored{v: v, score: dot(q, v.data)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })

	prefilterN := k * 3
	if prefilterN > len(all) || prefilterN <= 0 {
		prefilterN = len(all)
	}
	candidates := all[:prefilterN]

	var kept []scored
	for _, c := range candidates {
		if c.score >= threshold {
			kept = append(kept, c)
		}
	}

	if intent != "" {
		var matching, other []scored
		for _, c := range kept {
			if c.v.entry.Intent == intent {
				matching = append(matching, c)
			} else {
				other = append(other, c)
			}
		}
		kept = append(matching, other...)
	}

	if k > 0 && len(kept) > k {
		kept = kept[:k]
	}

	out := make([]Result, len(kept))
	for i, c := range kept {
		out[i] = Result{Text: c.v.entry.Text, Score: c.score}
	}
	return out, nil
}

// Len reports how many entries the live index currently holds.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// persistedVector is the on-disk shape of one entry for metadata, matching
// the "index + metadata" pair named in spec.md §4.9 step 5.
type persistedVector struct {
	Text   string    `json:"text"`
	Intent Intent    `json:"intent,omitempty"`
	Vector []float32 `json:"vector"`
}

// Save persists the live index to indexPath (a newline-delimited JSON
// vector dump) so a restart can load it before the first rebuild.
func (idx *Index) Save(indexPath, metadataPath string) error {
	idx.mu.RLock()
	vectors := idx.vectors
	idx.mu.RUnlock()

	f, err := os.Create(indexPath)
	if err != nil {
		return fmt.Errorf("create index file %q: %w", indexPath, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, v := range vectors {
		if err := enc.Encode(persistedVector{Text: v.entry.Text, Intent: v.entry.Intent, Vector: v.data}); err != nil {
			return fmt.Errorf("encode vector: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	meta, err := os.Create(metadataPath)
	if err != nil {
		return fmt.Errorf("create metadata file %q: %w", metadataPath, err)
	}
	defer meta.Close()
	_, err = fmt.Fprintf(meta, `{"count":%d}`+"\n", len(vectors))
	return err
}

// Load restores a previously persisted index, if indexPath exists. Absence
// of the file is not an error — the caller simply runs a fresh rebuild.
func (idx *Index) Load(indexPath string) error {
	f, err := os.Open(indexPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open index file %q: %w", indexPath, err)
	}
	defer f.Close()

	var vectors []vector
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var pv persistedVector
		if err := json.Unmarshal(sc.Bytes(), &pv); err != nil {
			return fmt.Errorf("decode vector: %w", err)
		}
		vectors = append(vectors, vector{entry: Entry{Text: pv.Text, Intent: pv.Intent}, data: pv.Vector})
	}
	if err := sc.Err(); err != nil {
		return err
	}

	idx.mu.Lock()
	idx.vectors = vectors
	idx.mu.Unlock()
	return nil
}
