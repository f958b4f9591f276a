package search

import (
	"sort"
	"strings"
	"sync"

	"github.com/devarena/backend/internal/models"
	"gorm.io/gorm"
)

// Field weights: the same token counts more when it appears in a tag or the
// title than in the description.
const (
	titleWeight = 3
	tagWeight   = 4
)

// Post-hoc score adjustments on top of raw BM25.
const (
	tagOverlapBonus        = 0.3
	titleSubstringBonus    = 1.0
	descSubstringBonus     = 0.5
	minSubstringQueryChars = 3
)

const defaultLimit = 10

type entry struct {
	post      models.Post
	tagSet    map[string]bool
	titleLow  string
	descLow   string
}

// Index is the owned, injected cache over the public-post corpus. It is
// rebuilt when the indexed post count no longer matches the table (coarse
// invalidation); Generation increments on every rebuild.
type Index struct {
	mu         sync.RWMutex
	generation uint64
	srcCount   int
	entries    []entry
	bm25       *bm25Index
}

func NewIndex() *Index {
	return &Index{}
}

func (idx *Index) Generation() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.generation
}

// size is the number of source posts at the last rebuild, not the number of
// indexed documents (posts with empty token bags are skipped).
func (idx *Index) size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.srcCount
}

func (idx *Index) rebuild(posts []models.Post) {
	entries := make([]entry, 0, len(posts))
	corpus := make([][]string, 0, len(posts))

	for _, p := range posts {
		doc := buildDocument(&p)
		if len(doc) == 0 {
			continue
		}

		tagSet := make(map[string]bool)
		for _, tag := range p.TagList() {
			for _, t := range TokenizeTag(tag) {
				tagSet[t] = true
			}
		}

		entries = append(entries, entry{
			post:     p,
			tagSet:   tagSet,
			titleLow: strings.ToLower(p.Title),
			descLow:  strings.ToLower(p.Description),
		})
		corpus = append(corpus, doc)
	}

	bm25 := newBM25Index(corpus)

	idx.mu.Lock()
	idx.entries = entries
	idx.bm25 = bm25
	idx.srcCount = len(posts)
	idx.generation++
	idx.mu.Unlock()
}

// buildDocument stacks the weighted token bag: title x3, tags x4,
// description x1.
func buildDocument(p *models.Post) []string {
	var doc []string
	title := Tokenize(p.Title)
	for i := 0; i < titleWeight; i++ {
		doc = append(doc, title...)
	}
	for _, tag := range p.TagList() {
		tokens := TokenizeTag(tag)
		for i := 0; i < tagWeight; i++ {
			doc = append(doc, tokens...)
		}
	}
	doc = append(doc, Tokenize(p.Description)...)
	return doc
}

// Result is one ranked hit.
type Result struct {
	Post  models.Post
	Score float64
}

// Service ranks public posts for a query against the injected index.
type Service struct {
	db  *gorm.DB
	idx *Index
}

func NewService(db *gorm.DB, idx *Index) *Service {
	return &Service{db: db, idx: idx}
}

// Search tokenizes the query and returns the top-limit posts by adjusted
// BM25 score. An empty or all-stopword query returns nothing.
func (s *Service) Search(query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	if err := s.ensureFresh(); err != nil {
		return nil, err
	}

	qTokens := Tokenize(query)
	if len(qTokens) == 0 {
		return nil, nil
	}
	qSet := make(map[string]bool, len(qTokens))
	for _, t := range qTokens {
		qSet[t] = true
	}
	qLower := strings.ToLower(strings.TrimSpace(query))

	s.idx.mu.RLock()
	defer s.idx.mu.RUnlock()

	scores := s.idx.bm25.scores(qTokens)
	results := make([]Result, 0, len(scores))
	for i, score := range scores {
		e := &s.idx.entries[i]

		if len(e.tagSet) > 0 {
			hits := 0
			for t := range e.tagSet {
				if qSet[t] {
					hits++
				}
			}
			if hits > 0 {
				score += float64(hits) / float64(len(e.tagSet)) * tagOverlapBonus
			}
		}

		if len(qLower) >= minSubstringQueryChars {
			if strings.Contains(e.titleLow, qLower) {
				score += titleSubstringBonus
			} else if strings.Contains(e.descLow, qLower) {
				score += descSubstringBonus
			}
		}

		if score > 0 {
			results = append(results, Result{Post: e.post, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Post.CreatedAt.After(results[j].Post.CreatedAt)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ensureFresh rebuilds when the indexed count drifts from the table. A
// same-size edit slips through until the next count change; acceptable for
// an experimental endpoint.
func (s *Service) ensureFresh() error {
	var count int64
	if err := s.db.Model(&models.Post{}).
		Where("visibility = ?", models.VisibilityPublic).
		Count(&count).Error; err != nil {
		return err
	}

	if int(count) == s.idx.size() && s.idx.Generation() > 0 {
		return nil
	}

	var posts []models.Post
	if err := s.db.Preload("Author").
		Where("visibility = ?", models.VisibilityPublic).
		Find(&posts).Error; err != nil {
		return err
	}

	s.idx.rebuild(posts)
	return nil
}
