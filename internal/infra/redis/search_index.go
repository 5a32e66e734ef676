package redis

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"course-commerce/internal/domain/ports/adapter"
)

// SearchIndex keeps a token set per document in Redis and ranks documents by
// token overlap with the query. Good enough for lesson-sized corpora; swap
// the port implementation for a real vector index when the catalog outgrows
// this.
type SearchIndex struct {
	client RedisClient
}

var _ adapter.SearchIndex = (*SearchIndex)(nil)

func NewSearchIndex(client RedisClient) *SearchIndex {
	return &SearchIndex{client: client}
}

const (
	docRegistryKey = "search:docs"
	docTokenPrefix = "search:doc:"
	docTagPrefix   = "search:tags:"
)

func (s *SearchIndex) IndexText(ctx context.Context, docID, text string, tags []string) error {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(tokens))
	for tok := range tokens {
		members = append(members, tok)
	}
	if err := s.client.SAdd(ctx, docTokenPrefix+docID, members...); err != nil {
		return err
	}
	if len(tags) > 0 {
		tagMembers := make([]interface{}, 0, len(tags))
		for _, t := range tags {
			tagMembers = append(tagMembers, t)
		}
		if err := s.client.SAdd(ctx, docTagPrefix+docID, tagMembers...); err != nil {
			return err
		}
	}
	return s.client.SAdd(ctx, docRegistryKey, docID)
}

func (s *SearchIndex) SearchSimilar(ctx context.Context, query string, k int, filterTags []string) ([]adapter.SearchMatch, error) {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 || k <= 0 {
		return nil, nil
	}

	docIDs, err := s.client.SMembers(ctx, docRegistryKey)
	if err != nil {
		return nil, err
	}

	matches := make([]adapter.SearchMatch, 0, len(docIDs))
	for _, id := range docIDs {
		if len(filterTags) > 0 {
			ok, err := s.hasAnyTag(ctx, id, filterTags)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		docTokens, err := s.client.SMembers(ctx, docTokenPrefix+id)
		if err != nil {
			return nil, err
		}
		overlap := 0
		for _, tok := range docTokens {
			if _, ok := queryTokens[tok]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		matches = append(matches, adapter.SearchMatch{
			DocID: id,
			Score: float64(overlap) / float64(len(queryTokens)),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].DocID < matches[j].DocID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *SearchIndex) hasAnyTag(ctx context.Context, docID string, want []string) (bool, error) {
	tags, err := s.client.SMembers(ctx, docTagPrefix+docID)
	if err != nil {
		return false, err
	}
	for _, t := range tags {
		for _, w := range want {
			if t == w {
				return true, nil
			}
		}
	}
	return false, nil
}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}
