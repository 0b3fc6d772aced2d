package repositories

import (
	"context"
	"strings"
)

// FullTextProvider searches entities by free text.
type FullTextProvider[T any] interface {
	// Match turns free text into a predicate that composes with any other criteria.
	Match(text string) Predicate
	// Search returns the entities matching text within the page.
	Search(ctx context.Context, text string, page Page) ([]T, error)
}

// FullTextRepository exposes a full-text provider next to the repository operations.
type FullTextRepository[T any, ID comparable] struct {
	RepositoryAdapter[T, ID]

	provider FullTextProvider[T]
}

// NewFullTextRepository pairs repo with provider.
func NewFullTextRepository[T any, ID comparable](
	repo Repository[T, ID],
	provider FullTextProvider[T],
) *FullTextRepository[T, ID] {
	return &FullTextRepository[T, ID]{RepositoryAdapter: NewRepositoryAdapter(repo), provider: provider}
}

// FullText returns the provider.
func (r *FullTextRepository[T, ID]) FullText() FullTextProvider[T] {
	return r.provider
}

// LikeFullTextProvider matches every whitespace separated term against any of
// the indexed fields with LIKE, so it runs on every backend. Searches go through
// the repository it was built with, including whatever decorators it carries.
type LikeFullTextProvider[T any, ID comparable] struct {
	repo   Repository[T, ID]
	fields []string
}

// NewLikeFullTextProvider indexes fields of T.
func NewLikeFullTextProvider[T any, ID comparable](repo Repository[T, ID], fields ...string) *LikeFullTextProvider[T, ID] {
	return &LikeFullTextProvider[T, ID]{repo: repo, fields: fields}
}

var likeEscaper = strings.NewReplacer("%", "", "_", "")

// Match requires each term to appear in at least one indexed field. Empty text
// matches nothing.
func (p *LikeFullTextProvider[T, ID]) Match(text string) Predicate {
	terms := strings.Fields(likeEscaper.Replace(text))
	if len(terms) == 0 || len(p.fields) == 0 {
		return Not(nil)
	}
	conjuncts := make([]Predicate, 0, len(terms))
	for _, term := range terms {
		disjuncts := make([]Predicate, 0, len(p.fields))
		for _, field := range p.fields {
			disjuncts = append(disjuncts, LIKE(field, "%"+term+"%"))
		}
		conjuncts = append(conjuncts, Or(disjuncts...))
	}
	return And(conjuncts...)
}

func (p *LikeFullTextProvider[T, ID]) Search(ctx context.Context, text string, page Page) ([]T, error) {
	criteria := p.Match(text)
	if _, none := criteria.(NotPredicate); none {
		return []T{}, nil
	}
	return p.repo.FindAll(ctx, criteria, page)
}
