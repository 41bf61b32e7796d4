package shared

import (
	"context"

	"github.com/google/uuid"
)

// MaxTreeDepth bounds every self-referencing hierarchy
const MaxTreeDepth = 32

// ParentLookup returns the parent of id, or nil for a root
type ParentLookup func(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)

// EnsureAcyclic checks that making newParent the parent of node keeps the
// hierarchy a tree. Foreign keys alone cannot reject a cycle, so every
// re-parenting in a tree (accounts, categories, activities) goes through here.
func EnsureAcyclic(ctx context.Context, node uuid.UUID, newParent *uuid.UUID, parentOf ParentLookup) error {
	if newParent == nil {
		return nil
	}

	seen := make(map[uuid.UUID]struct{})
	cur := *newParent
	for depth := 1; ; depth++ {
		if cur == node {
			return ErrCycleDetected
		}
		if _, ok := seen[cur]; ok {
			return ErrCycleDetected
		}
		if depth >= MaxTreeDepth {
			return Errorf(ErrInvalidInput, "hierarchy cannot be deeper than %d levels", MaxTreeDepth)
		}
		seen[cur] = struct{}{}

		parent, err := parentOf(ctx, cur)
		if err != nil {
			return err
		}
		if parent == nil {
			return nil
		}
		cur = *parent
	}
}

// TreeNode is one node of an in-memory hierarchy
type TreeNode[T any] struct {
	Item     T              `json:"item"`
	Children []*TreeNode[T] `json:"children"`
}

// BuildTree arranges a flat list into a forest. Items whose parent is not in
// the list become roots. Siblings keep the input order.
func BuildTree[T any](items []T, idOf func(T) uuid.UUID, parentOf func(T) *uuid.UUID) []*TreeNode[T] {
	nodes := make(map[uuid.UUID]*TreeNode[T], len(items))
	for _, item := range items {
		nodes[idOf(item)] = &TreeNode[T]{Item: item, Children: []*TreeNode[T]{}}
	}

	roots := make([]*TreeNode[T], 0)
	for _, item := range items {
		node := nodes[idOf(item)]
		if p := parentOf(item); p != nil {
			if parent, ok := nodes[*p]; ok && *p != idOf(item) {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// Walk visits every node depth-first, parents before children
func Walk[T any](roots []*TreeNode[T], visit func(node *TreeNode[T], depth int)) {
	var walk func(nodes []*TreeNode[T], depth int)
	walk = func(nodes []*TreeNode[T], depth int) {
		for _, n := range nodes {
			visit(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(roots, 0)
}
