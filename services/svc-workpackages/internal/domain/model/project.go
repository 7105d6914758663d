package model

import (
	"iter"
	"slices"
	"strings"
)

type Project struct {
	ID         int64
	Name       string
	Identifier string
	ParentID   *int64
	Active     bool
	Public     bool
}

type projectNode struct {
	project  Project
	children []*projectNode
}

// ProjectTree arranges a set of projects by parent. A project whose parent is
// not part of the set becomes a root. Siblings are ordered by name.
type ProjectTree struct {
	roots []*projectNode
}

func NewProjectTree(projects []Project) ProjectTree {
	nodes := make(map[int64]*projectNode, len(projects))
	for _, p := range projects {
		nodes[p.ID] = &projectNode{project: p}
	}

	var roots []*projectNode

	for _, p := range projects {
		node := nodes[p.ID]

		if p.ParentID != nil {
			if parent, ok := nodes[*p.ParentID]; ok && parent != node {
				parent.children = append(parent.children, node)

				continue
			}
		}

		roots = append(roots, node)
	}

	sortNodes(roots)

	return ProjectTree{roots: roots}
}

func sortNodes(nodes []*projectNode) {
	slices.SortStableFunc(nodes, func(a, b *projectNode) int {
		if c := strings.Compare(strings.ToLower(a.project.Name), strings.ToLower(b.project.Name)); c != 0 {
			return c
		}

		return compareInt64(a.project.ID, b.project.ID)
	})

	for _, n := range nodes {
		sortNodes(n.children)
	}
}

// All yields every project with its depth, in pre-order.
func (t ProjectTree) All() iter.Seq2[Project, int] {
	return func(yield func(Project, int) bool) {
		var walk func(nodes []*projectNode, depth int) bool

		walk = func(nodes []*projectNode, depth int) bool {
			for _, n := range nodes {
				if !yield(n.project, depth) {
					return false
				}

				if !walk(n.children, depth+1) {
					return false
				}
			}

			return true
		}

		walk(t.roots, 0)
	}
}

// Descendants returns the ids of id and everything below it in the tree.
func (t ProjectTree) Descendants(id int64) []int64 {
	var (
		ids     []int64
		collect func(n *projectNode)
		find    func(nodes []*projectNode) *projectNode
	)

	collect = func(n *projectNode) {
		ids = append(ids, n.project.ID)
		for _, c := range n.children {
			collect(c)
		}
	}

	find = func(nodes []*projectNode) *projectNode {
		for _, n := range nodes {
			if n.project.ID == id {
				return n
			}

			if found := find(n.children); found != nil {
				return found
			}
		}

		return nil
	}

	if node := find(t.roots); node != nil {
		collect(node)
	}

	return ids
}

func (t ProjectTree) IsEmpty() bool { return len(t.roots) == 0 }

// AllowedValue is one selectable entry of a list filter.
type AllowedValue struct {
	Label string
	ID    int64
}

const projectIndent = "--"

// ProjectAllowedValues lists the tree in pre-order. Descendants are labelled
// with one indent per level followed by a space.
func ProjectAllowedValues(tree ProjectTree) []AllowedValue {
	values := make([]AllowedValue, 0)

	for project, depth := range tree.All() {
		label := project.Name
		if depth > 0 {
			label = strings.Repeat(projectIndent, depth) + " " + project.Name
		}

		values = append(values, AllowedValue{Label: label, ID: project.ID})
	}

	return values
}

// ProjectValueObjects resolves filter values to the projects of tree they
// name, in value order. Unknown or unparsable values are skipped.
func ProjectValueObjects(tree ProjectTree, values []string) []Project {
	byID := make(map[int64]Project)
	for project := range tree.All() {
		byID[project.ID] = project
	}

	projects := make([]Project, 0, len(values))

	for _, v := range values {
		id, err := parseID(v)
		if err != nil {
			continue
		}

		if p, ok := byID[id]; ok {
			projects = append(projects, p)
		}
	}

	return projects
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
