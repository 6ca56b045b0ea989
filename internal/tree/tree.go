// Package tree builds and renders the directory summary that precedes packed file contents.
package tree

import (
	"io"
	"sort"
	"strings"

	"github.com/temirov/backupfiles/internal/types"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	rootSuffix      = "./"
	directorySuffix = "/"
	skippedSuffix   = " (skipped)"
	segmentJoiner   = "/"
)

// Node is one directory or file in the summary tree. Children are owned by their parent.
type Node struct {
	Name          string
	IsFile        bool
	IsSkipped     bool
	IsCollapsible bool
	Children      map[string]*Node
}

// Build inserts every selected file's relative path below a root named rootName and marks
// collapsible chains. Inserting the same path twice is idempotent.
func Build(rootName string, files []types.SelectedFile) *Node {
	root := newDirectoryNode(rootName)
	for _, file := range files {
		root.insert(file.RelativePath, file.TreeOnly)
	}
	markCollapsible(root, true)
	return root
}

func newDirectoryNode(name string) *Node {
	return &Node{Name: name, Children: map[string]*Node{}}
}

func (node *Node) insert(relativePath string, treeOnly bool) {
	segments := splitSegments(relativePath)
	currentNode := node
	for segmentIndex, segment := range segments {
		isLastSegment := segmentIndex == len(segments)-1
		childNode, exists := currentNode.Children[segment]
		if !exists {
			if isLastSegment {
				childNode = &Node{Name: segment, IsFile: true, IsSkipped: treeOnly}
			} else {
				childNode = newDirectoryNode(segment)
			}
			currentNode.Children[segment] = childNode
		} else if isLastSegment && childNode.IsFile {
			childNode.IsSkipped = childNode.IsSkipped && treeOnly
		}
		if childNode.IsFile {
			return
		}
		currentNode = childNode
	}
}

func splitSegments(relativePath string) []string {
	rawSegments := strings.Split(strings.ReplaceAll(relativePath, "\\", segmentJoiner), segmentJoiner)
	segments := make([]string, 0, len(rawSegments))
	for _, segment := range rawSegments {
		if segment == "" || segment == "." {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}

// markCollapsible flags file nodes and every non-root directory whose single child is collapsible.
func markCollapsible(node *Node, isRoot bool) {
	if node.IsFile {
		node.IsCollapsible = true
		return
	}
	if !isRoot && len(node.Children) == 1 {
		for _, onlyChild := range node.Children {
			markCollapsible(onlyChild, false)
			node.IsCollapsible = onlyChild.IsCollapsible
		}
		return
	}
	node.IsCollapsible = false
	for _, childNode := range node.Children {
		markCollapsible(childNode, false)
	}
}

// SortedChildren returns directories first, then files, each ordered case-insensitively by name.
func (node *Node) SortedChildren() []*Node {
	children := make([]*Node, 0, len(node.Children))
	for _, childNode := range node.Children {
		children = append(children, childNode)
	}
	sort.Slice(children, func(leftIndex, rightIndex int) bool {
		leftNode := children[leftIndex]
		rightNode := children[rightIndex]
		if leftNode.IsFile != rightNode.IsFile {
			return !leftNode.IsFile
		}
		leftName := strings.ToLower(leftNode.Name)
		rightName := strings.ToLower(rightNode.Name)
		if leftName != rightName {
			return leftName < rightName
		}
		return leftNode.Name < rightNode.Name
	})
	return children
}

// Lines renders the tree. The root line is "<name>./" and carries no connector; the root
// counts as a last sibling, so its children start one padding step in.
func (node *Node) Lines() []string {
	lines := []string{node.Name + rootSuffix}
	sortedChildren := node.SortedChildren()
	for childIndex, childNode := range sortedChildren {
		lines = renderNode(lines, childNode, treeLastPadding, childIndex == len(sortedChildren)-1)
	}
	return lines
}

// Write renders the tree to writer, one line per entry.
func (node *Node) Write(writer io.Writer) error {
	for _, line := range node.Lines() {
		if _, writeError := io.WriteString(writer, line+"\n"); writeError != nil {
			return writeError
		}
	}
	return nil
}

func treeNodeLinePrefix(prefix string, isLast bool) (string, string) {
	if isLast {
		return prefix + treeLastConnector, prefix + treeLastPadding
	}
	return prefix + treeBranchConnector, prefix + treeBranchPadding
}

func renderNode(lines []string, node *Node, prefix string, isLast bool) []string {
	linePrefix, childPrefix := treeNodeLinePrefix(prefix, isLast)
	if node.IsFile {
		return append(lines, linePrefix+fileLabel(node))
	}
	if node.IsCollapsible {
		return append(lines, linePrefix+collapsedLabel(node))
	}
	lines = append(lines, linePrefix+node.Name+directorySuffix)
	sortedChildren := node.SortedChildren()
	for childIndex, childNode := range sortedChildren {
		lines = renderNode(lines, childNode, childPrefix, childIndex == len(sortedChildren)-1)
	}
	return lines
}

func fileLabel(node *Node) string {
	if node.IsSkipped {
		return node.Name + skippedSuffix
	}
	return node.Name
}

// collapsedLabel joins a chain of single-child directories and its terminal file with "/".
func collapsedLabel(node *Node) string {
	segments := []string{}
	currentNode := node
	for !currentNode.IsFile {
		segments = append(segments, currentNode.Name)
		var onlyChild *Node
		for _, childNode := range currentNode.Children {
			onlyChild = childNode
		}
		if onlyChild == nil {
			return strings.Join(segments, segmentJoiner) + directorySuffix
		}
		currentNode = onlyChild
	}
	segments = append(segments, fileLabel(currentNode))
	return strings.Join(segments, segmentJoiner)
}
