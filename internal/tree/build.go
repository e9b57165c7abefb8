package tree

import "strings"

// Build makes a tree holding exactly the given relative paths, with every
// directory open. Later duplicates are ignored.
func Build(rootName string, files []string) *Node {
	root := &Node{Name: rootName, IsDir: true, Open: true, loaded: true}

	for _, rel := range files {
		rel = strings.Trim(rel, "/")
		if rel == "" {
			continue
		}
		parts := strings.Split(rel, "/")
		current := root
		for i, part := range parts {
			if current.ChildByName(part) == nil {
				current.AddChild(&Node{
					Name:   part,
					Path:   joinPath(current.Path, part),
					IsDir:  i < len(parts)-1,
					Open:   true,
					loaded: true,
				})
			}
			current = current.ChildByName(part)
			if !current.IsDir {
				break
			}
		}
	}

	root.SortRecursive()
	return root
}

func joinPath(base, part string) string {
	if base == "" {
		return part
	}
	return base + "/" + part
}
