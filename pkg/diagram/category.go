package diagram

// Keyword sets for category inference. Group names use a broader vocabulary
// than node labels because swimlanes usually name a tier ("Frontend",
// "Auth Service", "Redis").
var (
	ClientCategoryKeywords   = []string{"client", "frontend", "ui", "mobile", "web"}
	ServerCategoryKeywords   = []string{"server", "backend", "api", "service", "auth", "handler", "worker"}
	DatabaseCategoryKeywords = []string{"database", "db", "store", "cache", "redis"}
)

// InferCategory assigns the visibility category of a node.
//
// Group context wins: when group is non-nil its label, then its id, are
// matched against the category keyword sets. Only when the group says nothing
// does the node's own type, then its label, decide. Group nodes are always
// [CategoryGroup].
func InferCategory(n Node, group *Node) Category {
	if n.IsGroup() {
		return CategoryGroup
	}
	if group != nil {
		if c, ok := categoryFromText(group.Label); ok {
			return c
		}
		if c, ok := categoryFromText(group.ID); ok {
			return c
		}
	}
	switch n.Type {
	case TypeClient:
		return CategoryClient
	case TypeServer:
		return CategoryServer
	case TypeDatabase:
		return CategoryDatabase
	}
	if c, ok := categoryFromText(n.Label); ok {
		return c
	}
	return CategoryOther
}

// GroupContextType returns the render type implied by a group's name, if any.
// Used by the builder when group context is allowed to override node types.
func GroupContextType(group Node) (NodeType, bool) {
	c, ok := categoryFromText(group.Label)
	if !ok {
		c, ok = categoryFromText(group.ID)
	}
	if !ok {
		return "", false
	}
	switch c {
	case CategoryClient:
		return TypeClient, true
	case CategoryServer:
		return TypeServer, true
	case CategoryDatabase:
		return TypeDatabase, true
	}
	return "", false
}

// categoryFromText matches client keywords before server keywords before
// database keywords.
func categoryFromText(s string) (Category, bool) {
	switch {
	case s == "":
		return "", false
	case containsAny(s, ClientCategoryKeywords):
		return CategoryClient, true
	case containsAny(s, ServerCategoryKeywords):
		return CategoryServer, true
	case containsAny(s, DatabaseCategoryKeywords):
		return CategoryDatabase, true
	}
	return "", false
}
