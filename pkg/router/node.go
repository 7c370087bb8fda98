package router

import "github.com/cespare/xxhash/v2"

// literalChildMap is a hash map from a literal path segment to its trie
// child node, keyed by an xxhash digest with chained buckets to resolve the
// (astronomically unlikely but still handled) collision case — the
// idiomatic Go stand-in for the spec's City-hash-keyed literal map.
type literalChildMap struct {
	buckets map[uint64][]literalChildEntry
}

type literalChildEntry struct {
	key  string
	node *routeNode
}

func newLiteralChildMap() literalChildMap {
	return literalChildMap{buckets: make(map[uint64][]literalChildEntry)}
}

func (m *literalChildMap) get(key string) (*routeNode, bool) {
	if m.buckets == nil {
		return nil, false
	}
	h := xxhash.Sum64String(key)
	for _, e := range m.buckets[h] {
		if e.key == key {
			return e.node, true
		}
	}
	return nil, false
}

func (m *literalChildMap) set(key string, node *routeNode) {
	if m.buckets == nil {
		m.buckets = make(map[uint64][]literalChildEntry)
	}
	h := xxhash.Sum64String(key)
	bucket := m.buckets[h]
	for i, e := range bucket {
		if e.key == key {
			bucket[i].node = node
			return
		}
	}
	m.buckets[h] = append(bucket, literalChildEntry{key: key, node: node})
}

func (m *literalChildMap) clear() {
	for k := range m.buckets {
		delete(m.buckets, k)
	}
}

// forEach visits every (key, node) pair; iteration order is unspecified.
func (m *literalChildMap) forEach(fn func(key string, node *routeNode)) {
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			fn(e.key, e.node)
		}
	}
}

// dynamicEdge pairs a compiled dynamic pattern with the child node reached
// when a path segment matches it.
type dynamicEdge struct {
	segment compiledSegment
	child   *routeNode
}

// routeNode is one node of the compiled trie. Children are partitioned
// into literal (hash-mapped), dynamic (pattern-matched, linearly scanned in
// registration order), and a single terminal wildcard child.
type routeNode struct {
	literalChildren literalChildMap
	dynamicChildren []dynamicEdge
	wildcardChild   *routeNode

	handlersNoSlash   PathHandlerEntry
	handlersWithSlash PathHandlerEntry
	route             *compiledRoute
}

func newRouteNode() *routeNode {
	return &routeNode{literalChildren: newLiteralChildMap()}
}

// ensureLiteralChild returns the existing literal child for segmentLiteral,
// creating one if absent.
func (n *routeNode) ensureLiteralChild(segmentLiteral string) *routeNode {
	if child, ok := n.literalChildren.get(segmentLiteral); ok {
		return child
	}
	child := newRouteNode()
	n.literalChildren.set(segmentLiteral, child)
	return child
}

// ensureDynamicChild returns the existing dynamic edge's child whose
// pattern equals segmentPattern, creating a new edge if none matches.
func (n *routeNode) ensureDynamicChild(segmentPattern compiledSegment) *routeNode {
	for _, edge := range n.dynamicChildren {
		if edge.segment.equal(segmentPattern) {
			return edge.child
		}
	}
	child := newRouteNode()
	n.dynamicChildren = append(n.dynamicChildren, dynamicEdge{segment: segmentPattern, child: child})
	return child
}

// patternString renders a human-readable reconstruction of the node's
// route pattern (e.g. "/users/{param}/files/*") for diagnostics.
func (n *routeNode) patternString() string {
	if n.route == nil {
		return "<empty>"
	}
	var b []byte
	for _, seg := range n.route.segments {
		b = append(b, '/')
		if seg.isLiteral() {
			b = append(b, seg.literal...)
		} else {
			b = append(b, "{param}"...)
		}
	}
	if n.route.hasWildcard {
		b = append(b, "/*"...)
	} else if len(b) == 0 {
		b = append(b, '/')
	}
	return string(b)
}
