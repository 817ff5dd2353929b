/*
Copyright 2026 The TRB Index Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package rbtree implements a threaded red-black tree whose node
// identifiers are caller-supplied row-IDs rather than heap pointers.
// Each child link doubles as an in-order thread when it has no real
// subtree, which lets MoveNext/MovePrev step to the adjacent key in
// O(1) without parent pointers or recursion. The tree itself stores
// no keys; it is driven by a Comparator that knows how to compare
// row-IDs and raw keys against whatever backend owns the key bytes.
package rbtree

// NilID is the sentinel row-ID meaning "no node" / "end of chain".
const NilID = ^uint32(0)

// MaxStackDepth bounds a walk stack at the worst-case red-black tree
// height over 31-bit row-ID counts: 2*(32-1).
const MaxStackDepth = 2 * (32 - 1)

// Node is one threaded tree node, addressed by row-ID. Storage
// backends embed or compute one of these per slot.
type Node struct {
	Left, Right             uint32
	LeftThread, RightThread bool
	Red                     bool
	Used                    bool
}

// EmptyNode is the value a freshly grown or tombstoned slot should
// hold before it is linked into the tree.
func EmptyNode() Node {
	return Node{Left: NilID, Right: NilID, LeftThread: true, RightThread: true}
}

// Nodes is the mutable node-slot storage the tree algorithms operate
// over. Each of the three key-storage backends implements it directly
// against its own layout.
type Nodes interface {
	Node(id uint32) Node
	SetNode(id uint32, n Node)
}

// Comparator orders row-IDs and raw keys for one index's storage.
// Implementations must break ties between two IDs whose keys compare
// equal by descending ID (higher ID sorts first); this is required
// for the VarLen backend's alias bookkeeping to hold.
type Comparator interface {
	// CompareKey compares a raw key against the key stored at id.
	// Returns <0, 0, or >0 the way bytes.Compare does.
	CompareKey(key []byte, id uint32) int
	// CompareIDs compares the keys stored at a and b, descending-ID
	// tie-break on equal keys. Returns 0 only if a == b.
	CompareIDs(a, b uint32) int
}

// Root summarizes one tree: live count, in-order extremes, and the
// root slot.
type Root struct {
	RootID              uint32
	Size                uint32
	MostLeft, MostRight uint32
}

// EmptyRoot returns a Root value for a tree with no entries.
func EmptyRoot() Root {
	return Root{RootID: NilID, MostLeft: NilID, MostRight: NilID}
}

// Stack is an allocation-free walk stack recording a descent path
// from the tree root down to an insertion or removal point.
type Stack struct {
	id  [MaxStackDepth]uint32
	dir [MaxStackDepth]bool // dir[i]: id[i+1] is the right (true) or left (false) child of id[i]
	h   int
}

// Height reports how many ancestors the stack currently records.
func (s *Stack) Height() int { return s.h }

// At returns the id recorded at stack position i (0 is the tree root).
func (s *Stack) At(i int) uint32 { return s.id[i] }

func descend(root Root, nodes Nodes, cmp func(cur uint32) int) (Stack, bool) {
	var st Stack
	cur := root.RootID
	for cur != NilID {
		st.id[st.h] = cur
		c := cmp(cur)
		if c == 0 {
			st.h++
			return st, true
		}
		n := nodes.Node(cur)
		if c < 0 {
			st.dir[st.h] = false
			st.h++
			if n.LeftThread {
				return st, false
			}
			cur = n.Left
		} else {
			st.dir[st.h] = true
			st.h++
			if n.RightThread {
				return st, false
			}
			cur = n.Right
		}
	}
	return st, false
}

// FindPathForUnique descends to where key belongs. If an equal key is
// already present, it returns exists=true and the matching id (the
// last stack entry).
func FindPathForUnique(root Root, nodes Nodes, key []byte, cmp Comparator) (st Stack, exists bool, matchID uint32) {
	st, found := descend(root, nodes, func(cur uint32) int { return cmp.CompareKey(key, cur) })
	if found {
		return st, true, st.id[st.h-1]
	}
	return st, false, NilID
}

// FindPathForMulti descends to the insertion point for an
// already-allocated, not-yet-linked id, tie-breaking by descending id
// among equal keys.
func FindPathForMulti(root Root, nodes Nodes, id uint32, cmp Comparator) Stack {
	st, _ := descend(root, nodes, func(cur uint32) int { return cmp.CompareIDs(id, cur) })
	return st
}

// FindPathForRemove descends to the position of a known-used id.
func FindPathForRemove(root Root, nodes Nodes, id uint32, cmp Comparator) (st Stack, exists bool) {
	return descend(root, nodes, func(cur uint32) int { return cmp.CompareIDs(id, cur) })
}

func nodeRed(nodes Nodes, id uint32) bool {
	if id == NilID {
		return false
	}
	return nodes.Node(id).Red
}

func setRed(nodes Nodes, id uint32, red bool) {
	if id == NilID {
		return
	}
	n := nodes.Node(id)
	n.Red = red
	nodes.SetNode(id, n)
}

// realChild returns the dir child of id if it is a genuine subtree
// link, or NilID if that side is a thread (or id is NilID).
func realChild(nodes Nodes, id uint32, dir bool) uint32 {
	if id == NilID {
		return NilID
	}
	n := nodes.Node(id)
	if dir {
		if n.RightThread {
			return NilID
		}
		return n.Right
	}
	if n.LeftThread {
		return NilID
	}
	return n.Left
}

// rotateLeft rotates the subtree rooted at x to the left; x.Right (a
// real link) becomes the new subtree root, with x as its left child.
// Colors are left untouched; callers set them per the fix-up in use.
// It does not touch x's former parent link; the caller relinks that.
func rotateLeft(nodes Nodes, x uint32) uint32 {
	xn := nodes.Node(x)
	y := xn.Right
	yn := nodes.Node(y)
	if yn.LeftThread {
		xn.Right = y
		xn.RightThread = true
	} else {
		xn.Right = yn.Left
		xn.RightThread = false
	}
	yn.Left = x
	yn.LeftThread = false
	nodes.SetNode(x, xn)
	nodes.SetNode(y, yn)
	return y
}

// rotateRight is the mirror of rotateLeft.
func rotateRight(nodes Nodes, x uint32) uint32 {
	xn := nodes.Node(x)
	y := xn.Left
	yn := nodes.Node(y)
	if yn.RightThread {
		xn.Left = y
		xn.LeftThread = true
	} else {
		xn.Left = yn.Right
		xn.LeftThread = false
	}
	yn.Right = x
	yn.RightThread = false
	nodes.SetNode(x, xn)
	nodes.SetNode(y, yn)
	return y
}

func relinkByID(root *Root, nodes Nodes, parentID uint32, dir bool, newChild uint32) {
	if parentID == NilID {
		root.RootID = newChild
		return
	}
	pn := nodes.Node(parentID)
	if dir {
		pn.Right = newChild
		pn.RightThread = false
	} else {
		pn.Left = newChild
		pn.LeftThread = false
	}
	nodes.SetNode(parentID, pn)
}

func relinkAncestor(root *Root, nodes Nodes, st *Stack, idx int, newChild uint32) {
	if idx <= 0 {
		root.RootID = newChild
		return
	}
	relinkByID(root, nodes, st.id[idx-1], st.dir[idx-1], newChild)
}

func attach(root *Root, nodes Nodes, st *Stack, id uint32) {
	nn := EmptyNode()
	nn.Used = true
	nn.Red = true
	if st.h == 0 {
		nodes.SetNode(id, nn)
		root.RootID = id
		root.MostLeft = id
		root.MostRight = id
		root.Size++
		st.id[0] = id
		st.h = 1
		return
	}
	p := st.id[st.h-1]
	dir := st.dir[st.h-1]
	pn := nodes.Node(p)
	if !dir {
		nn.Left = pn.Left
		nn.LeftThread = true
		nn.Right = p
		nn.RightThread = true
		pn.Left = id
		pn.LeftThread = false
		if p == root.MostLeft {
			root.MostLeft = id
		}
	} else {
		nn.Right = pn.Right
		nn.RightThread = true
		nn.Left = p
		nn.LeftThread = true
		pn.Right = id
		pn.RightThread = false
		if p == root.MostRight {
			root.MostRight = id
		}
	}
	nodes.SetNode(id, nn)
	nodes.SetNode(p, pn)
	root.Size++
	st.id[st.h] = id
	st.h++
}

func insertFixup(root *Root, nodes Nodes, st *Stack) {
	i := st.h - 1
	for i >= 2 {
		pID := st.id[i-1]
		if !nodeRed(nodes, pID) {
			break
		}
		gID := st.id[i-2]
		pIsRightOfG := st.dir[i-2]
		var uncleID uint32
		if pIsRightOfG {
			uncleID = realChild(nodes, gID, false)
		} else {
			uncleID = realChild(nodes, gID, true)
		}
		if nodeRed(nodes, uncleID) {
			setRed(nodes, pID, false)
			setRed(nodes, uncleID, false)
			setRed(nodes, gID, true)
			i -= 2
			continue
		}
		zID := st.id[i]
		zIsRightOfP := st.dir[i-1]
		var ggID uint32 = NilID
		var gIsRightOfGG bool
		if i-3 >= 0 {
			ggID = st.id[i-3]
			gIsRightOfGG = st.dir[i-3]
		}
		if !pIsRightOfG {
			if zIsRightOfP {
				relinkByID(root, nodes, gID, false, rotateLeft(nodes, pID))
				pID, zID = zID, pID
			}
			setRed(nodes, pID, false)
			setRed(nodes, gID, true)
			newSubRoot := rotateRight(nodes, gID)
			relinkByID(root, nodes, ggID, gIsRightOfGG, newSubRoot)
		} else {
			if !zIsRightOfP {
				relinkByID(root, nodes, gID, true, rotateRight(nodes, pID))
				pID, zID = zID, pID
			}
			setRed(nodes, pID, false)
			setRed(nodes, gID, true)
			newSubRoot := rotateLeft(nodes, gID)
			relinkByID(root, nodes, ggID, gIsRightOfGG, newSubRoot)
		}
		break
	}
	setRed(nodes, root.RootID, false)
}

// Insert links id into the tree at the position described by st (as
// produced by FindPathForUnique or FindPathForMulti) and rebalances.
func Insert(root *Root, nodes Nodes, st Stack, id uint32) {
	attach(root, nodes, &st, id)
	insertFixup(root, nodes, &st)
}

func deleteFixup(root *Root, nodes Nodes, st *Stack, parentIdx int, xID uint32, xIsRight bool) {
	for parentIdx >= 0 && xID != root.RootID && !nodeRed(nodes, xID) {
		pID := st.id[parentIdx]
		if !xIsRight {
			wID := realChild(nodes, pID, true)
			if nodeRed(nodes, wID) {
				setRed(nodes, wID, false)
				setRed(nodes, pID, true)
				newSub := rotateLeft(nodes, pID)
				relinkAncestor(root, nodes, st, parentIdx, newSub)
				st.id[parentIdx] = newSub
				st.id[parentIdx+1] = pID
				st.dir[parentIdx] = false
				parentIdx++
				wID = realChild(nodes, pID, true)
			}
			wLeft := realChild(nodes, wID, false)
			wRight := realChild(nodes, wID, true)
			if !nodeRed(nodes, wLeft) && !nodeRed(nodes, wRight) {
				setRed(nodes, wID, true)
				xID = pID
				if parentIdx == 0 {
					parentIdx = -1
				} else {
					xIsRight = st.dir[parentIdx-1]
					parentIdx--
				}
				continue
			}
			if !nodeRed(nodes, wRight) {
				setRed(nodes, wLeft, false)
				setRed(nodes, wID, true)
				newW := rotateRight(nodes, wID)
				pn := nodes.Node(pID)
				pn.Right = newW
				pn.RightThread = false
				nodes.SetNode(pID, pn)
				wID = newW
				wRight = realChild(nodes, wID, true)
			}
			setRed(nodes, wID, nodeRed(nodes, pID))
			setRed(nodes, pID, false)
			setRed(nodes, wRight, false)
			newSub := rotateLeft(nodes, pID)
			relinkAncestor(root, nodes, st, parentIdx, newSub)
			xID = root.RootID
			break
		} else {
			wID := realChild(nodes, pID, false)
			if nodeRed(nodes, wID) {
				setRed(nodes, wID, false)
				setRed(nodes, pID, true)
				newSub := rotateRight(nodes, pID)
				relinkAncestor(root, nodes, st, parentIdx, newSub)
				st.id[parentIdx] = newSub
				st.id[parentIdx+1] = pID
				st.dir[parentIdx] = true
				parentIdx++
				wID = realChild(nodes, pID, false)
			}
			wLeft := realChild(nodes, wID, false)
			wRight := realChild(nodes, wID, true)
			if !nodeRed(nodes, wLeft) && !nodeRed(nodes, wRight) {
				setRed(nodes, wID, true)
				xID = pID
				if parentIdx == 0 {
					parentIdx = -1
				} else {
					xIsRight = st.dir[parentIdx-1]
					parentIdx--
				}
				continue
			}
			if !nodeRed(nodes, wLeft) {
				setRed(nodes, wRight, false)
				setRed(nodes, wID, true)
				newW := rotateLeft(nodes, wID)
				pn := nodes.Node(pID)
				pn.Left = newW
				pn.LeftThread = false
				nodes.SetNode(pID, pn)
				wID = newW
				wLeft = realChild(nodes, wID, false)
			}
			setRed(nodes, wID, nodeRed(nodes, pID))
			setRed(nodes, pID, false)
			setRed(nodes, wLeft, false)
			newSub := rotateRight(nodes, pID)
			relinkAncestor(root, nodes, st, parentIdx, newSub)
			xID = root.RootID
			break
		}
	}
	setRed(nodes, xID, false)
	if root.RootID != NilID {
		setRed(nodes, root.RootID, false)
	}
}

// Remove unlinks the node at the position described by st (as
// produced by FindPathForRemove) and rebalances.
func Remove(root *Root, nodes Nodes, st Stack) {
	t := st.h - 1
	targetID := st.id[t]
	tn := nodes.Node(targetID)

	var removedColor bool
	var xID uint32
	parentIdx := t - 1
	xIsRight := false
	if t > 0 {
		xIsRight = st.dir[t-1]
	}

	switch {
	case !tn.LeftThread && !tn.RightThread:
		// Two real children: splice the in-order successor into
		// target's structural position, then remove target from the
		// successor's old spot (which has no left child).
		h := st.h
		st.id[h] = tn.Right
		st.dir[h-1] = true
		h++
		cur := tn.Right
		for {
			cn := nodes.Node(cur)
			if cn.LeftThread {
				break
			}
			cur = cn.Left
			st.id[h] = cur
			st.dir[h-1] = false
			h++
		}
		st.h = h
		sID := st.id[h-1]
		sn := nodes.Node(sID)
		removedColor = sn.Red
		direct := h-1 == t+1
		xID = realChild(nodes, sID, true)

		if !direct {
			sParentIdx := h - 2
			sParentID := st.id[sParentIdx]
			spn := nodes.Node(sParentID)
			if xID == NilID {
				spn.Left = sID
				spn.LeftThread = true
			} else {
				spn.Left = xID
				spn.LeftThread = false
			}
			nodes.SetNode(sParentID, spn)
			parentIdx = sParentIdx
			xIsRight = false

			sn.Right = tn.Right
			sn.RightThread = false
		} else {
			parentIdx = t
			xIsRight = true
			// sn.Right/.RightThread already describe s's own right
			// side correctly; nothing to change there.
		}
		sn.Left = tn.Left
		sn.LeftThread = tn.LeftThread
		sn.Red = tn.Red
		nodes.SetNode(sID, sn)
		if pred := MovePrev(nodes, targetID); pred != NilID {
			pn := nodes.Node(pred)
			pn.Right = sID
			nodes.SetNode(pred, pn)
		}

		relinkByID(root, nodes, parentIDOrNil(&st, t), dirOrFalse(&st, t), sID)
		st.id[t] = sID

	case tn.LeftThread && tn.RightThread:
		removedColor = tn.Red
		xID = NilID
		pred, succ := tn.Left, tn.Right
		relinkThread(root, nodes, parentIDOrNil(&st, t), dirOrFalse(&st, t), t > 0, pred, succ, true, true)
		if pred != NilID && nodes.Node(pred).RightThread {
			pn := nodes.Node(pred)
			pn.Right = succ
			pn.RightThread = true
			nodes.SetNode(pred, pn)
		}
		if succ != NilID && nodes.Node(succ).LeftThread {
			sn := nodes.Node(succ)
			sn.Left = pred
			sn.LeftThread = true
			nodes.SetNode(succ, sn)
		}
		if root.MostLeft == targetID {
			root.MostLeft = succ
		}
		if root.MostRight == targetID {
			root.MostRight = pred
		}

	case !tn.LeftThread:
		// Only a left child.
		removedColor = tn.Red
		l := tn.Left
		xID = l
		relinkByID(root, nodes, parentIDOrNil(&st, t), dirOrFalse(&st, t), l)
		succ := tn.Right
		maxID := l
		for {
			mn := nodes.Node(maxID)
			if mn.RightThread {
				break
			}
			maxID = mn.Right
		}
		mn := nodes.Node(maxID)
		mn.Right = succ
		mn.RightThread = true
		nodes.SetNode(maxID, mn)
		if succ != NilID && nodes.Node(succ).LeftThread {
			sn := nodes.Node(succ)
			sn.Left = maxID
			sn.LeftThread = true
			nodes.SetNode(succ, sn)
		}
		if root.MostRight == targetID {
			root.MostRight = maxID
		}

	default:
		// Only a right child.
		removedColor = tn.Red
		r := tn.Right
		xID = r
		relinkByID(root, nodes, parentIDOrNil(&st, t), dirOrFalse(&st, t), r)
		pred := tn.Left
		minID := r
		for {
			mn := nodes.Node(minID)
			if mn.LeftThread {
				break
			}
			minID = mn.Left
		}
		mn := nodes.Node(minID)
		mn.Left = pred
		mn.LeftThread = true
		nodes.SetNode(minID, mn)
		if pred != NilID && nodes.Node(pred).RightThread {
			pn := nodes.Node(pred)
			pn.Right = minID
			pn.RightThread = true
			nodes.SetNode(pred, pn)
		}
		if root.MostLeft == targetID {
			root.MostLeft = minID
		}
	}

	root.Size--
	nodes.SetNode(targetID, EmptyNode())

	if root.RootID == NilID {
		return
	}
	if !removedColor {
		deleteFixup(root, nodes, &st, parentIdx, xID, xIsRight)
	}
}

func parentIDOrNil(st *Stack, idx int) uint32 {
	if idx == 0 {
		return NilID
	}
	return st.id[idx-1]
}

func dirOrFalse(st *Stack, idx int) bool {
	if idx == 0 {
		return false
	}
	return st.dir[idx-1]
}

// relinkThread is the thread-installing counterpart of relinkByID,
// used by the leaf-removal case: it turns the parent's child slot on
// the removed leaf's side into a thread (to pred on the left, to succ
// on the right), or empties the tree when the leaf has no parent.
func relinkThread(root *Root, nodes Nodes, parentID uint32, dir, hasParent bool, pred, succ uint32, _, _ bool) {
	if !hasParent {
		root.RootID = NilID
		return
	}
	pn := nodes.Node(parentID)
	if dir {
		pn.Right = succ
		pn.RightThread = true
	} else {
		pn.Left = pred
		pn.LeftThread = true
	}
	nodes.SetNode(parentID, pn)
}

// MoveNext returns the in-order successor of id, or NilID if id is
// the maximum.
func MoveNext(nodes Nodes, id uint32) uint32 {
	n := nodes.Node(id)
	if n.RightThread {
		return n.Right
	}
	cur := n.Right
	for {
		cn := nodes.Node(cur)
		if cn.LeftThread {
			return cur
		}
		cur = cn.Left
	}
}

// MovePrev returns the in-order predecessor of id, or NilID if id is
// the minimum.
func MovePrev(nodes Nodes, id uint32) uint32 {
	n := nodes.Node(id)
	if n.LeftThread {
		return n.Left
	}
	cur := n.Left
	for {
		cn := nodes.Node(cur)
		if cn.RightThread {
			return cur
		}
		cur = cn.Right
	}
}

// LowerBound returns the first id whose key is >= key, or NilID.
func LowerBound(root Root, nodes Nodes, key []byte, cmp Comparator) uint32 {
	cur := root.RootID
	var result uint32 = NilID
	for cur != NilID {
		c := cmp.CompareKey(key, cur)
		if c <= 0 {
			result = cur
			cur = realChild(nodes, cur, false)
		} else {
			cur = realChild(nodes, cur, true)
		}
	}
	return result
}

// UpperBound returns the first id whose key is > key, or NilID.
func UpperBound(root Root, nodes Nodes, key []byte, cmp Comparator) uint32 {
	cur := root.RootID
	var result uint32 = NilID
	for cur != NilID {
		c := cmp.CompareKey(key, cur)
		if c < 0 {
			result = cur
			cur = realChild(nodes, cur, false)
		} else {
			cur = realChild(nodes, cur, true)
		}
	}
	return result
}

// ReverseLowerBound returns the last id whose key is <= key, or NilID.
func ReverseLowerBound(root Root, nodes Nodes, key []byte, cmp Comparator) uint32 {
	cur := root.RootID
	var result uint32 = NilID
	for cur != NilID {
		c := cmp.CompareKey(key, cur)
		if c >= 0 {
			result = cur
			cur = realChild(nodes, cur, true)
		} else {
			cur = realChild(nodes, cur, false)
		}
	}
	return result
}

// ReverseUpperBound returns the last id whose key is < key, or NilID.
func ReverseUpperBound(root Root, nodes Nodes, key []byte, cmp Comparator) uint32 {
	cur := root.RootID
	var result uint32 = NilID
	for cur != NilID {
		c := cmp.CompareKey(key, cur)
		if c > 0 {
			result = cur
			cur = realChild(nodes, cur, true)
		} else {
			cur = realChild(nodes, cur, false)
		}
	}
	return result
}

// EqualRange returns the half-open [lower, upper) run of ids whose
// key equals key, in ascending tree order (descending-ID order within
// the run). Both bounds are NilID-terminated via MoveNext, i.e. upper
// is the id immediately following the run, or NilID if the run
// extends to the maximum.
func EqualRange(root Root, nodes Nodes, key []byte, cmp Comparator) (lower, upper uint32) {
	lower = LowerBound(root, nodes, key, cmp)
	if lower == NilID {
		return NilID, NilID
	}
	if cmp.CompareKey(key, lower) != 0 {
		return lower, lower
	}
	upper = UpperBound(root, nodes, key, cmp)
	return lower, upper
}
