package domain

import "strings"

// LockOrder returns two account ids in lock acquisition order: the id that
// compares greater-or-equal goes first.
//
// The order depends only on the pair, not on the transfer direction, so
// LockOrder(a, b) and LockOrder(b, a) agree and no cycle of waiting transfers
// can form. When both ids are equal the caller must take the lock once.
func LockOrder(fromID, toID string) (first, second string) {
	if strings.Compare(fromID, toID) >= 0 {
		return fromID, toID
	}
	return toID, fromID
}
