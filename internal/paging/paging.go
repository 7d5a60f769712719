// Package paging holds the page arithmetic for the saved-album list: how
// many pages a list occupies, clamping of requested page numbers, and the
// page a user should land on after mutating the list.
package paging

// PageSize is the fixed number of saved albums shown per page.
const PageSize = 10

// PageCount reports how many pages a list of total items occupies. An empty
// list still has one page. A list that ends exactly on a page boundary does
// not get a trailing empty page.
func PageCount(total int) int {
	if total >= PageSize && total%PageSize == 0 {
		return total / PageSize
	}
	return total/PageSize + 1
}

// Clamp forces a requested page number into the valid 1..pages range.
func Clamp(requested, pages int) int {
	if requested < 1 {
		return 1
	}
	if requested > pages {
		return pages
	}
	return requested
}

// PageOf reports the page containing a 1-based list position.
func PageOf(position int) int {
	return (position-1)/PageSize + 1
}

// AfterRemoval reports the page to show once the item at removedPosition is
// gone and newTotal items remain: the page that held the item, clamped in
// case the removal emptied the last page.
func AfterRemoval(removedPosition, newTotal int) int {
	return Clamp(PageOf(removedPosition), PageCount(newTotal))
}

// AfterMove reports the page now containing the moved item.
func AfterMove(newPosition int) int {
	return PageOf(newPosition)
}

// Offset converts a (clamped) page number to a query offset.
func Offset(page int) int {
	return (page - 1) * PageSize
}
