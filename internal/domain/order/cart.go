package order

// Line is a requested quantity of one menu item.
type Line struct {
	MenuItemID string
	Quantity   int
	Notes      string
}

// Cart collects the lines of an order while it is still being built. It is
// owned by a single checkout flow and is not safe for concurrent use.
type Cart struct {
	TableNumber string
	MemberID    string
	lines       []Line
}

// NewCart returns an empty cart for the given table.
func NewCart(tableNumber string) *Cart {
	return &Cart{TableNumber: tableNumber}
}

// Add appends qty of a menu item. Lines with the same item and notes are
// merged.
func (c *Cart) Add(menuItemID string, qty int, notes string) error {
	if !validQuantity(qty) {
		return &InvalidQuantityError{MenuItemID: menuItemID}
	}
	if i := c.find(menuItemID, notes); i >= 0 {
		if qty > MaxQuantity-c.lines[i].Quantity {
			return &InvalidQuantityError{MenuItemID: menuItemID}
		}
		c.lines[i].Quantity += qty
		return nil
	}
	c.lines = append(c.lines, Line{MenuItemID: menuItemID, Quantity: qty, Notes: notes})
	return nil
}

// SetQuantity replaces the quantity of a line; qty below one removes it.
// It reports whether the line existed.
func (c *Cart) SetQuantity(menuItemID, notes string, qty int) bool {
	i := c.find(menuItemID, notes)
	if i < 0 {
		return false
	}
	if qty < 1 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return true
	}
	c.lines[i].Quantity = qty
	return true
}

// Remove deletes a line and reports whether it existed.
func (c *Cart) Remove(menuItemID, notes string) bool {
	return c.SetQuantity(menuItemID, notes, 0)
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Request converts the cart into a submission.
func (c *Cart) Request(createdBy string, payNow bool) SubmitRequest {
	return SubmitRequest{
		TableNumber: c.TableNumber,
		Items:       c.Lines(),
		MemberID:    c.MemberID,
		CreatedBy:   createdBy,
		PayNow:      payNow,
	}
}

func (c *Cart) find(menuItemID, notes string) int {
	for i, l := range c.lines {
		if l.MenuItemID == menuItemID && l.Notes == notes {
			return i
		}
	}
	return -1
}
