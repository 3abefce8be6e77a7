package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/menu"
	"github.com/xenking/kasir/internal/domain/order"
	"github.com/xenking/kasir/internal/domain/report"
)

// errBadRequest marks request bodies and parameters that cannot be decoded.
var errBadRequest = errors.New("bad request")

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// writeJSON encodes a response body with fn and writes it with status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeError(e *jx.Encoder, code int, msg string) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Str(d.StringFixed(2))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeOptString(e *jx.Encoder, s *string) {
	if s == nil {
		e.Null()
		return
	}
	e.Str(*s)
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		if o.ID != "" {
			e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		}
		e.Field("tableNumber", func(e *jx.Encoder) { e.Str(o.TableNumber) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i := range o.Items {
					encodeOrderItem(e, &o.Items[i])
				}
			})
		})
		e.Field("totalPrice", func(e *jx.Encoder) { encodeMoney(e, o.TotalPrice) })
		e.Field("taxPercentage", func(e *jx.Encoder) { e.Str(o.TaxPercentage.String()) })
		e.Field("taxAmount", func(e *jx.Encoder) { encodeMoney(e, o.TaxAmount) })
		e.Field("discount", func(e *jx.Encoder) { encodeMoney(e, o.Discount) })
		e.Field("finalPrice", func(e *jx.Encoder) { encodeMoney(e, o.FinalPrice) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("memberId", func(e *jx.Encoder) { encodeOptString(e, o.MemberID) })
		if o.ID == "" {
			return
		}
		e.Field("createdBy", func(e *jx.Encoder) { e.Str(o.CreatedBy) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, o.CreatedAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { encodeTime(e, o.UpdatedAt) })
		e.Field("completedAt", func(e *jx.Encoder) {
			if o.CompletedAt == nil {
				e.Null()
				return
			}
			encodeTime(e, *o.CompletedAt)
		})
	})
}

func encodeOrderItem(e *jx.Encoder, it *order.Item) {
	e.Obj(func(e *jx.Encoder) {
		if it.ID != 0 {
			e.Field("id", func(e *jx.Encoder) { e.Int64(it.ID) })
		}
		e.Field("menuItemId", func(e *jx.Encoder) { e.Str(it.MenuItemID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(it.Description) })
		e.Field("price", func(e *jx.Encoder) { encodeMoney(e, it.Price) })
		e.Field("category", func(e *jx.Encoder) { e.Str(it.Category) })
		e.Field("imageUrl", func(e *jx.Encoder) { e.Str(it.ImageURL) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		e.Field("notes", func(e *jx.Encoder) { e.Str(it.Notes) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeMoney(e, it.Subtotal) })
	})
}

func encodeOrders(e *jx.Encoder, orders []order.Order) {
	e.Arr(func(e *jx.Encoder) {
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
	})
}

func encodeMenuItem(e *jx.Encoder, it *menu.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(it.Description) })
		e.Field("price", func(e *jx.Encoder) { encodeMoney(e, it.Price) })
		e.Field("category", func(e *jx.Encoder) { e.Str(it.Category) })
		e.Field("imageUrl", func(e *jx.Encoder) { e.Str(it.ImageURL) })
		e.Field("isAvailable", func(e *jx.Encoder) { e.Bool(it.Available) })
		e.Field("preparationTime", func(e *jx.Encoder) { e.Int(it.PreparationTime) })
	})
}

func encodeMember(e *jx.Encoder, m *member.Member) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(m.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(m.Name) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(m.Phone) })
		e.Field("email", func(e *jx.Encoder) { encodeOptString(e, m.Email) })
		e.Field("joinDate", func(e *jx.Encoder) { encodeTime(e, m.JoinDate) })
		e.Field("totalSpent", func(e *jx.Encoder) { encodeMoney(e, m.TotalSpent) })
		e.Field("totalOrders", func(e *jx.Encoder) { e.Int(m.TotalOrders) })
		e.Field("discountPercentage", func(e *jx.Encoder) { e.Str(m.DiscountPercentage.String()) })
	})
}

func encodeSales(e *jx.Encoder, s *report.SalesSummary) {
	e.Obj(func(e *jx.Encoder) {
		if !s.Period.From.IsZero() {
			e.Field("from", func(e *jx.Encoder) { encodeTime(e, s.Period.From) })
		}
		if !s.Period.To.IsZero() {
			e.Field("to", func(e *jx.Encoder) { encodeTime(e, s.Period.To) })
		}
		e.Field("orders", func(e *jx.Encoder) { e.Int(s.Orders) })
		e.Field("gross", func(e *jx.Encoder) { encodeMoney(e, s.Gross) })
		e.Field("tax", func(e *jx.Encoder) { encodeMoney(e, s.Tax) })
		e.Field("discount", func(e *jx.Encoder) { encodeMoney(e, s.Discount) })
		e.Field("net", func(e *jx.Encoder) { encodeMoney(e, s.Net) })
	})
}

func encodeDaily(e *jx.Encoder, days []report.DailySales) {
	e.Arr(func(e *jx.Encoder) {
		for _, d := range days {
			e.Obj(func(e *jx.Encoder) {
				e.Field("date", func(e *jx.Encoder) { e.Str(d.Date.Format(time.DateOnly)) })
				e.Field("orders", func(e *jx.Encoder) { e.Int(d.Orders) })
				e.Field("net", func(e *jx.Encoder) { encodeMoney(e, d.Net) })
			})
		}
	})
}

func encodeTopItems(e *jx.Encoder, items []report.ItemSales) {
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			e.Obj(func(e *jx.Encoder) {
				e.Field("menuItemId", func(e *jx.Encoder) { e.Str(it.MenuItemID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
				e.Field("revenue", func(e *jx.Encoder) { encodeMoney(e, it.Revenue) })
			})
		}
	})
}

// submitBody is the checkout payload.
type submitBody struct {
	TableNumber string
	MemberID    string
	PayNow      bool
	Items       []order.Line
}

func decodeSubmitBody(data []byte) (submitBody, error) {
	var b submitBody
	err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "tableNumber":
			b.TableNumber, err = d.Str()
		case "memberId":
			b.MemberID, err = decodeOptString(d)
		case "payNow":
			b.PayNow, err = d.Bool()
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				line, err := decodeLine(d)
				if err != nil {
					return err
				}
				b.Items = append(b.Items, line)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return submitBody{}, errors.Errorf("%w: %v", errBadRequest, err)
	}
	return b, nil
}

func decodeLine(d *jx.Decoder) (order.Line, error) {
	var l order.Line
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "menuItemId":
			l.MenuItemID, err = d.Str()
		case "quantity":
			l.Quantity, err = d.Int()
		case "notes":
			l.Notes, err = decodeOptString(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return l, err
}

func decodeMenuItem(data []byte) (menu.Item, error) {
	item := menu.Item{Available: true}
	err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			item.ID, err = d.Str()
		case "name":
			item.Name, err = d.Str()
		case "description":
			item.Description, err = decodeOptString(d)
		case "price":
			item.Price, err = decodeDecimal(d)
		case "category":
			item.Category, err = decodeOptString(d)
		case "imageUrl":
			item.ImageURL, err = decodeOptString(d)
		case "isAvailable":
			item.Available, err = d.Bool()
		case "preparationTime":
			item.PreparationTime, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return menu.Item{}, errors.Errorf("%w: %v", errBadRequest, err)
	}
	return item, nil
}

func decodeMember(data []byte) (member.Member, error) {
	var m member.Member
	err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			m.Name, err = d.Str()
		case "phone":
			m.Phone, err = decodeOptString(d)
		case "email":
			var email string
			if email, err = decodeOptString(d); err == nil && email != "" {
				m.Email = &email
			}
		case "discountPercentage":
			m.DiscountPercentage, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return member.Member{}, errors.Errorf("%w: %v", errBadRequest, err)
	}
	return m, nil
}

// decodeField reads a single named field of an object body.
func decodeField[T any](data []byte, name string, read func(d *jx.Decoder) (T, error)) (T, error) {
	var (
		v     T
		found bool
	)
	err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != name {
			return d.Skip()
		}
		var err error
		v, err = read(d)
		found = true
		return err
	})
	if err == nil && !found {
		err = errors.Errorf("field %q is required", name)
	}
	if err != nil {
		return v, errors.Errorf("%w: %v", errBadRequest, err)
	}
	return v, nil
}

func decodeBool(d *jx.Decoder) (bool, error) { return d.Bool() }

func decodeStr(d *jx.Decoder) (string, error) { return d.Str() }

// decodeDecimal accepts both JSON strings and numbers.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Decimal{}, errors.New("expected decimal string or number")
	}
}

// decodeOptString treats null as the empty string.
func decodeOptString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
