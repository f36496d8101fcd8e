package handlers

import (
	"time"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/services"
)

type cartResponse struct {
	Cart *cartPayload `json:"cart"`
}

type cartPayload struct {
	ID            string            `json:"id"`
	OwnerKind     string            `json:"ownerKind"`
	Lines         []cartLinePayload `json:"lines"`
	TotalPrice    int64             `json:"totalPrice"`
	TotalQuantity int               `json:"totalQuantity"`
	CreatedAt     string            `json:"createdAt"`
	UpdatedAt     string            `json:"updatedAt"`
}

type cartLinePayload struct {
	ProductID      string `json:"productId"`
	Title          string `json:"title,omitempty"`
	Image          string `json:"image,omitempty"`
	Color          string `json:"color,omitempty"`
	Size           string `json:"size,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPrice      int64  `json:"unitPrice"`
	UnitFinalPrice int64  `json:"unitFinalPrice"`
	AddedAt        string `json:"addedAt"`
}

func buildCartPayload(cart services.Cart) *cartPayload {
	lines := make([]cartLinePayload, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, cartLinePayload{
			ProductID:      line.ProductID,
			Title:          line.Title,
			Image:          line.Image,
			Color:          line.Color,
			Size:           line.Size,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			UnitFinalPrice: line.UnitFinalPrice,
			AddedAt:        formatTime(line.AddedAt),
		})
	}
	return &cartPayload{
		ID:            cart.ID,
		OwnerKind:     string(cart.Owner.Kind()),
		Lines:         lines,
		TotalPrice:    cart.TotalPrice,
		TotalQuantity: cart.TotalQuantity,
		CreatedAt:     formatTime(cart.CreatedAt),
		UpdatedAt:     formatTime(cart.UpdatedAt),
	}
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderListResponse struct {
	Orders []orderPayload `json:"orders"`
}

type orderPayload struct {
	ID             string                `json:"id"`
	AccountID      string                `json:"accountId"`
	Lines          []orderLinePayload    `json:"lines"`
	TotalPrice     int64                 `json:"totalPrice"`
	PaymentMethod  string                `json:"paymentMethod"`
	Status         string                `json:"status"`
	DeliveryStatus string                `json:"deliveryStatus"`
	PaymentStatus  string                `json:"paymentStatus"`
	UserComment    *string               `json:"userComment,omitempty"`
	AdminComments  []adminCommentPayload `json:"adminComments,omitempty"`
	IsArchived     bool                  `json:"isArchived"`
	CreatedAt      string                `json:"createdAt"`
	UpdatedAt      string                `json:"updatedAt"`
}

type orderLinePayload struct {
	ProductID      string `json:"productId"`
	Title          string `json:"title,omitempty"`
	Image          string `json:"image,omitempty"`
	Color          string `json:"color,omitempty"`
	Size           string `json:"size,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPrice      int64  `json:"unitPrice"`
	UnitFinalPrice int64  `json:"unitFinalPrice"`
}

type adminCommentPayload struct {
	ID        string `json:"id"`
	AuthorID  string `json:"authorId"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

func buildOrderPayload(order services.Order) orderPayload {
	payload := orderPayload{
		ID:             order.ID,
		AccountID:      order.AccountID,
		Lines:          buildOrderLines(order.Lines),
		TotalPrice:     order.TotalPrice,
		PaymentMethod:  order.PaymentMethod,
		Status:         string(order.Status),
		DeliveryStatus: string(order.DeliveryStatus),
		PaymentStatus:  string(order.PaymentStatus),
		UserComment:    order.UserComment,
		IsArchived:     order.IsArchived,
		CreatedAt:      formatTime(order.CreatedAt),
		UpdatedAt:      formatTime(order.UpdatedAt),
	}
	for _, c := range order.AdminComments {
		payload.AdminComments = append(payload.AdminComments, adminCommentPayload{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			Text:      c.Text,
			CreatedAt: formatTime(c.CreatedAt),
		})
	}
	return payload
}

func buildOrderList(orders []services.Order) orderListResponse {
	out := orderListResponse{Orders: make([]orderPayload, 0, len(orders))}
	for _, order := range orders {
		out.Orders = append(out.Orders, buildOrderPayload(order))
	}
	return out
}

func buildOrderLines(lines []services.OrderLine) []orderLinePayload {
	out := make([]orderLinePayload, 0, len(lines))
	for _, line := range lines {
		out = append(out, orderLinePayload{
			ProductID:      line.ProductID,
			Title:          line.Title,
			Image:          line.Image,
			Color:          line.Color,
			Size:           line.Size,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			UnitFinalPrice: line.UnitFinalPrice,
		})
	}
	return out
}

type historyResponse struct {
	History historyPayload `json:"history"`
}

type historyListResponse struct {
	Histories []historyPayload `json:"histories"`
}

type historyPayload struct {
	ID            string             `json:"id"`
	AccountID     string             `json:"accountId"`
	OrderID       string             `json:"orderId"`
	Lines         []orderLinePayload `json:"lines"`
	TotalPrice    int64              `json:"totalPrice"`
	PaymentMethod string             `json:"paymentMethod"`
	CompletedAt   string             `json:"completedAt"`
}

func buildHistoryPayload(history services.OrderHistory) historyPayload {
	return historyPayload{
		ID:            history.ID,
		AccountID:     history.AccountID,
		OrderID:       history.OrderID,
		Lines:         buildOrderLines(history.Lines),
		TotalPrice:    history.TotalPrice,
		PaymentMethod: history.PaymentMethod,
		CompletedAt:   formatTime(history.CompletedAt),
	}
}

func buildHistoryList(histories []services.OrderHistory) historyListResponse {
	out := historyListResponse{Histories: make([]historyPayload, 0, len(histories))}
	for _, h := range histories {
		out.Histories = append(out.Histories, buildHistoryPayload(h))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
