package firestore

import (
	"time"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
)

const (
	cartCollection         = "carts"
	orderCollection        = "orders"
	orderHistoryCollection = "order_histories"
	productCollection      = "products"
)

type cartDocument struct {
	ID            string             `firestore:"id"`
	Owner         string             `firestore:"owner"`
	Lines         []cartLineDocument `firestore:"lines"`
	TotalPrice    int64              `firestore:"totalPrice"`
	TotalQuantity int                `firestore:"totalQuantity"`
	CreatedAt     time.Time          `firestore:"createdAt"`
	UpdatedAt     time.Time          `firestore:"updatedAt"`
}

type cartLineDocument struct {
	ProductID      string    `firestore:"productId"`
	Color          string    `firestore:"color"`
	Size           string    `firestore:"size"`
	Quantity       int       `firestore:"quantity"`
	UnitPrice      int64     `firestore:"price"`
	UnitFinalPrice int64     `firestore:"finalPrice"`
	Title          string    `firestore:"title"`
	Image          string    `firestore:"image"`
	AddedAt        time.Time `firestore:"addedAt"`
}

type orderDocument struct {
	AccountID      string                 `firestore:"accountId"`
	Lines          []orderLineDocument    `firestore:"lines"`
	TotalPrice     int64                  `firestore:"totalPrice"`
	PaymentMethod  string                 `firestore:"paymentMethod"`
	Status         string                 `firestore:"status"`
	DeliveryStatus string                 `firestore:"deliveryStatus"`
	PaymentStatus  string                 `firestore:"paymentStatus"`
	UserComment    *string                `firestore:"userComment"`
	AdminComments  []adminCommentDocument `firestore:"adminComments"`
	IsArchived     bool                   `firestore:"isArchived"`
	CreatedAt      time.Time              `firestore:"createdAt"`
	UpdatedAt      time.Time              `firestore:"updatedAt"`
}

type orderLineDocument struct {
	ProductID      string `firestore:"productId"`
	Title          string `firestore:"title"`
	Image          string `firestore:"image"`
	Color          string `firestore:"color"`
	Size           string `firestore:"size"`
	UnitPrice      int64  `firestore:"price"`
	UnitFinalPrice int64  `firestore:"finalPrice"`
	Quantity       int    `firestore:"quantity"`
}

type adminCommentDocument struct {
	ID        string    `firestore:"id"`
	AuthorID  string    `firestore:"authorId"`
	Text      string    `firestore:"text"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// orderHistoryDocument is stored under the order id so a second archive of the same order collides.
type orderHistoryDocument struct {
	ID            string              `firestore:"id"`
	AccountID     string              `firestore:"accountId"`
	OrderID       string              `firestore:"orderId"`
	Lines         []orderLineDocument `firestore:"lines"`
	TotalPrice    int64               `firestore:"totalPrice"`
	PaymentMethod string              `firestore:"paymentMethod"`
	CompletedAt   time.Time           `firestore:"completedAt"`
}

type productDocument struct {
	Title           string     `firestore:"title"`
	Image           string     `firestore:"image"`
	Price           int64      `firestore:"price"`
	DiscountPercent *float64   `firestore:"discount"`
	DiscountUntil   *time.Time `firestore:"discountEndsAt"`
}

func toCartDocument(cart domain.Cart) cartDocument {
	lines := make([]cartLineDocument, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, cartLineDocument{
			ProductID:      line.ProductID,
			Color:          line.Color,
			Size:           line.Size,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			UnitFinalPrice: line.UnitFinalPrice,
			Title:          line.Title,
			Image:          line.Image,
			AddedAt:        line.AddedAt.UTC(),
		})
	}
	return cartDocument{
		ID:            cart.ID,
		Owner:         cart.Owner.Key(),
		Lines:         lines,
		TotalPrice:    cart.TotalPrice,
		TotalQuantity: cart.TotalQuantity,
		CreatedAt:     cart.CreatedAt.UTC(),
		UpdatedAt:     cart.UpdatedAt.UTC(),
	}
}

func fromCartDocument(owner domain.Owner, doc cartDocument) domain.Cart {
	lines := make([]domain.CartLine, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, domain.CartLine{
			ProductID:      line.ProductID,
			Color:          line.Color,
			Size:           line.Size,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			UnitFinalPrice: line.UnitFinalPrice,
			Title:          line.Title,
			Image:          line.Image,
			AddedAt:        line.AddedAt.UTC(),
		})
	}
	cart := domain.Cart{
		ID:        doc.ID,
		Owner:     owner,
		Lines:     lines,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}
	// Totals are derived; never trust the stored copy.
	cart.RecomputeTotals()
	return cart
}

func toOrderLineDocuments(lines []domain.OrderLine) []orderLineDocument {
	out := make([]orderLineDocument, 0, len(lines))
	for _, line := range lines {
		out = append(out, orderLineDocument(line))
	}
	return out
}

func fromOrderLineDocuments(lines []orderLineDocument) []domain.OrderLine {
	out := make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.OrderLine(line))
	}
	return out
}

func toOrderDocument(order domain.Order) orderDocument {
	comments := make([]adminCommentDocument, 0, len(order.AdminComments))
	for _, comment := range order.AdminComments {
		comments = append(comments, adminCommentDocument{
			ID:        comment.ID,
			AuthorID:  comment.AuthorID,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt.UTC(),
		})
	}
	return orderDocument{
		AccountID:      order.AccountID,
		Lines:          toOrderLineDocuments(order.Lines),
		TotalPrice:     order.TotalPrice,
		PaymentMethod:  order.PaymentMethod,
		Status:         string(order.Status),
		DeliveryStatus: string(order.DeliveryStatus),
		PaymentStatus:  string(order.PaymentStatus),
		UserComment:    order.UserComment,
		AdminComments:  comments,
		IsArchived:     order.IsArchived,
		CreatedAt:      order.CreatedAt.UTC(),
		UpdatedAt:      order.UpdatedAt.UTC(),
	}
}

func fromOrderDocument(id string, doc orderDocument) domain.Order {
	comments := make([]domain.AdminComment, 0, len(doc.AdminComments))
	for _, comment := range doc.AdminComments {
		comments = append(comments, domain.AdminComment{
			ID:        comment.ID,
			AuthorID:  comment.AuthorID,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt.UTC(),
		})
	}
	return domain.Order{
		ID:             id,
		AccountID:      doc.AccountID,
		Lines:          fromOrderLineDocuments(doc.Lines),
		TotalPrice:     doc.TotalPrice,
		PaymentMethod:  doc.PaymentMethod,
		Status:         domain.OrderStatus(doc.Status),
		DeliveryStatus: domain.DeliveryStatus(doc.DeliveryStatus),
		PaymentStatus:  domain.PaymentStatus(doc.PaymentStatus),
		UserComment:    doc.UserComment,
		AdminComments:  comments,
		IsArchived:     doc.IsArchived,
		CreatedAt:      doc.CreatedAt.UTC(),
		UpdatedAt:      doc.UpdatedAt.UTC(),
	}
}

func toOrderHistoryDocument(history domain.OrderHistory) orderHistoryDocument {
	return orderHistoryDocument{
		ID:            history.ID,
		AccountID:     history.AccountID,
		OrderID:       history.OrderID,
		Lines:         toOrderLineDocuments(history.Lines),
		TotalPrice:    history.TotalPrice,
		PaymentMethod: history.PaymentMethod,
		CompletedAt:   history.CompletedAt.UTC(),
	}
}

func fromOrderHistoryDocument(doc orderHistoryDocument) domain.OrderHistory {
	return domain.OrderHistory{
		ID:            doc.ID,
		AccountID:     doc.AccountID,
		OrderID:       doc.OrderID,
		Lines:         fromOrderLineDocuments(doc.Lines),
		TotalPrice:    doc.TotalPrice,
		PaymentMethod: doc.PaymentMethod,
		CompletedAt:   doc.CompletedAt.UTC(),
	}
}

func fromProductDocument(id string, doc productDocument) domain.Product {
	product := domain.Product{
		ID:              id,
		Title:           doc.Title,
		Image:           doc.Image,
		Price:           doc.Price,
		DiscountPercent: doc.DiscountPercent,
	}
	if doc.DiscountUntil != nil {
		until := doc.DiscountUntil.UTC()
		product.DiscountUntil = &until
	}
	return product
}
